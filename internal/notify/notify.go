package notify

import "context"

// Notifier delivers a single notification to an external channel. A nil
// or misconfigured implementation should fail the Send rather than
// panic; the dispatcher handles retries and failure isolation.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}
