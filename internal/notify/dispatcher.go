package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/metrics"
)

// DispatchResult records the outcome of one delivery, including how many
// attempts it took. Err is nil on success.
type DispatchResult struct {
	AlertID  domain.AlertID
	Event    domain.EventKind
	Attempts int
	Err      error
	At       time.Time
}

// Dispatcher formats lifecycle events into human-readable messages and
// delivers them through a Notifier with bounded exponential backoff.
// Delivery is best effort: a send that exhausts its attempts is logged
// and recorded, never propagated back into alert state.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger

	maxAttempts int
	backoff     time.Duration // first retry delay, doubled per attempt
	timeout     time.Duration // budget for one async delivery incl. retries

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu       sync.Mutex
	lastFail *DispatchResult
}

func NewDispatcher(n Notifier, maxAttempts int, backoff, timeout time.Duration, log *zap.Logger) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		notifier:    n,
		log:         log,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		timeout:     timeout,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Dispatch delivers the event asynchronously so a slow channel never
// stalls the sampling cadence. The goroutine carries its own timeout and
// is abandoned on Close.
func (d *Dispatcher) Dispatch(ev domain.NotificationEvent) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(d.baseCtx, d.timeout)
		defer cancel()
		d.deliver(ctx, ev)
	}()
}

// DispatchSync delivers the event on the caller's goroutine and returns
// the outcome, used by the manual test-notification operation.
func (d *Dispatcher) DispatchSync(ctx context.Context, ev domain.NotificationEvent) DispatchResult {
	return d.deliver(ctx, ev)
}

// Test sends a synthetic event straight to the channel, bypassing the
// alert lifecycle entirely.
func (d *Dispatcher) Test(ctx context.Context) DispatchResult {
	return d.DispatchSync(ctx, domain.NotificationEvent{
		AlertID: "test",
		Kind:    domain.MetricCPU,
		Event:   domain.EventOpened,
		Value:   85,
		Limit:   80,
		At:      time.Now().UTC(),
	})
}

// LastFailure returns the most recent exhausted delivery, nil if none.
func (d *Dispatcher) LastFailure() *DispatchResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastFail == nil {
		return nil
	}
	cp := *d.lastFail
	return &cp
}

// Close abandons in-flight retries and waits for the goroutines to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.NotificationEvent) DispatchResult {
	title, text := FormatMessage(ev)
	res := DispatchResult{AlertID: ev.AlertID, Event: ev.Event, At: time.Now().UTC()}

	delay := d.backoff
loop:
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		res.Attempts = attempt
		err := d.notifier.Send(ctx, title, text)
		if err == nil {
			metrics.NotificationsTotal.WithLabelValues("sent").Inc()
			d.log.Debug("notification_sent",
				zap.String("alert_id", string(ev.AlertID)),
				zap.String("event", string(ev.Event)),
				zap.Int("attempt", attempt),
			)
			return res
		}
		res.Err = err

		if attempt == d.maxAttempts {
			break
		}
		metrics.NotificationRetries.Inc()
		select {
		case <-ctx.Done():
			res.Err = ctx.Err()
			break loop
		case <-time.After(delay):
			delay *= 2
		}
	}

	metrics.NotificationsTotal.WithLabelValues("failed").Inc()
	d.log.Warn("notification_failed",
		zap.String("alert_id", string(ev.AlertID)),
		zap.String("event", string(ev.Event)),
		zap.Int("attempts", res.Attempts),
		zap.Error(res.Err),
	)
	d.mu.Lock()
	cp := res
	d.lastFail = &cp
	d.mu.Unlock()
	return res
}

// FormatMessage renders an event as a notification title and body.
func FormatMessage(ev domain.NotificationEvent) (title, text string) {
	kind := strings.ToUpper(string(ev.Kind))
	if ev.Event == domain.EventResolved {
		title = fmt.Sprintf("🟢 %s usage RECOVERED", kind)
	} else {
		title = fmt.Sprintf("🔴 %s usage HIGH", kind)
	}
	text = fmt.Sprintf(
		"Metric: %s\nCurrent: %.1f%%\nThreshold: %.1f%%\nStatus: %s\nAt: %s",
		ev.Kind, ev.Value, ev.Limit, ev.Event, ev.At.Format(time.RFC3339),
	)
	return title, text
}
