package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// flakyNotifier fails the first failures sends, then succeeds.
type flakyNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyNotifier) Send(ctx context.Context, title, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("channel unavailable")
	}
	return nil
}

func event(ev domain.EventKind) domain.NotificationEvent {
	return domain.NotificationEvent{
		AlertID: "A1",
		Kind:    domain.MetricCPU,
		Event:   ev,
		Value:   91.2,
		Limit:   80,
		At:      time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	n := &flakyNotifier{failures: 2}
	d := NewDispatcher(n, 3, time.Millisecond, time.Second, zap.NewNop())
	defer d.Close()

	res := d.DispatchSync(context.Background(), event(domain.EventOpened))
	if res.Err != nil {
		t.Fatalf("want success after retries: %+v", res)
	}
	if res.Attempts != 3 {
		t.Fatalf("want 3 attempts, got %d", res.Attempts)
	}
	if d.LastFailure() != nil {
		t.Fatalf("success must not record a failure")
	}
}

func TestDispatcher_ExhaustsCeilingAndRecordsFailure(t *testing.T) {
	n := &flakyNotifier{failures: 100} // always failing
	d := NewDispatcher(n, 3, time.Millisecond, time.Second, zap.NewNop())
	defer d.Close()

	res := d.DispatchSync(context.Background(), event(domain.EventOpened))
	if res.Err == nil {
		t.Fatalf("want failure after ceiling")
	}
	if res.Attempts != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", res.Attempts)
	}
	if n.calls != 3 {
		t.Fatalf("notifier called %d times, want 3", n.calls)
	}

	lf := d.LastFailure()
	if lf == nil || lf.AlertID != "A1" || lf.Err == nil {
		t.Fatalf("exhausted delivery not recorded: %+v", lf)
	}
}

func TestDispatcher_AsyncDoesNotBlockCaller(t *testing.T) {
	slow := notifierFunc(func(ctx context.Context, title, text string) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	d := NewDispatcher(slow, 1, time.Millisecond, 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	d.Dispatch(event(domain.EventOpened))
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Dispatch blocked for %v", elapsed)
	}
	d.Close() // waits for the goroutine; its timeout cuts the slow send short
}

func TestDispatcher_TestBypassesLifecycle(t *testing.T) {
	ok := &flakyNotifier{}
	d := NewDispatcher(ok, 3, time.Millisecond, time.Second, zap.NewNop())
	defer d.Close()

	if res := d.Test(context.Background()); res.Err != nil {
		t.Fatalf("test notification should succeed: %+v", res)
	}

	bad := &flakyNotifier{failures: 100}
	db := NewDispatcher(bad, 2, time.Millisecond, time.Second, zap.NewNop())
	defer db.Close()
	if res := db.Test(context.Background()); res.Err == nil {
		t.Fatalf("test notification should surface channel failure")
	}
}

func TestFormatMessage(t *testing.T) {
	title, text := FormatMessage(event(domain.EventOpened))
	if !strings.Contains(title, "CPU") || !strings.Contains(title, "HIGH") {
		t.Fatalf("opened title: %q", title)
	}
	for _, want := range []string{"91.2%", "80.0%", "opened"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q: %q", want, text)
		}
	}

	title, _ = FormatMessage(event(domain.EventResolved))
	if !strings.Contains(title, "RECOVERED") {
		t.Fatalf("resolved title: %q", title)
	}
}

type notifierFunc func(ctx context.Context, title, text string) error

func (f notifierFunc) Send(ctx context.Context, title, text string) error { return f(ctx, title, text) }
