package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/alert"
	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/metrics"
	"github.com/hamed0406/healthwatch/internal/notify"
	"github.com/hamed0406/healthwatch/internal/repo"
	"github.com/hamed0406/healthwatch/internal/sampler"
)

// Monitor drives the sampling pipeline: sample the host, append history,
// evaluate thresholds, apply lifecycle transitions, dispatch
// notifications. One Monitor runs on one goroutine; it is the single
// writer of alert and sample state.
type Monitor struct {
	Logger     *zap.Logger
	Sampler    *sampler.Sampler
	Samples    repo.SampleStore
	Manager    *alert.Manager
	Dispatcher *notify.Dispatcher
	Thresholds domain.Thresholds
	Interval   time.Duration
	// TickTimeout bounds one tick's sampling and store I/O so a stuck
	// host facility or database cannot stall the cadence indefinitely.
	TickTimeout time.Duration
}

func NewMonitor(
	logger *zap.Logger,
	smp *sampler.Sampler,
	samples repo.SampleStore,
	mgr *alert.Manager,
	disp *notify.Dispatcher,
	thresholds domain.Thresholds,
	interval time.Duration,
) *Monitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Monitor{
		Logger:      logger,
		Sampler:     smp,
		Samples:     samples,
		Manager:     mgr,
		Dispatcher:  disp,
		Thresholds:  thresholds,
		Interval:    interval,
		TickTimeout: interval / 2,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// The ticker keeps a fixed cadence regardless of how long a tick takes,
// so slow ticks do not accumulate drift. A failed tick is logged and the
// loop keeps going; only ctx cancellation stops it, and an in-flight
// tick's state writes complete before Run returns.
func (m *Monitor) Run(ctx context.Context) {
	t := time.NewTicker(m.Interval)
	defer t.Stop()

	m.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			m.Logger.Info("monitor_stopped")
			return
		case <-t.C:
			m.runOnce(ctx)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TicksTotal.WithLabelValues("failed").Inc()
			m.Logger.Error("tick_panic", zap.Any("panic", r))
		}
	}()

	start := time.Now()
	err := m.Tick(ctx)
	metrics.TickDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.TicksTotal.WithLabelValues("failed").Inc()
		m.Logger.Warn("tick_failed", zap.Error(err))
		return
	}
	metrics.TicksTotal.WithLabelValues("ok").Inc()
}

// Tick executes one pipeline pass. Per-metric sampling failures degrade
// gracefully: the readable kinds are still evaluated. Store failures are
// returned as the tick error; the lifecycle manager has already kept its
// state consistent for retry on the next tick.
func (m *Monitor) Tick(ctx context.Context) error {
	if m.TickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.TickTimeout)
		defer cancel()
	}

	now := time.Now().UTC()

	samples, sampleErrs := m.Sampler.Sample(ctx)
	for _, err := range sampleErrs {
		metrics.SamplesTotal.WithLabelValues(kindOf(err), "failed").Inc()
		m.Logger.Warn("sample_failed", zap.Error(err))
	}

	var tickErr error
	for i := range samples {
		metrics.SamplesTotal.WithLabelValues(string(samples[i].Kind), "ok").Inc()
		if err := m.Samples.Append(ctx, &samples[i]); err != nil {
			tickErr = multierr.Append(tickErr, fmt.Errorf("append sample %s: %w", samples[i].Kind, err))
		}
	}

	results := alert.Evaluate(samples, m.Thresholds)
	events, err := m.Manager.Apply(ctx, results, now)
	if err != nil {
		tickErr = multierr.Append(tickErr, err)
	}
	metrics.OpenAlerts.Set(float64(m.Manager.OpenCount()))

	for _, ev := range events {
		switch ev.Event {
		case domain.EventOpened:
			metrics.AlertsOpenedTotal.WithLabelValues(string(ev.Kind)).Inc()
		case domain.EventResolved:
			metrics.AlertsResolvedTotal.WithLabelValues(string(ev.Kind)).Inc()
		}
		m.Logger.Info("alert_transition",
			zap.String("alert_id", string(ev.AlertID)),
			zap.String("kind", string(ev.Kind)),
			zap.String("event", string(ev.Event)),
			zap.Float64("value", ev.Value),
			zap.Float64("limit", ev.Limit),
		)
		// fire-and-forget: delivery latency never delays the next sample
		m.Dispatcher.Dispatch(ev)
	}

	return tickErr
}

func kindOf(err error) string {
	if se, ok := err.(*sampler.SamplingError); ok {
		return string(se.Kind)
	}
	return "unknown"
}
