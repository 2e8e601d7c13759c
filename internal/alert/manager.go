package alert

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

// Manager owns the per-metric lifecycle state: quiet (no open alert) or
// breaching (exactly one open alert). It is the only writer of alert
// state during normal operation and is driven by one goroutine, the
// scheduler, so it needs no internal locking.
type Manager struct {
	alerts   repo.AlertStore
	renotify time.Duration
	log      *zap.Logger

	// open alert per kind; a missing key means quiet
	open map[domain.MetricKind]*domain.Alert
}

// NewManager builds a manager with every metric kind quiet. Renotify is
// the cooldown between repeat notifications on a sustained breach; zero
// means notify once per open period.
func NewManager(alerts repo.AlertStore, renotify time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		alerts:   alerts,
		renotify: renotify,
		log:      log,
		open:     make(map[domain.MetricKind]*domain.Alert),
	}
}

// Rehydrate loads still-open alerts from the store so a restart during a
// breach resumes the open period instead of resetting to quiet and
// re-opening (which would re-notify).
func (m *Manager) Rehydrate(ctx context.Context) error {
	alerts, err := m.alerts.OpenAlerts(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		a := alerts[i]
		m.open[a.Kind] = &a
		m.log.Info("alert_rehydrated",
			zap.String("alert_id", string(a.ID)),
			zap.String("kind", string(a.Kind)),
			zap.Time("opened_at", a.OpenedAt),
		)
	}
	return nil
}

// OpenCount reports how many alerts are currently open.
func (m *Manager) OpenCount() int { return len(m.open) }

// Apply feeds one tick's breach results through the state machine and
// returns the notification events produced by the resulting transitions.
// A store failure on one kind is collected and the in-memory state for
// that kind is left unchanged, so the transition is retried next tick;
// the other kinds still proceed.
func (m *Manager) Apply(ctx context.Context, results []domain.BreachResult, now time.Time) ([]domain.NotificationEvent, error) {
	var (
		events []domain.NotificationEvent
		errs   error
	)

	for _, r := range results {
		cur := m.open[r.Kind]

		// an operator can resolve the row through the API behind this
		// state machine's back; confirm it is still open before treating
		// the breach as sustained, so a stale copy is never written back
		if r.Breaching && cur != nil {
			row, err := m.alerts.GetOpen(ctx, r.Kind)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if row == nil {
				m.log.Info("alert_resolved_externally",
					zap.String("kind", string(r.Kind)),
					zap.String("alert_id", string(cur.ID)),
				)
				delete(m.open, r.Kind)
				cur = nil
			}
		}

		switch {
		case r.Breaching && cur == nil:
			a, created, err := m.openAlert(ctx, r, now)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			m.open[r.Kind] = a
			if created {
				events = append(events, domain.NotificationEvent{
					AlertID: a.ID, Kind: r.Kind, Event: domain.EventOpened,
					Value: r.Value, Limit: r.Limit, At: now,
				})
			}

		case r.Breaching && cur != nil:
			// sustained breach: never a second alert, at most a repeat
			// notification once the cooldown has elapsed
			if m.renotify <= 0 {
				continue
			}
			// a nil LastNotifiedAt (rehydrated row predating the column)
			// counts as due
			if cur.LastNotifiedAt != nil && now.Sub(*cur.LastNotifiedAt) < m.renotify {
				continue
			}
			prev := cur.LastNotifiedAt
			notified := now
			cur.LastNotifiedAt = &notified
			if err := m.alerts.Upsert(ctx, cur); err != nil {
				// restore so the repeat fires next tick instead of being
				// silently skipped
				cur.LastNotifiedAt = prev
				errs = multierr.Append(errs, err)
				continue
			}
			events = append(events, domain.NotificationEvent{
				AlertID: cur.ID, Kind: r.Kind, Event: domain.EventOpened,
				Value: r.Value, Limit: r.Limit, At: now,
			})

		case !r.Breaching && cur != nil:
			resolved := now
			cur.Status = domain.AlertResolved
			cur.ResolvedAt = &resolved
			if err := m.alerts.Upsert(ctx, cur); err != nil {
				// roll the in-memory copy back so next tick retries
				cur.Status = domain.AlertOpen
				cur.ResolvedAt = nil
				errs = multierr.Append(errs, err)
				continue
			}
			delete(m.open, r.Kind)
			events = append(events, domain.NotificationEvent{
				AlertID: cur.ID, Kind: r.Kind, Event: domain.EventResolved,
				Value: r.Value, Limit: r.Limit, At: now,
			})

		default:
			// quiet and not breaching: nothing to do
		}
	}

	return events, errs
}

// openAlert persists a new open alert. If the store reports that an open
// alert for the kind already exists (e.g. left over from a run that
// skipped rehydration), that row is adopted instead of duplicated and no
// fresh notification is produced; created reports which case happened.
func (m *Manager) openAlert(ctx context.Context, r domain.BreachResult, now time.Time) (a *domain.Alert, created bool, err error) {
	notified := now
	a = &domain.Alert{
		ID:             domain.AlertID(uuid.NewString()),
		Kind:           r.Kind,
		TriggeredValue: r.Value,
		Limit:          r.Limit,
		Status:         domain.AlertOpen,
		OpenedAt:       now,
		LastNotifiedAt: &notified,
	}
	err = m.alerts.Upsert(ctx, a)
	if errors.Is(err, repo.ErrOpenConflict) {
		existing, getErr := m.alerts.GetOpen(ctx, r.Kind)
		if getErr != nil {
			return nil, false, getErr
		}
		if existing == nil {
			return nil, false, err
		}
		m.log.Warn("alert_open_conflict_adopted",
			zap.String("kind", string(r.Kind)),
			zap.String("alert_id", string(existing.ID)),
		)
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}
