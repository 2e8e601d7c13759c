package repo

import (
	"context"
	"errors"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// ErrOpenConflict is returned by Upsert when a second open alert for the
// same metric kind would be created. The lifecycle manager treats it as a
// lost race, never as data loss: the existing open alert wins.
var ErrOpenConflict = errors.New("open alert already exists for metric kind")

// ErrNotFound is returned by Resolve for an unknown alert id.
var ErrNotFound = errors.New("alert not found")

// AlertFilter narrows List. Zero value means everything.
type AlertFilter struct {
	Status domain.AlertStatus
	Kind   domain.MetricKind
}

// AlertStore is implemented by a persistence layer to hold the alert
// lifecycle state. The engine is the only writer during normal operation;
// the API resolves alerts manually through Resolve.
type AlertStore interface {
	// GetOpen returns nil, nil if no alert is open for the kind.
	GetOpen(ctx context.Context, kind domain.MetricKind) (*domain.Alert, error)
	// OpenAlerts returns every currently open alert, used to rehydrate
	// lifecycle state at startup.
	OpenAlerts(ctx context.Context) ([]domain.Alert, error)
	// Upsert writes a lifecycle transition. Creating an alert with
	// Status=open must fail with ErrOpenConflict when another alert is
	// already open for the same kind; updating an existing id replaces
	// its row (used for resolve and last-notified bookkeeping).
	Upsert(ctx context.Context, a *domain.Alert) error
	List(ctx context.Context, f AlertFilter) ([]domain.Alert, error)
	// Resolve marks an open alert resolved by id and returns the updated
	// row. Returns ErrNotFound for unknown ids; resolving an already
	// resolved alert is a no-op and returns the row unchanged.
	Resolve(ctx context.Context, id domain.AlertID) (*domain.Alert, error)
}
