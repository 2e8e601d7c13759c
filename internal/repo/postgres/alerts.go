package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

const alertColumns = `id, kind, triggered_value, threshold, status, opened_at, resolved_at, last_notified_at`

func (s *Store) GetOpen(ctx context.Context, kind domain.MetricKind) (*domain.Alert, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE kind = $1 AND status = 'open'`,
		string(kind))
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get open alert: %w", err)
	}
	return a, nil
}

func (s *Store) OpenAlerts(ctx context.Context) ([]domain.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE status = 'open'`)
	if err != nil {
		return nil, fmt.Errorf("open alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// Upsert writes a lifecycle transition. New open alerts go through an
// insert that defers to the partial unique index: if another open alert
// for the kind sneaks in first, no row is written and ErrOpenConflict is
// returned instead of a duplicate.
func (s *Store) Upsert(ctx context.Context, a *domain.Alert) error {
	if a.ID == "" {
		a.ID = domain.AlertID(uuid.NewString())
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE alerts
		   SET status = $2, resolved_at = $3, last_notified_at = $4
		 WHERE id = $1`,
		string(a.ID), string(a.Status), a.ResolvedAt, a.LastNotifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	tag, err = s.pool.Exec(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (kind) WHERE status = 'open' DO NOTHING`,
		string(a.ID), string(a.Kind), a.TriggeredValue, a.Limit,
		string(a.Status), a.OpenedAt, a.ResolvedAt, a.LastNotifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrOpenConflict
	}
	return nil
}

func (s *Store) List(ctx context.Context, f repo.AlertFilter) ([]domain.Alert, error) {
	q := `SELECT ` + alertColumns + ` FROM alerts`
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Kind != "" {
		args = append(args, string(f.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	for i, w := range where {
		if i == 0 {
			q += " WHERE " + w
		} else {
			q += " AND " + w
		}
	}
	q += ` ORDER BY opened_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func (s *Store) Resolve(ctx context.Context, id domain.AlertID) (*domain.Alert, error) {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, `
		UPDATE alerts
		   SET status = 'resolved', resolved_at = $2
		 WHERE id = $1 AND status = 'open'`,
		string(id), now,
	)
	if err != nil {
		return nil, fmt.Errorf("resolve alert: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, string(id))
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("reload alert: %w", err)
	}
	return a, nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		a            domain.Alert
		id, kind, st string
		resolvedAt   *time.Time
		notifiedAt   *time.Time
	)
	if err := row.Scan(&id, &kind, &a.TriggeredValue, &a.Limit, &st, &a.OpenedAt, &resolvedAt, &notifiedAt); err != nil {
		return nil, err
	}
	a.ID = domain.AlertID(id)
	a.Kind = domain.MetricKind(kind)
	a.Status = domain.AlertStatus(st)
	a.ResolvedAt = resolvedAt
	a.LastNotifiedAt = notifiedAt
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]domain.Alert, error) {
	var out []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
