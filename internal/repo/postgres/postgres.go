package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

var _ repo.SampleStore = (*Store)(nil)
var _ repo.AlertStore = (*Store)(nil)
var _ repo.MetadataStore = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the schema if it does not exist yet. The partial unique
// index on open alerts is what enforces the one-open-alert-per-kind
// invariant at the storage layer.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS samples (
			id          BIGSERIAL PRIMARY KEY,
			kind        TEXT NOT NULL,
			value       DOUBLE PRECISION NOT NULL,
			captured_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS samples_captured_at_idx ON samples (captured_at DESC)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id               TEXT PRIMARY KEY,
			kind             TEXT NOT NULL,
			triggered_value  DOUBLE PRECISION NOT NULL,
			threshold        DOUBLE PRECISION NOT NULL,
			status           TEXT NOT NULL,
			opened_at        TIMESTAMPTZ NOT NULL,
			resolved_at      TIMESTAMPTZ,
			last_notified_at TIMESTAMPTZ
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS alerts_open_kind_idx
		   ON alerts (kind) WHERE status = 'open'`,
		`CREATE TABLE IF NOT EXISTS metadata (
			name        TEXT PRIMARY KEY,
			environment TEXT NOT NULL,
			location    TEXT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ---- SampleStore ----

func (s *Store) Append(ctx context.Context, m *domain.MetricSample) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO samples (kind, value, captured_at) VALUES ($1, $2, $3)`,
		string(m.Kind), m.Value, m.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, kind domain.MetricKind, since time.Time) ([]domain.MetricSample, error) {
	q := `SELECT kind, value, captured_at
	        FROM samples
	       WHERE captured_at > $1`
	args := []any{since}
	if kind != "" {
		q += ` AND kind = $2`
		args = append(args, string(kind))
	}
	q += ` ORDER BY captured_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	defer rows.Close()

	var out []domain.MetricSample
	for rows.Next() {
		var (
			k  string
			ms domain.MetricSample
		)
		if err := rows.Scan(&k, &ms.Value, &ms.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		ms.Kind = domain.MetricKind(k)
		out = append(out, ms)
	}
	return out, rows.Err()
}

// ---- MetadataStore ----

func (s *Store) UpsertMetadata(ctx context.Context, m *domain.Metadata) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO metadata (name, environment, location, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET environment = EXCLUDED.environment,
		              location    = EXCLUDED.location,
		              updated_at  = EXCLUDED.updated_at`,
		m.Name, m.Environment, m.Location, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}
	return nil
}

func (s *Store) ListMetadata(ctx context.Context) ([]domain.Metadata, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, environment, location, updated_at FROM metadata ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	var out []domain.Metadata
	for rows.Next() {
		var m domain.Metadata
		if err := rows.Scan(&m.Name, &m.Environment, &m.Location, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMetadata(ctx context.Context, name string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM metadata WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("delete metadata: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
