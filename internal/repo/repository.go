package repo

import (
	"context"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
)

// Ports (interfaces) — swap in any DB adapter later.

type SampleStore interface {
	Append(ctx context.Context, s *domain.MetricSample) error
	// History returns samples captured after since, newest first.
	// An empty kind means all kinds.
	History(ctx context.Context, kind domain.MetricKind, since time.Time) ([]domain.MetricSample, error)
}

type MetadataStore interface {
	// UpsertMetadata creates or replaces the record keyed by Name.
	UpsertMetadata(ctx context.Context, m *domain.Metadata) error
	ListMetadata(ctx context.Context) ([]domain.Metadata, error)
	// DeleteMetadata reports whether a record was actually removed.
	DeleteMetadata(ctx context.Context, name string) (bool, error)
}
