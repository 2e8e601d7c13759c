package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

// Store is the in-memory adapter, used when DATABASE_URL is empty and in
// tests. A single mutex guards all three tables; the write volume here is
// one pipeline tick at a time.
type Store struct {
	mu       sync.RWMutex
	samples  []domain.MetricSample
	alerts   map[domain.AlertID]*domain.Alert
	open     map[domain.MetricKind]domain.AlertID // secondary index, one entry per open alert
	metadata map[string]*domain.Metadata
}

func New() *Store {
	return &Store{
		samples:  make([]domain.MetricSample, 0, 256),
		alerts:   make(map[domain.AlertID]*domain.Alert),
		open:     make(map[domain.MetricKind]domain.AlertID),
		metadata: make(map[string]*domain.Metadata),
	}
}

// ---- SampleStore ----

func (m *Store) Append(ctx context.Context, s *domain.MetricSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, *s)
	return nil
}

func (m *Store) History(ctx context.Context, kind domain.MetricKind, since time.Time) ([]domain.MetricSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.MetricSample, 0, len(m.samples))
	for _, s := range m.samples {
		if !s.CapturedAt.After(since) {
			continue
		}
		if kind != "" && s.Kind != kind {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CapturedAt.After(out[j].CapturedAt) })
	return out, nil
}

// ---- AlertStore ----

func (m *Store) GetOpen(ctx context.Context, kind domain.MetricKind) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.open[kind]
	if !ok {
		return nil, nil
	}
	cp := *m.alerts[id]
	return &cp, nil
}

func (m *Store) OpenAlerts(ctx context.Context) ([]domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Alert, 0, len(m.open))
	for _, id := range m.open {
		out = append(out, *m.alerts[id])
	}
	return out, nil
}

func (m *Store) Upsert(ctx context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = domain.AlertID(uuid.NewString())
	}

	if _, exists := m.alerts[a.ID]; !exists && a.Status == domain.AlertOpen {
		if _, busy := m.open[a.Kind]; busy {
			return repo.ErrOpenConflict
		}
	}

	cp := *a
	m.alerts[a.ID] = &cp
	if a.Status == domain.AlertOpen {
		m.open[a.Kind] = a.ID
	} else if m.open[a.Kind] == a.ID {
		delete(m.open, a.Kind)
	}
	return nil
}

func (m *Store) List(ctx context.Context, f repo.AlertFilter) ([]domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Kind != "" && a.Kind != f.Kind {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out, nil
}

func (m *Store) Resolve(ctx context.Context, id domain.AlertID) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if a.Status == domain.AlertResolved {
		cp := *a
		return &cp, nil
	}
	now := time.Now().UTC()
	a.Status = domain.AlertResolved
	a.ResolvedAt = &now
	if m.open[a.Kind] == a.ID {
		delete(m.open, a.Kind)
	}
	cp := *a
	return &cp, nil
}

// ---- MetadataStore ----

func (m *Store) UpsertMetadata(ctx context.Context, md *domain.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if md.UpdatedAt.IsZero() {
		md.UpdatedAt = time.Now().UTC()
	}
	cp := *md
	m.metadata[md.Name] = &cp
	return nil
}

func (m *Store) ListMetadata(ctx context.Context) ([]domain.Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Metadata, 0, len(m.metadata))
	for _, md := range m.metadata {
		out = append(out, *md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) DeleteMetadata(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.metadata[name]; !ok {
		return false, nil
	}
	delete(m.metadata, name)
	return true, nil
}
