package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hamed0406/healthwatch/internal/domain"
	"github.com/hamed0406/healthwatch/internal/repo"
)

func TestMemoryStore_OpenAlertUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &domain.Alert{
		Kind:           domain.MetricCPU,
		TriggeredValue: 91,
		Limit:          80,
		Status:         domain.AlertOpen,
		OpenedAt:       time.Now().UTC(),
	}
	if err := s.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if a.ID == "" {
		t.Fatalf("expected alert ID to be assigned")
	}

	// a second open alert for the same kind must be rejected
	dup := &domain.Alert{
		Kind:     domain.MetricCPU,
		Status:   domain.AlertOpen,
		OpenedAt: time.Now().UTC(),
	}
	if err := s.Upsert(ctx, dup); err != repo.ErrOpenConflict {
		t.Fatalf("want ErrOpenConflict, got %v", err)
	}

	// a different kind is independent
	mem := &domain.Alert{Kind: domain.MetricMemory, Status: domain.AlertOpen, OpenedAt: time.Now().UTC()}
	if err := s.Upsert(ctx, mem); err != nil {
		t.Fatalf("other kind should open: %v", err)
	}

	open, err := s.OpenAlerts(ctx)
	if err != nil {
		t.Fatalf("OpenAlerts: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("want 2 open alerts, got %d", len(open))
	}
}

func TestMemoryStore_ResolveClearsOpenIndex(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &domain.Alert{
		Kind:           domain.MetricDisk,
		TriggeredValue: 96,
		Limit:          90,
		Status:         domain.AlertOpen,
		OpenedAt:       time.Now().UTC(),
	}
	if err := s.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Resolve(ctx, a.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Status != domain.AlertResolved || got.ResolvedAt == nil {
		t.Fatalf("not resolved: %+v", got)
	}
	if got.TriggeredValue != 96 || !got.OpenedAt.Equal(a.OpenedAt) {
		t.Fatalf("resolve must preserve open-time fields: %+v", got)
	}
	if got.ResolvedAt.Before(got.OpenedAt) {
		t.Fatalf("resolved_at before opened_at")
	}

	if o, _ := s.GetOpen(ctx, domain.MetricDisk); o != nil {
		t.Fatalf("open index not cleared: %+v", o)
	}

	// resolving again is a no-op
	again, err := s.Resolve(ctx, a.ID)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}
	if !again.ResolvedAt.Equal(*got.ResolvedAt) {
		t.Fatalf("second resolve must not move resolved_at")
	}

	if _, err := s.Resolve(ctx, domain.AlertID("nope")); err != repo.ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_SampleHistoryFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_ = s.Append(ctx, &domain.MetricSample{Kind: domain.MetricCPU, Value: float64(10 * i), CapturedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	_ = s.Append(ctx, &domain.MetricSample{Kind: domain.MetricMemory, Value: 50, CapturedAt: base.Add(time.Minute)})

	all, err := s.History(ctx, "", base.Add(-time.Minute))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("want 4 samples, got %d", len(all))
	}
	if !all[0].CapturedAt.After(all[len(all)-1].CapturedAt) {
		t.Fatalf("history not newest-first")
	}

	cpuOnly, _ := s.History(ctx, domain.MetricCPU, base)
	if len(cpuOnly) != 2 { // the sample at base itself is excluded (strictly after)
		t.Fatalf("want 2 cpu samples after cutoff, got %d", len(cpuOnly))
	}
}

func TestMemoryStore_Metadata(t *testing.T) {
	ctx := context.Background()
	s := New()

	md := &domain.Metadata{Name: "web-1", Environment: "prod", Location: "fra"}
	if err := s.UpsertMetadata(ctx, md); err != nil {
		t.Fatalf("UpsertMetadata: %v", err)
	}
	md2 := &domain.Metadata{Name: "web-1", Environment: "staging", Location: "fra"}
	if err := s.UpsertMetadata(ctx, md2); err != nil {
		t.Fatalf("upsert existing: %v", err)
	}

	all, _ := s.ListMetadata(ctx)
	if len(all) != 1 || all[0].Environment != "staging" {
		t.Fatalf("upsert by name failed: %+v", all)
	}

	if ok, _ := s.DeleteMetadata(ctx, "web-1"); !ok {
		t.Fatalf("expected delete to report true")
	}
	if ok, _ := s.DeleteMetadata(ctx, "web-1"); ok {
		t.Fatalf("expected delete of missing to report false")
	}
}
