package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestAlert_JSONRoundTrip(t *testing.T) {
	opened := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	resolved := opened.Add(5 * time.Minute)
	want := Alert{
		ID:             AlertID("A1"),
		Kind:           MetricCPU,
		TriggeredValue: 91.5,
		Limit:          80,
		Status:         AlertResolved,
		OpenedAt:       opened,
		ResolvedAt:     &resolved,
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Alert
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if got.ID != want.ID || got.Kind != want.Kind || got.Status != want.Status ||
		!got.OpenedAt.Equal(want.OpenedAt) {
		t.Fatalf("mismatch after round-trip:\nwant=%+v\ngot =%+v", want, got)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(resolved) {
		t.Fatalf("resolved_at lost: %+v", got.ResolvedAt)
	}
	if got.ResolvedAt.Before(got.OpenedAt) {
		t.Fatalf("resolved_at before opened_at: %+v", got)
	}
}

func TestAlert_OpenOmitsResolvedAt(t *testing.T) {
	a := Alert{
		ID:       AlertID("A2"),
		Kind:     MetricDisk,
		Status:   AlertOpen,
		OpenedAt: time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if s := string(b); strings.Contains(s, "resolved_at") || strings.Contains(s, "last_notified_at") {
		t.Fatalf("nil timestamps should be omitted: %s", s)
	}
}

func TestKinds_CoversAllMetrics(t *testing.T) {
	ks := Kinds()
	if len(ks) != 3 {
		t.Fatalf("want 3 kinds, got %d", len(ks))
	}
	seen := map[MetricKind]bool{}
	for _, k := range ks {
		seen[k] = true
	}
	for _, k := range []MetricKind{MetricCPU, MetricMemory, MetricDisk} {
		if !seen[k] {
			t.Fatalf("missing kind %q", k)
		}
	}
}
