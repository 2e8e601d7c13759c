package domain

import "time"

type MetricKind string

const (
	MetricCPU    MetricKind = "cpu"
	MetricMemory MetricKind = "memory"
	MetricDisk   MetricKind = "disk"
)

// Kinds lists every metric kind the sampler knows how to read.
func Kinds() []MetricKind {
	return []MetricKind{MetricCPU, MetricMemory, MetricDisk}
}

// MetricSample is one utilization reading (0–100 percent). Samples are
// append-only history and are never updated after being recorded.
type MetricSample struct {
	Kind       MetricKind `json:"kind"`
	Value      float64    `json:"value"`
	CapturedAt time.Time  `json:"captured_at"`
}

// Thresholds maps a metric kind to its breach limit in percent.
// A kind absent from the map is never evaluated.
type Thresholds map[MetricKind]float64

type AlertStatus string

const (
	AlertOpen     AlertStatus = "open"
	AlertResolved AlertStatus = "resolved"
)

type AlertID string

// Alert records one breach period for a metric. At most one alert per
// kind may be open at a time; resolved alerts are kept as history.
type Alert struct {
	ID             AlertID     `json:"id"`
	Kind           MetricKind  `json:"kind"`
	TriggeredValue float64     `json:"triggered_value"`
	Limit          float64     `json:"limit"`
	Status         AlertStatus `json:"status"`
	OpenedAt       time.Time   `json:"opened_at"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
	LastNotifiedAt *time.Time  `json:"last_notified_at,omitempty"`
}

// BreachResult is the evaluator's verdict for one sampled metric.
type BreachResult struct {
	Kind      MetricKind `json:"kind"`
	Value     float64    `json:"value"`
	Limit     float64    `json:"limit"`
	Breaching bool       `json:"breaching"`
}

type EventKind string

const (
	EventOpened   EventKind = "opened"
	EventResolved EventKind = "resolved"
)

// NotificationEvent describes a lifecycle transition to deliver to the
// outbound channel. It is not persisted as lifecycle state; the
// dispatcher tracks delivery attempts separately.
type NotificationEvent struct {
	AlertID AlertID    `json:"alert_id"`
	Kind    MetricKind `json:"kind"`
	Event   EventKind  `json:"event"`
	Value   float64    `json:"value"`
	Limit   float64    `json:"limit"`
	At      time.Time  `json:"at"`
}

// Metadata is operator-supplied host identification, managed via the API.
type Metadata struct {
	Name        string    `json:"name"`
	Environment string    `json:"environment"`
	Location    string    `json:"location"`
	UpdatedAt   time.Time `json:"updated_at"`
}
