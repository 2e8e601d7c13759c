package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_ticks_total",
			Help: "Total number of monitoring ticks",
		},
		[]string{"status"}, // status: ok, failed
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "healthwatch_tick_duration_seconds",
			Help:    "Time taken by one full pipeline tick",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	SamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_samples_total",
			Help: "Total number of metric samples read from the host",
		},
		[]string{"kind", "status"}, // status: ok, failed
	)

	// Lifecycle metrics
	AlertsOpenedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_alerts_opened_total",
			Help: "Total number of alerts opened",
		},
		[]string{"kind"},
	)

	AlertsResolvedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_alerts_resolved_total",
			Help: "Total number of alerts resolved",
		},
		[]string{"kind"},
	)

	OpenAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "healthwatch_open_alerts",
			Help: "Number of currently open alerts",
		},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "healthwatch_notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"status"}, // status: sent, failed
	)

	NotificationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "healthwatch_notification_retries_total",
			Help: "Total number of notification delivery retries",
		},
	)
)
