package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tick outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeSinkError = "sink_error"
)

// Event kinds.
const (
	KindDirect     = "direct"
	KindSynthetic  = "synthetic"
	KindTranslated = "translated"
)

var (
	// Tick metrics
	TicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runbridge_sensor_ticks_total",
			Help: "Total number of sensor ticks by outcome",
		},
		[]string{"outcome"},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "runbridge_sensor_tick_duration_seconds",
			Help:    "Duration of sensor ticks in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Output metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runbridge_sensor_events_total",
			Help: "Total number of materialization events emitted by kind",
		},
		[]string{"kind"},
	)

	RunsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runbridge_sensor_runs_processed_total",
			Help: "Total number of upstream runs processed",
		},
	)

	CheckRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runbridge_sensor_check_requests_total",
			Help: "Total number of asset checks requested",
		},
	)

	// Cursor metrics
	CursorResetsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runbridge_sensor_cursor_resets_total",
			Help: "Total number of unreadable cursors replaced with a fresh window",
		},
	)

	WindowExhaustedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runbridge_sensor_window_exhausted_total",
			Help: "Total number of polling windows fully drained",
		},
	)

	ConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "runbridge_sensor_consecutive_failures",
			Help: "Number of consecutive failed ticks",
		},
	)
)
