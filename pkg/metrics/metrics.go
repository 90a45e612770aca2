package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchAttempts counts push dispatches by outcome (sent|failed|no_recipients).
	DispatchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportcast_dispatch_attempts_total",
			Help: "Total number of push notification dispatch attempts",
		},
		[]string{"outcome", "type"},
	)

	// DeliveredTokens counts device tokens reported delivered by the dispatcher.
	DeliveredTokens = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sportcast_delivered_tokens_total",
			Help: "Total number of device tokens reported as delivered",
		},
	)

	// LifecycleTransitions counts engine transitions (reminder|live|ended).
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportcast_lifecycle_transitions_total",
			Help: "Total number of match lifecycle transitions applied by the scheduler",
		},
		[]string{"kind"},
	)

	// RetentionDeletes counts rows removed by the retention sweep per table.
	RetentionDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportcast_retention_deleted_rows_total",
			Help: "Total number of rows deleted by the retention sweep",
		},
		[]string{"table"},
	)

	// TickDuration measures one full scheduler pass.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sportcast_tick_duration_seconds",
			Help:    "Duration of one lifecycle and retention pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TicksSkipped counts ticks skipped because another pass held the lock.
	TicksSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sportcast_ticks_skipped_total",
			Help: "Total number of scheduler ticks skipped",
		},
		[]string{"reason"},
	)

	// APILatency tracks request latency by method, route and status.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sportcast_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
