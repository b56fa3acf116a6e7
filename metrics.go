package stratum

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricStatementRetries   = "statement_retries_total"
	MetricLockTimeouts       = "statement_lock_timeouts_total"
	MetricStatementCancels   = "statement_cancellations_total"
	MetricEmergencyShutdowns = "emergency_shutdowns_total"
	MetricResultCacheHits    = "result_cache_hits_total"
	MetricResultCacheMisses  = "result_cache_misses_total"
	MetricStatementSeconds   = "statement_duration_seconds"
)

var CounterStatementRetries = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stratum",
		Name:      MetricStatementRetries,
		Help:      "Conflicting attempts retried inside the execution loop.",
	},
)

var CounterLockTimeouts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stratum",
		Name:      MetricLockTimeouts,
		Help:      "Statements that exhausted their conflict retry budget.",
	},
)

var CounterStatementCancels = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stratum",
		Name:      MetricStatementCancels,
		Help:      "Statements terminated by cooperative cancellation.",
	},
)

var CounterEmergencyShutdowns = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stratum",
		Name:      MetricEmergencyShutdowns,
		Help:      "Immediate shutdowns triggered by out-of-resources failures.",
	},
)

var CounterResultCacheHits = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stratum",
		Name:      MetricResultCacheHits,
		Help:      "Executions skipped in favor of a cached result.",
	},
)

var CounterResultCacheMisses = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "stratum",
		Name:      MetricResultCacheMisses,
		Help:      "Cacheable executions that had to recompute.",
	},
)

var HistogramStatementSeconds = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "stratum",
		Name:      MetricStatementSeconds,
		Help:      "Wall time per completed statement, retries included.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12),
	},
)

func init() {
	prometheus.MustRegister(CounterStatementRetries)
	prometheus.MustRegister(CounterLockTimeouts)
	prometheus.MustRegister(CounterStatementCancels)
	prometheus.MustRegister(CounterEmergencyShutdowns)
	prometheus.MustRegister(CounterResultCacheHits)
	prometheus.MustRegister(CounterResultCacheMisses)
	prometheus.MustRegister(HistogramStatementSeconds)
}
