package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks the SQLite stores: query latencies per database,
// hourly usage rows recorded, and retention prune volume.
//
// Metrics:
//   - callisto_store_query_duration_seconds: Query latency by db, operation
//   - callisto_store_usage_rows_total: Hourly usage rows upserted
//   - callisto_store_pruned_rows_total: Rows removed by retention, by db
type StoreMetrics struct {
	queryDuration *prometheus.HistogramVec
	usageRows     prometheus.Counter
	prunedRows    *prometheus.CounterVec
}

// NewStoreMetrics creates and registers store metrics.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		queryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "store",
				Name:      "query_duration_seconds",
				Help:      "SQLite query duration by database and operation",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.025, 0.1, 0.5, 1.0},
			},
			[]string{"db", "operation"},
		),

		usageRows: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "store",
				Name:      "usage_rows_total",
				Help:      "Hourly usage accounting rows upserted",
			},
		),

		prunedRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "store",
				Name:      "pruned_rows_total",
				Help:      "Rows removed by retention runs by database",
			},
			[]string{"db"},
		),
	}

	registry.MustRegister(
		sm.queryDuration,
		sm.usageRows,
		sm.prunedRows,
	)

	return sm
}

// RecordQuery records the duration of one store operation.
func (sm *StoreMetrics) RecordQuery(db, operation string, duration time.Duration) {
	sm.queryDuration.WithLabelValues(db, operation).Observe(duration.Seconds())
}

// RecordUsageRows adds to the upserted row counter.
func (sm *StoreMetrics) RecordUsageRows(n int) {
	if n > 0 {
		sm.usageRows.Add(float64(n))
	}
}

// RecordPrune adds to the pruned row counter for a database.
func (sm *StoreMetrics) RecordPrune(db string, rows int64) {
	if rows > 0 {
		sm.prunedRows.WithLabelValues(db).Add(float64(rows))
	}
}
