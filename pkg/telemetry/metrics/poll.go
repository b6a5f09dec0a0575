package metrics

import (
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PollMetrics tracks the background usage poller and the snapshot cache.
//
// Metrics:
//   - callisto_poller_polls_total: Poll attempts by result
//   - callisto_poller_poll_duration_seconds: Upstream fetch latency
//   - callisto_poller_last_success_timestamp_seconds: Unix time of last good poll
//   - callisto_poller_failure_streak: Consecutive failed polls
//   - callisto_cache_hits_total / misses_total: Snapshot cache by backend
type PollMetrics struct {
	pollsTotal    *prometheus.CounterVec
	pollDuration  prometheus.Histogram
	lastSuccess   prometheus.Gauge
	failureStreak prometheus.Gauge

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
}

// NewPollMetrics creates and registers poller metrics.
func NewPollMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PollMetrics {
	pm := &PollMetrics{
		pollsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "poller",
				Name:      "polls_total",
				Help:      "Total number of background usage polls by result",
			},
			[]string{"result"},
		),

		pollDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "poller",
				Name:      "poll_duration_seconds",
				Help:      "Duration of upstream usage fetches in seconds",
				// Upstream fetches run 50ms to a 30s timeout.
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),

		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "poller",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix timestamp of the last successful usage poll",
			},
		),

		failureStreak: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "poller",
				Name:      "failure_streak",
				Help:      "Number of consecutive failed usage polls",
			},
		),

		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Snapshot cache hits by backend",
			},
			[]string{"backend"},
		),

		cacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Snapshot cache misses by backend",
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(
		pm.pollsTotal,
		pm.pollDuration,
		pm.lastSuccess,
		pm.failureStreak,
		pm.cacheHits,
		pm.cacheMisses,
	)

	return pm
}

// RecordPoll records one poll attempt and, on success, advances the
// last-success timestamp.
func (pm *PollMetrics) RecordPoll(result string, duration time.Duration) {
	pm.pollsTotal.WithLabelValues(result).Inc()
	pm.pollDuration.Observe(duration.Seconds())
	if result == "success" {
		pm.lastSuccess.SetToCurrentTime()
	}
}

// SetFailureStreak sets the consecutive failure gauge.
func (pm *PollMetrics) SetFailureStreak(n int) {
	pm.failureStreak.Set(float64(n))
}

// RecordCacheHit increments the hit counter for a backend.
func (pm *PollMetrics) RecordCacheHit(backend string) {
	pm.cacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss increments the miss counter for a backend.
func (pm *PollMetrics) RecordCacheMiss(backend string) {
	pm.cacheMisses.WithLabelValues(backend).Inc()
}
