package metrics

import (
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks the management API surface: request counts and
// latencies by route, live websocket subscribers, and data-plane API
// key authentication outcomes.
//
// Metrics:
//   - callisto_http_requests_total: Requests by method, route, status
//   - callisto_http_request_duration_seconds: Request latency histogram
//   - callisto_http_websocket_clients: Currently attached live-usage subscribers
//   - callisto_auth_key_checks_total: API key authentication attempts by outcome
type HTTPMetrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	websocketClients prometheus.Gauge
	keyAuthTotal     *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *HTTPMetrics {
	hm := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total management API requests",
			},
			[]string{"method", "route", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Management API request duration in seconds",
				// Most handlers answer from cache or SQLite; the slow tail
				// is a cold usage fetch passing through to the upstream.
				Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 1.0, 5.0, 30.0},
			},
			[]string{"method", "route"},
		),

		websocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "websocket_clients",
				Help:      "Currently connected live-usage websocket subscribers",
			},
		),

		keyAuthTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "auth",
				Name:      "key_checks_total",
				Help:      "API key authentication attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		hm.requestsTotal,
		hm.requestDuration,
		hm.websocketClients,
		hm.keyAuthTotal,
	)

	return hm
}

// RecordRequest records one completed request.
func (hm *HTTPMetrics) RecordRequest(method, route string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	hm.requestsTotal.WithLabelValues(method, route, code).Inc()
	hm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// WebsocketConnected increments the subscriber gauge.
func (hm *HTTPMetrics) WebsocketConnected() {
	hm.websocketClients.Inc()
}

// WebsocketDisconnected decrements the subscriber gauge.
func (hm *HTTPMetrics) WebsocketDisconnected() {
	hm.websocketClients.Dec()
}

// RecordKeyAuth records an API key authentication attempt.
func (hm *HTTPMetrics) RecordKeyAuth(outcome string) {
	hm.keyAuthTotal.WithLabelValues(outcome).Inc()
}
