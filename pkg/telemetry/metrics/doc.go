// Package metrics provides Prometheus metrics collection for Callisto.
//
// # Overview
//
// The metrics package exposes operational metrics for the background
// usage poller, quota window classification, the management API, and
// the SQLite stores. All metrics live in a private registry owned by a
// Collector, served on the configured scrape path.
//
// # Metric Categories
//
//   - Poller Metrics: Poll attempts, fetch latency, failure streak
//   - Cache Metrics: Snapshot cache hits and misses by backend
//   - Usage Metrics: Window utilization, burn rate, pace status, extra usage
//   - HTTP Metrics: Management API requests, latency, websocket subscribers
//   - Auth Metrics: API key authentication outcomes
//   - Store Metrics: Query latency, usage rows upserted, retention prunes
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// After each poll
//	collector.RecordPoll("success", 230*time.Millisecond)
//	collector.UpdateWindow("five_hour", 42.0, 0.84, 1)
//
//	// Scrape endpoint
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Alerting
//
// The window_status gauge encodes the pace classification numerically
// (0=gray 1=green 2=orange 3=red), so a burn-rate alert is a single
// comparison:
//
//	callisto_usage_window_status{window="five_hour"} >= 2
//
// # Cardinality Management
//
// HTTP route labels come from chi route patterns, not raw paths, and a
// limiter caps unique label sets at 1,000 so a scanner walking
// arbitrary URLs cannot grow metric memory without bound.
package metrics
