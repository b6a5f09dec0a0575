// Package telemetry provides observability for Callisto.
//
// # Overview
//
// The telemetry package implements structured logging, Prometheus metrics,
// OpenTelemetry distributed tracing, and health check endpoints. It provides
// visibility into the poller, the management API, and the stores while
// staying cheap enough to leave on everywhere.
//
// # Components
//
//   - logging: slog handler construction with credential redaction
//   - metrics: Prometheus metrics collection
//   - tracing: OpenTelemetry distributed tracing
//   - health: liveness/readiness endpoints
//
// # Usage
//
//	// Build the process logger from config
//	logger, err := logging.Setup(cfg.Telemetry.Logging)
//
//	// Record metrics
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordPoll("success", elapsed)
//
//	// Create a span
//	ctx, span := tracing.StartSpan(ctx, "usage.poll")
//	defer span.End()
//
// # Credential Protection
//
// The logging handler redacts secret material before it reaches a sink:
//
//   - Issued API keys: callisto-...
//   - Bearer tokens and sk- keys in message text
//   - Values of password/secret/token attributes
package telemetry
