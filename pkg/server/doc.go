// Package server provides the management HTTP server: usage reporting,
// API key administration, console sessions, and the embedded console.
//
// This package ties together the handler set, middleware chain, health
// probes, and metrics endpoint, and provides server lifecycle management
// including start, graceful shutdown, and OS signal handling.
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "mercator-hq/callisto/pkg/config"
//	    "mercator-hq/callisto/pkg/server"
//	    "mercator-hq/callisto/pkg/server/handlers"
//	)
//
//	cfg, err := config.LoadConfigWithEnvOverrides(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h := handlers.New(handlers.Config{ /* stores, cache, fetcher... */ })
//
//	srv := server.New(cfg, server.Deps{
//	    Handlers: h,
//	    Sessions: sessions,
//	})
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, SIGTERM/SIGINT arrives,
// Stop is called, or the listener fails; it then drains in-flight
// requests for up to the configured shutdown timeout.
//
// # Routes
//
// The server exposes the following HTTP endpoints:
//
//   - GET /healthz - Liveness probe (always 200)
//   - GET /readyz - Readiness probe (runs registered dependency checks)
//   - GET /metrics - Prometheus scrape endpoint (when metrics are enabled)
//   - POST /api/auth/login - Console login, issues a session token
//   - GET /api/auth/claude/status - OAuth credential status
//   - GET /api/server/status - Uptime, bind address, version
//   - GET /api/usage - Classified usage report (cache, then live fetch)
//   - GET /api/usage/live - WebSocket stream of usage reports
//   - GET /api/usage/history - Persisted usage snapshots
//   - GET/POST /api/keys, PATCH/DELETE /api/keys/{keyID} - API key CRUD
//   - GET /api/keys/{keyID}/usage[/summary] - Per-key usage accounting
//   - GET /ui/ - Embedded console (when enabled; / redirects here)
//
// Every /api/ route except login requires a console session token; see
// the middleware package. Errors share one JSON envelope:
//
//	{"error": {"type": "not_found_error", "message": "..."}}
//
// # Middleware Chain
//
// Requests pass through the following middleware (outermost first):
//  1. Recovery: Recovers from panics and returns 500
//  2. RequestID: Generates unique request ID for tracing
//  3. TraceContext: Extracts W3C trace context, reflects X-Trace-ID
//  4. Logging: Logs request/response details
//  5. Metrics: Records method/route/status/latency
//  6. CORS: Adds Cross-Origin Resource Sharing headers
//  7. Session: Enforces console sessions on /api/ paths
//  8. Timeout: Enforces per-request timeout (skipped for the websocket)
//
// # Thread Safety
//
// All server operations are thread-safe and can be called concurrently
// from multiple goroutines.
package server
