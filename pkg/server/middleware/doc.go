// Package middleware provides HTTP middleware for the management server.
//
// This package implements middleware functions that handle cross-cutting
// concerns for all management API requests: request ID generation,
// logging, metrics, CORS, session authentication, panic recovery, and
// timeout propagation.
//
// # Middleware Chain
//
// Middleware is registered outermost-first on the router:
//
//	Recovery -> RequestID -> Logging -> Metrics -> CORS -> Timeout
//
// Recovery sits outermost so a panic anywhere below it still produces a
// JSON 500 and a log line. Logging runs inside RequestID so the request
// ID is available for every log entry. Timeout is innermost and is only
// applied to plain request/response routes; long-lived endpoints (the
// usage websocket) are mounted outside it. SessionMiddleware wraps the
// /api/ subtree separately.
//
// # Request ID
//
// RequestIDMiddleware assigns each request a 16-byte random hex ID
// unless the client already sent one:
//
//	X-Request-ID: 3f2a9c0d1b4e8f67a5c3e1d90b7f2468
//
// The ID is stored in the request context, echoed in the response
// headers, and attached to every log line for the request.
//
// # Logging
//
// LoggingMiddleware uses structured logging (log/slog) to record one
// completion line per request:
//
//	{
//	  "time": "2025-11-16T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/api/usage",
//	  "status": 200,
//	  "latency_ms": 12,
//	  "request_id": "3f2a9c0d1b4e8f67a5c3e1d90b7f2468"
//	}
//
// Responses with a 4xx status log at warn, 5xx at error.
//
// # Metrics
//
// MetricsMiddleware reports method, chi route pattern, status, and
// latency to a Recorder. Using the route pattern instead of the raw
// path keeps metric label cardinality bounded even though key IDs
// appear in URLs.
//
// # Session
//
// SessionMiddleware enforces console session tokens on /api/ paths,
// with /api/auth/login left public. Tokens are accepted from the
// Authorization header as a bearer token or from a token query
// parameter for websocket clients. Failures return 401 with an
// authentication_error envelope.
//
// # CORS
//
// CORSMiddleware adds Cross-Origin Resource Sharing headers for the
// browser console based on configuration:
//
//	console:
//	  cors:
//	    enabled: true
//	    allowed_origins: ["http://localhost:8484", "http://127.0.0.1:8484"]
//	    max_age: 3600
//
// Preflight OPTIONS requests are answered by the middleware with 204.
//
// # Recovery
//
// RecoveryMiddleware catches panics in handlers and converts them to
// HTTP 500 errors:
//
//	{
//	  "error": {
//	    "type": "api_error",
//	    "message": "Internal server error"
//	  }
//	}
//
// The panic value and stack trace are logged but never exposed to
// clients.
//
// # Timeout
//
// TimeoutMiddleware attaches a deadline to the request context. It
// never writes a response itself; handlers observe
// context.DeadlineExceeded and map it to their own 504 envelope.
//
// # Context Values
//
// Middleware stores values in the request context under typed keys:
//
//	RequestIDKey
//	StartTimeKey
//
// Handlers retrieve them through GetRequestID and GetStartTime rather
// than reading the context directly.
//
// # Thread Safety
//
// All middleware functions are stateless and safe for concurrent use.
package middleware
