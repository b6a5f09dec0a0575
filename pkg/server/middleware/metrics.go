package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Recorder receives one observation per completed request.
// *telemetry.Collector satisfies it.
type Recorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// MetricsMiddleware records method, route pattern, status, and latency
// for every completed request. The chi route pattern keeps label
// cardinality bounded; raw paths with embedded key IDs never reach the
// recorder. Panicked requests are not recorded, the recovery middleware
// owns those.
func MetricsMiddleware(recorder Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if recorder == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			// The route pattern is only known after routing ran.
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			recorder.RecordHTTPRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
