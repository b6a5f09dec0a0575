package middleware

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware applies a per-request deadline through the request
// context. Handlers see context.DeadlineExceeded from whatever blocking
// call they were in (upstream fetch, database query) and map it to
// their own error payload, so timeout responses keep the endpoint's
// envelope instead of a generic one written mid-stream.
//
// Long-lived endpoints (the usage websocket) are mounted outside this
// middleware.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
