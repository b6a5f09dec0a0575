package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"mercator-hq/callisto/pkg/config"
)

// Methods and headers the management API accepts cross-origin. These
// are fixed by the API surface; only origins and cache age come from
// configuration.
var (
	corsAllowedMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsAllowedHeaders = []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID"}
	corsExposedHeaders = []string{"X-Request-ID"}
)

// CORSMiddleware adds Cross-Origin Resource Sharing headers so browsers
// on other origins can talk to the management API, and answers
// preflight OPTIONS requests. Disabled or unmatched origins get no CORS
// headers at all, which makes the browser block the call.
func CORSMiddleware(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin != "" && isOriginAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(corsExposedHeaders, ", "))
			} else if slices.Contains(cfg.AllowedOrigins, "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			// Preflight requests are answered here, never routed.
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsAllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(corsAllowedHeaders, ", "))
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed checks if an origin is in the allowed list. A "*"
// entry allows everything.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
