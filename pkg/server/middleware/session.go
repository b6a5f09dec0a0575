package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"mercator-hq/callisto/pkg/server/types"
)

// Verifier checks console session tokens. *session.Manager satisfies it.
type Verifier interface {
	Verify(token string) error
}

// SessionMiddleware guards the management API with console session
// tokens. Only /api/ paths are enforced; login itself, health, metrics,
// and the static console stay public so a browser can reach the login
// screen in the first place.
//
// Tokens arrive as "Authorization: Bearer <token>" or, for websocket
// clients that cannot set headers, as a token query parameter.
func SessionMiddleware(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SessionProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			token := extractSessionToken(r)
			if token == "" {
				writeUnauthorized(w, "Missing session token")
				return
			}
			if err := verifier.Verify(token); err != nil {
				writeUnauthorized(w, "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SessionProtected reports whether a path requires a console session.
func SessionProtected(path string) bool {
	if path == "/api/auth/login" {
		return false
	}
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// extractSessionToken pulls the session token from the request. The
// Authorization header wins; the query parameter is the websocket
// fallback.
func extractSessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")); token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(types.NewAuthenticationError(message))
}
