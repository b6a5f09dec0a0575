package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mercator-hq/callisto/pkg/keys"
)

// touchTimeout bounds the asynchronous usage-stat update for one
// authenticated request.
const touchTimeout = 5 * time.Second

// Middleware authenticates data-plane requests against the key store.
// Only /v1/ paths are enforced; health probes, metrics, the console,
// and the management API (which carries its own session auth) pass
// through untouched.
type Middleware struct {
	store   KeyStore
	metrics Metrics
	logger  *slog.Logger
}

// NewMiddleware creates the data-plane authentication middleware.
// metrics may be nil.
func NewMiddleware(store KeyStore, metrics Metrics) *Middleware {
	return &Middleware{
		store:   store,
		metrics: metrics,
		logger:  slog.Default().With("component", "auth"),
	}
}

// Protected reports whether a request path requires an API key.
func Protected(path string) bool {
	return path == "/v1" || strings.HasPrefix(path, "/v1/")
}

// Handle wraps an HTTP handler with API key authentication for
// protected paths.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Protected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		plaintext := extractKey(r)
		if plaintext == "" {
			m.record("missing")
			m.logger.Warn("missing API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeError(w, http.StatusUnauthorized, "authentication_error", "Missing API key")
			return
		}

		// Foreign tokens (console JWTs, upstream OAuth) never carry
		// the issued prefix; reject them without touching the store.
		if !strings.HasPrefix(plaintext, keys.KeyPrefix) {
			m.record("unknown_key")
			m.logger.Warn("rejected API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeError(w, http.StatusUnauthorized, "authentication_error", "Invalid API key")
			return
		}

		key, err := m.store.Authenticate(r.Context(), plaintext)
		if errors.Is(err, keys.ErrInvalidKey) {
			m.record("unknown_key")
			m.logger.Warn("rejected API key",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			writeError(w, http.StatusUnauthorized, "authentication_error", "Invalid API key")
			return
		}
		if err != nil {
			m.record("error")
			m.logger.Error("key lookup failed",
				"path", r.URL.Path,
				"error", err,
			)
			writeError(w, http.StatusInternalServerError, "api_error", "Internal server error")
			return
		}

		m.record("ok")
		m.logger.Debug("API key authenticated",
			"key_id", key.ID,
			"key_name", key.Name,
			"path", r.URL.Path,
		)

		m.touchAsync(key.ID)

		ctx := context.WithValue(r.Context(), keyInfoKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractKey pulls the presented key from the Authorization header
// (Bearer scheme) or the X-API-Key header, in that order. Key values
// are never logged.
func extractKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if key := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); key != "" {
			return key
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// touchAsync bumps the key's usage statistics off the request path. A
// lost update under shutdown costs one count; requests never wait on
// the control database.
func (m *Middleware) touchAsync(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := m.store.Touch(ctx, id); err != nil {
			m.logger.Warn("failed to update key usage stats",
				"key_id", id,
				"error", err,
			)
		}
	}()
}

func (m *Middleware) record(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordKeyAuth(outcome)
	}
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// writeError sends the standard error envelope.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		Error: errorBody{Type: errType, Message: message},
	})
}

// Context key for the authenticated key record
type contextKey string

// #nosec G101 - This is a context key constant, not a credential
const keyInfoKey contextKey = "api_key_info"

// GetKeyInfo retrieves the authenticated key record from a request
// context. The second return is false for requests that did not pass
// through the middleware's protected paths.
func GetKeyInfo(ctx context.Context) (*keys.Key, bool) {
	info, ok := ctx.Value(keyInfoKey).(*keys.Key)
	return info, ok
}
