package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/callisto/pkg/config"
)

func TestCORSMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	t.Run("adds CORS headers for allowed origin", func(t *testing.T) {
		cfg := config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"http://localhost:8484"},
			MaxAge:         3600,
		}

		wrapped := CORSMiddleware(cfg)(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req.Header.Set("Origin", "http://localhost:8484")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8484" {
			t.Errorf("Access-Control-Allow-Origin = %v, want http://localhost:8484", got)
		}

		if !strings.Contains(w.Header().Get("Vary"), "Origin") {
			t.Error("Vary header should include Origin for per-origin responses")
		}

		if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID") {
			t.Error("Access-Control-Expose-Headers should include X-Request-ID")
		}
	})

	t.Run("allows all origins with wildcard", func(t *testing.T) {
		cfg := config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
		}

		wrapped := CORSMiddleware(cfg)(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req.Header.Set("Origin", "https://any-origin.com")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		got := w.Header().Get("Access-Control-Allow-Origin")
		if got != "*" && got != "https://any-origin.com" {
			t.Errorf("Access-Control-Allow-Origin = %v, want '*' or matching origin", got)
		}
	})

	t.Run("handles preflight OPTIONS request", func(t *testing.T) {
		cfg := config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			MaxAge:         3600,
		}

		wrapped := CORSMiddleware(cfg)(handler)

		req := httptest.NewRequest(http.MethodOptions, "/api/keys", nil)
		req.Header.Set("Origin", "http://localhost:8484")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("Preflight should return 204, got %d", w.Code)
		}

		if w.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("Access-Control-Allow-Methods should be set for preflight")
		}

		if w.Header().Get("Access-Control-Allow-Headers") == "" {
			t.Error("Access-Control-Allow-Headers should be set for preflight")
		}

		if w.Header().Get("Access-Control-Max-Age") != "3600" {
			t.Errorf("Access-Control-Max-Age = %v, want 3600", w.Header().Get("Access-Control-Max-Age"))
		}
	})

	t.Run("blocks disallowed origin", func(t *testing.T) {
		cfg := config.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"http://localhost:8484"},
		}

		wrapped := CORSMiddleware(cfg)(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req.Header.Set("Origin", "https://evil.com")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		// Should not set CORS headers for disallowed origin
		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("Should not set CORS headers for disallowed origin")
		}
	})

	t.Run("skips CORS when disabled", func(t *testing.T) {
		cfg := config.CORSConfig{
			Enabled:        false,
			AllowedOrigins: []string{"*"},
		}

		wrapped := CORSMiddleware(cfg)(handler)

		req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
		req.Header.Set("Origin", "http://localhost:8484")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("Should not set CORS headers when disabled")
		}
	})
}

func BenchmarkCORSMiddleware(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cfg := config.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"http://localhost:8484"},
		MaxAge:         3600,
	}
	wrapped := CORSMiddleware(cfg)(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Origin", "http://localhost:8484")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
	}
}
