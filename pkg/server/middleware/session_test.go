package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/security/session"
)

func testSessionHandler(t *testing.T) (http.Handler, *session.Manager) {
	t.Helper()

	manager, err := session.NewManager(config.ConsoleConfig{
		Enabled:       true,
		Password:      "hunter2",
		SessionSecret: "middleware-test-session-secret",
		SessionTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	handler := SessionMiddleware(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	}))

	return handler, manager
}

// TestSessionMiddleware_MissingToken tests that protected paths reject
// requests without a token.
func TestSessionMiddleware_MissingToken(t *testing.T) {
	handler, _ := testSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Missing session token") {
		t.Errorf("Expected 'Missing session token' message, got: %s", body)
	}
	if !strings.Contains(body, "authentication_error") {
		t.Errorf("Expected error type 'authentication_error', got: %s", body)
	}
}

// TestSessionMiddleware_InvalidToken tests that garbage tokens are rejected.
func TestSessionMiddleware_InvalidToken(t *testing.T) {
	handler, _ := testSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer not-a-session-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), "Invalid or expired session") {
		t.Errorf("Expected 'Invalid or expired session' message, got: %s", w.Body.String())
	}
}

// TestSessionMiddleware_ValidBearerToken tests the normal console flow.
func TestSessionMiddleware_ValidBearerToken(t *testing.T) {
	handler, manager := testSessionHandler(t)

	token, _, err := manager.Login("hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "success" {
		t.Errorf("Expected body 'success', got %q", w.Body.String())
	}
}

// TestSessionMiddleware_QueryParameterToken tests the websocket fallback,
// where clients cannot set an Authorization header.
func TestSessionMiddleware_QueryParameterToken(t *testing.T) {
	handler, manager := testSessionHandler(t)

	token, _, err := manager.Login("hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/usage/live?token="+token, nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

// TestSessionMiddleware_LoginIsPublic tests that the login endpoint itself
// never requires a session.
func TestSessionMiddleware_LoginIsPublic(t *testing.T) {
	handler, _ := testSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

// TestSessionMiddleware_PublicPaths tests that non-API paths pass through.
func TestSessionMiddleware_PublicPaths(t *testing.T) {
	handler, _ := testSessionHandler(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ui/", "/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Path %s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestSessionProtected(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api", true},
		{"/api/usage", true},
		{"/api/keys", true},
		{"/api/keys/clt_abc123", true},
		{"/api/auth/login", false},
		{"/api/auth/claude/status", true},
		{"/healthz", false},
		{"/metrics", false},
		{"/ui/", false},
		{"/", false},
		{"/apiary", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := SessionProtected(tt.path); got != tt.want {
				t.Errorf("SessionProtected(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
