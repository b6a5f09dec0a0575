//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/security/auth"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/security/session"
	"mercator-hq/callisto/pkg/server/middleware"
	"mercator-hq/callisto/pkg/storage"
)

// TestSessionAuthenticationIntegration tests end-to-end console session
// authentication: login, token verification, and path gating.
func TestSessionAuthenticationIntegration(t *testing.T) {
	manager, err := session.NewManager(config.ConsoleConfig{
		Password:      "integration-pw",
		SessionSecret: "integration-session-secret",
		SessionTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	token, expiresAt, err := manager.Login("integration-pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatal("login returned an empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Errorf("expiry %v should be in the future", expiresAt)
	}

	handler := middleware.SessionMiddleware(manager)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}))

	server := httptest.NewServer(handler)
	defer server.Close()

	tests := []struct {
		name         string
		path         string
		bearer       string
		query        string
		expectStatus int
	}{
		{
			name:         "valid bearer token",
			path:         "/api/usage",
			bearer:       token,
			expectStatus: http.StatusOK,
		},
		{
			name:         "valid query token",
			path:         "/api/usage/live",
			query:        token,
			expectStatus: http.StatusOK,
		},
		{
			name:         "garbage token",
			path:         "/api/usage",
			bearer:       "not-a-jwt",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "missing token",
			path:         "/api/usage",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "login path needs no token",
			path:         "/api/auth/login",
			expectStatus: http.StatusOK,
		},
		{
			name:         "health path needs no token",
			path:         "/healthz",
			expectStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := server.URL + tt.path
			if tt.query != "" {
				url += "?token=" + tt.query
			}

			req, _ := http.NewRequest("GET", url, nil)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectStatus)
			}
		})
	}
}

// TestSessionLifecycleIntegration tests token expiry and secret
// isolation across managers.
func TestSessionLifecycleIntegration(t *testing.T) {
	// Disabled login
	disabled, err := session.NewManager(config.ConsoleConfig{})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if _, _, err := disabled.Login("anything"); !errors.Is(err, session.ErrLoginDisabled) {
		t.Errorf("Login without password = %v, want ErrLoginDisabled", err)
	}

	// Wrong password
	manager, err := session.NewManager(config.ConsoleConfig{
		Password:      "right",
		SessionSecret: "secret-a",
		SessionTTL:    time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if _, _, err := manager.Login("wrong"); !errors.Is(err, session.ErrBadCredentials) {
		t.Errorf("Login with wrong password = %v, want ErrBadCredentials", err)
	}

	token, _, err := manager.Login("right")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := manager.Verify(token); err != nil {
		t.Errorf("fresh token should verify: %v", err)
	}

	// A manager with a different secret must reject the token.
	other, err := session.NewManager(config.ConsoleConfig{
		Password:      "right",
		SessionSecret: "secret-b",
	})
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	if err := other.Verify(token); !errors.Is(err, session.ErrInvalidToken) {
		t.Errorf("cross-secret Verify = %v, want ErrInvalidToken", err)
	}

	// Wait out the 1s TTL.
	time.Sleep(1500 * time.Millisecond)
	if err := manager.Verify(token); !errors.Is(err, session.ErrInvalidToken) {
		t.Errorf("expired token Verify = %v, want ErrInvalidToken", err)
	}
}

// TestAPIKeyAuthenticationIntegration tests end-to-end data-plane key
// authentication against a real key store.
func TestAPIKeyAuthenticationIntegration(t *testing.T) {
	store := openTestKeyStore(t)

	created, err := store.Create(context.Background(), "integration-key")
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	authMiddleware := auth.NewMiddleware(store, nil)

	var capturedKey *keys.Key
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key, ok := auth.GetKeyInfo(r.Context()); ok {
			capturedKey = key
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := httptest.NewServer(authMiddleware.Handle(handler))
	defer server.Close()

	tests := []struct {
		name         string
		path         string
		header       string
		headerValue  string
		expectStatus int
		expectKeyID  string
	}{
		{
			name:         "valid bearer key",
			path:         "/v1/messages",
			header:       "Authorization",
			headerValue:  "Bearer " + created.Plaintext,
			expectStatus: http.StatusOK,
			expectKeyID:  created.ID,
		},
		{
			name:         "valid custom header",
			path:         "/v1/messages",
			header:       "X-API-Key",
			headerValue:  created.Plaintext,
			expectStatus: http.StatusOK,
			expectKeyID:  created.ID,
		},
		{
			name:         "foreign token prefix",
			path:         "/v1/messages",
			header:       "Authorization",
			headerValue:  "Bearer sk-ant-oat01-something",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "unknown key with issued prefix",
			path:         "/v1/messages",
			header:       "Authorization",
			headerValue:  "Bearer " + keys.KeyPrefix + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "missing key",
			path:         "/v1/messages",
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "unprotected path",
			path:         "/healthz",
			expectStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capturedKey = nil

			req, _ := http.NewRequest("GET", server.URL+tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.headerValue)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectStatus)
			}

			if tt.expectKeyID != "" {
				if capturedKey == nil {
					t.Error("key record not in request context")
				} else if capturedKey.ID != tt.expectKeyID {
					t.Errorf("key ID = %q, want %q", capturedKey.ID, tt.expectKeyID)
				}
			}

			if tt.expectStatus == http.StatusUnauthorized {
				var envelope struct {
					Error struct {
						Type    string `json:"type"`
						Message string `json:"message"`
					} `json:"error"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
					t.Fatalf("failed to decode error envelope: %v", err)
				}
				if envelope.Error.Type != "authentication_error" {
					t.Errorf("error type = %q, want authentication_error", envelope.Error.Type)
				}
			}
		})
	}

	// Revocation takes effect on the next request.
	if err := store.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("failed to delete key: %v", err)
	}

	req, _ := http.NewRequest("GET", server.URL+"/v1/messages", nil)
	req.Header.Set("Authorization", "Bearer "+created.Plaintext)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("deleted key status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

// TestCredentialFileIntegration tests credential loading against the
// file states the source has to cope with: absent, wrong permissions,
// valid, and expired.
func TestCredentialFileIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.json")
	ctx := context.Background()

	source, err := credentials.NewSource(credPath, false)
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}
	defer source.Close()

	// Absent file
	if _, err := source.Token(ctx); !errors.Is(err, credentials.ErrNoCredential) {
		t.Errorf("Token with absent file = %v, want ErrNoCredential", err)
	}
	if status := source.Status(); status.HasTokens {
		t.Error("Status with absent file should report no tokens")
	}

	// World-readable file is refused outright
	writeCredential(t, credPath, "loose-token", time.Now().Add(time.Hour), 0644)
	if _, err := source.Token(ctx); err == nil {
		t.Error("Token should fail for a world-readable credential file")
	} else if errors.Is(err, credentials.ErrNoCredential) {
		t.Errorf("permission failure should not read as ErrNoCredential: %v", err)
	}

	// Tightening the permissions makes the same file usable
	if err := os.Chmod(credPath, 0600); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}
	token, err := source.Token(ctx)
	if err != nil {
		t.Fatalf("Token with valid file failed: %v", err)
	}
	if token != "loose-token" {
		t.Errorf("token = %q, want %q", token, "loose-token")
	}

	status := source.Status()
	if !status.HasTokens {
		t.Error("Status should report tokens")
	}
	if status.IsExpired {
		t.Error("Status should not report expired")
	}

	// Expired credential
	writeCredential(t, credPath, "old-token", time.Now().Add(-time.Hour), 0600)
	if _, err := source.Token(ctx); !errors.Is(err, credentials.ErrExpired) {
		t.Errorf("Token with expired file = %v, want ErrExpired", err)
	}
	if status := source.Status(); !status.IsExpired {
		t.Error("Status should report expired")
	}
}

// TestCredentialRotationIntegration tests that a watching source picks
// up a rewritten credential file without a restart.
func TestCredentialRotationIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	credPath := filepath.Join(tmpDir, "credentials.json")

	writeCredential(t, credPath, "token-v1", time.Now().Add(time.Hour), 0600)

	source, err := credentials.NewSource(credPath, true)
	if err != nil {
		t.Fatalf("failed to create watching source: %v", err)
	}
	defer source.Close()

	ctx := context.Background()
	token, err := source.Token(ctx)
	if err != nil {
		t.Fatalf("initial Token failed: %v", err)
	}
	if token != "token-v1" {
		t.Errorf("initial token = %q, want token-v1", token)
	}

	// Rotate the way the CLI does: write a fresh file into place.
	writeCredential(t, credPath, "token-v2", time.Now().Add(time.Hour), 0600)

	deadline := time.Now().Add(5 * time.Second)
	for {
		token, err = source.Token(ctx)
		if err == nil && token == "token-v2" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("rotated token never picked up: token=%q err=%v", token, err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Log("Credential rotation picked up by watcher")
}

// TestPlaneSeparationIntegration tests that console sessions and API
// keys stay confined to their own planes on a shared router: a session
// token opens /api but not /v1, an API key opens /v1 but not /api.
func TestPlaneSeparationIntegration(t *testing.T) {
	store := openTestKeyStore(t)

	created, err := store.Create(context.Background(), "separation-key")
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	sessions, err := session.NewManager(config.ConsoleConfig{
		Password:      "integration-pw",
		SessionSecret: "integration-session-secret",
	})
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	sessionToken, _, err := sessions.Login("integration-pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	authMiddleware := auth.NewMiddleware(store, nil)

	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware(sessions))
	r.Use(authMiddleware.Handle)
	r.Get("/api/usage", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("management"))
	})
	r.Post("/v1/messages", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("data"))
	})

	server := httptest.NewServer(r)
	defer server.Close()

	tests := []struct {
		name         string
		method       string
		path         string
		bearer       string
		expectStatus int
	}{
		{
			name:         "session token reaches management API",
			method:       "GET",
			path:         "/api/usage",
			bearer:       sessionToken,
			expectStatus: http.StatusOK,
		},
		{
			name:         "session token rejected on data plane",
			method:       "POST",
			path:         "/v1/messages",
			bearer:       sessionToken,
			expectStatus: http.StatusUnauthorized,
		},
		{
			name:         "API key reaches data plane",
			method:       "POST",
			path:         "/v1/messages",
			bearer:       created.Plaintext,
			expectStatus: http.StatusOK,
		},
		{
			name:         "API key rejected on management API",
			method:       "GET",
			path:         "/api/usage",
			bearer:       created.Plaintext,
			expectStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, server.URL+tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.bearer)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.expectStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectStatus)
			}
		})
	}
}

// Helper functions

// openTestKeyStore opens a key store on a temp control database.
func openTestKeyStore(t *testing.T) *keys.Store {
	t.Helper()

	tmpDir := t.TempDir()
	control, err := storage.OpenControl(config.StorageConfig{
		ControlPath: filepath.Join(tmpDir, "control.db"),
	})
	if err != nil {
		t.Fatalf("failed to open control database: %v", err)
	}
	t.Cleanup(func() { control.Close() })

	store, err := keys.NewStore(control.DB())
	if err != nil {
		t.Fatalf("failed to create key store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

// writeCredential writes a Claude CLI credential file with the given
// token, expiry, and permissions.
func writeCredential(t *testing.T, path, token string, expiresAt time.Time, perm os.FileMode) {
	t.Helper()

	payload := fmt.Sprintf(`{"claudeAiOauth":{"accessToken":%q,"expiresAt":%d,"subscriptionType":"max"}}`,
		token, expiresAt.UnixMilli())
	if err := os.WriteFile(path, []byte(payload), perm); err != nil {
		t.Fatalf("failed to write credential file: %v", err)
	}
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("failed to chmod credential file: %v", err)
	}
}
