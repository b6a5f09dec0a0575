package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mercator-hq/callisto/pkg/config"
)

func testConfig() config.ConsoleConfig {
	return config.ConsoleConfig{
		Enabled:       true,
		Password:      "hunter2",
		SessionSecret: "test-session-secret",
		SessionTTL:    time.Hour,
	}
}

func TestLogin_IssuesVerifiableToken(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Now()
	m.now = func() time.Time { return base }

	token, expiresAt, err := m.Login("hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if !expiresAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected expiry %s, got %s", base.Add(time.Hour), expiresAt)
	}

	if err := m.Verify(token); err != nil {
		t.Errorf("expected issued token to verify, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := m.Login("letmein"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
}

func TestLogin_DisabledWithoutPassword(t *testing.T) {
	cfg := testConfig()
	cfg.Password = ""

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Enabled() {
		t.Error("expected login to be disabled")
	}

	// Even the empty password must not log in.
	if _, _, err := m.Login(""); !errors.Is(err, ErrLoginDisabled) {
		t.Errorf("expected ErrLoginDisabled, got %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Issue a token that expired twelve hours ago.
	m.now = func() time.Time { return time.Now().Add(-13 * time.Hour) }

	token, _, err := m.Login("hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	m1, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := testConfig()
	other.SessionSecret = "a-different-secret"
	m2, err := NewManager(other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, _, err := m1.Login("hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m2.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestVerify_WrongSubject(t *testing.T) {
	cfg := testConfig()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Correctly signed, wrong subject.
	claims := jwt.RegisteredClaims{
		Subject:   "intruder",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong subject, got %v", err)
	}
}

func TestVerify_RejectsUnsignedToken(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims := jwt.RegisteredClaims{
		Subject:   Subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if err := m.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for alg=none token, got %v", err)
	}
}

func TestNewManager_GeneratedSecretsDiffer(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = ""

	m1, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m2, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A token from one boot must not verify on another.
	token, _, err := m1.Login("hunter2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m2.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected per-boot secrets to differ, got %v", err)
	}
}

func TestNewManager_DefaultTTL(t *testing.T) {
	cfg := testConfig()
	cfg.SessionTTL = 0

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.TTL() != DefaultTTL {
		t.Errorf("expected default TTL %s, got %s", DefaultTTL, m.TTL())
	}
}
