package session

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mercator-hq/callisto/pkg/config"
)

// Subject identifies the single console principal. The console has one
// operator login, so every session token carries the same subject.
const Subject = "admin"

// DefaultTTL is the session lifetime when the configuration does not set
// one.
const DefaultTTL = 12 * time.Hour

// secretBytes is the random material for a per-boot session secret.
const secretBytes = 32

// ErrLoginDisabled is returned by Login when no console password is
// configured.
var ErrLoginDisabled = errors.New("console login is disabled: no password configured")

// ErrBadCredentials is returned by Login when the password does not match.
var ErrBadCredentials = errors.New("invalid password")

// ErrInvalidToken is returned by Verify for tokens that are malformed,
// expired, or not signed with the current secret.
var ErrInvalidToken = errors.New("invalid session token")

// Manager issues and verifies console session tokens (HS256 JWTs).
// Tokens signed with a generated per-boot secret do not survive a
// restart; configure session_secret to keep sessions across restarts.
type Manager struct {
	password string
	secret   []byte
	ttl      time.Duration

	// now is the clock, overridable in tests
	now func() time.Time
}

// NewManager creates a session manager from console configuration,
// generating a random signing secret when none is configured.
func NewManager(cfg config.ConsoleConfig) (*Manager, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, secretBytes)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Manager{
		password: cfg.Password,
		secret:   secret,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Enabled reports whether console login is possible at all.
func (m *Manager) Enabled() bool {
	return m.password != ""
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Login checks the operator password and issues a session token. The
// comparison is constant-time so response timing does not leak how much
// of the password matched.
func (m *Manager) Login(password string) (token string, expiresAt time.Time, err error) {
	if m.password == "" {
		return "", time.Time{}, ErrLoginDisabled
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) != 1 {
		return "", time.Time{}, ErrBadCredentials
	}
	return m.issue()
}

func (m *Manager) issue() (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses a session token and checks its signature, expiry, and
// subject. All failures collapse into ErrInvalidToken; callers answer
// 401 without distinguishing why.
func (m *Manager) Verify(tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject != Subject {
		return ErrInvalidToken
	}
	return nil
}
