package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

const (
	// KeyPrefix starts every issued key. The data-plane middleware uses
	// it to cheaply reject tokens that cannot be callisto keys.
	KeyPrefix = "callisto-"

	// PrefixLength is how many plaintext characters are kept for
	// display. Enough to tell keys apart, useless for authentication.
	PrefixLength = 12

	// secretBytes is the random material per key.
	secretBytes = 32
)

// ErrNotFound is returned when no key exists with the given ID.
var ErrNotFound = errors.New("key not found")

// ErrInvalidKey is returned when a presented key does not authenticate.
var ErrInvalidKey = errors.New("invalid api key")

// Key is an issued data-plane API key. The plaintext is never stored:
// only its SHA-256 digest and a short display prefix survive creation.
type Key struct {
	// ID is the key's UUID.
	ID string `json:"id"`

	// Name is the operator-assigned label.
	Name string `json:"name"`

	// Prefix is the first PrefixLength characters of the plaintext,
	// shown in listings so operators can match keys to clients.
	Prefix string `json:"prefix"`

	// CreatedAt is when the key was issued.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the key last authenticated a request. Nil when
	// the key has never been used.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	// UsageCount is how many requests the key has authenticated.
	UsageCount int64 `json:"usage_count"`
}

// CreatedKey couples a stored key with its plaintext. The plaintext is
// returned exactly once, at creation; it cannot be recovered afterwards.
type CreatedKey struct {
	Key

	// Plaintext is the full key to hand to the client.
	Plaintext string `json:"key"`
}

// generateSecret returns a fresh plaintext key:
// callisto-<base64url of 32 random bytes>.
func generateSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate key material: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// digest hashes a plaintext key for storage and lookup.
func digest(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// displayPrefix returns the plaintext's display prefix.
func displayPrefix(plaintext string) string {
	if len(plaintext) <= PrefixLength {
		return plaintext
	}
	return plaintext[:PrefixLength]
}
