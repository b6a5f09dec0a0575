package auth

import (
	"context"

	"mercator-hq/callisto/pkg/keys"
)

// KeyStore is the slice of the key registry the middleware needs.
// *keys.Store satisfies it.
type KeyStore interface {
	// Authenticate verifies a presented plaintext key and returns the
	// matching record. Unknown or malformed keys fail with
	// keys.ErrInvalidKey.
	Authenticate(ctx context.Context, plaintext string) (*keys.Key, error)

	// Touch bumps the key's last-used timestamp and usage count.
	Touch(ctx context.Context, id string) error
}

// Metrics receives authentication outcomes. The telemetry collector
// satisfies it; a nil Metrics disables recording.
type Metrics interface {
	RecordKeyAuth(outcome string)
}
