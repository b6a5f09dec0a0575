package credentials

import (
	"errors"
	"fmt"
	"time"
)

// Errors returned when no usable access token is available.
var (
	// ErrNoCredential indicates the credential file is missing or holds
	// no access token.
	ErrNoCredential = errors.New("no OAuth credential available")

	// ErrExpired indicates the stored access token has expired.
	ErrExpired = errors.New("OAuth credential expired")
)

// OAuth is the credential material written by the Claude CLI.
type OAuth struct {
	// AccessToken is the bearer token presented to the usage API.
	AccessToken string `json:"accessToken"`

	// RefreshToken is stored by the CLI for its own refresh flow. It is
	// never used here; re-authentication happens through the CLI.
	RefreshToken string `json:"refreshToken,omitempty"`

	// ExpiresAt is the token expiry as Unix milliseconds.
	ExpiresAt int64 `json:"expiresAt,omitempty"`

	// Scopes lists the granted OAuth scopes.
	Scopes []string `json:"scopes,omitempty"`

	// SubscriptionType is the plan the token belongs to (e.g. "max").
	SubscriptionType string `json:"subscriptionType,omitempty"`
}

// File is the on-disk credential file layout.
type File struct {
	ClaudeAiOauth OAuth `json:"claudeAiOauth"`
}

// ExpiryTime returns the token expiry, or the zero time when unknown.
func (o OAuth) ExpiryTime() time.Time {
	if o.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(o.ExpiresAt)
}

// Expired reports whether the token expiry has passed. Tokens without
// an expiry are treated as live; the upstream rejects them if not.
func (o OAuth) Expired(now time.Time) bool {
	expiry := o.ExpiryTime()
	if expiry.IsZero() {
		return false
	}
	return !expiry.After(now)
}

// Status is the read-only credential summary served to the console. It
// never carries token material.
type Status struct {
	HasTokens       bool   `json:"has_tokens"`
	IsExpired       bool   `json:"is_expired"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	TimeUntilExpiry string `json:"time_until_expiry,omitempty"`
	TokenType       string `json:"token_type,omitempty"`
}

// statusFor builds the Status for a loaded credential at a point in time.
func statusFor(oauth OAuth, now time.Time) Status {
	if oauth.AccessToken == "" {
		return Status{IsExpired: true}
	}

	st := Status{
		HasTokens: true,
		IsExpired: oauth.Expired(now),
		TokenType: "Bearer",
	}

	if expiry := oauth.ExpiryTime(); !expiry.IsZero() {
		st.ExpiresAt = expiry.UTC().Format(time.RFC3339)
		if !st.IsExpired {
			st.TimeUntilExpiry = formatDuration(expiry.Sub(now))
		}
	}

	return st
}

// formatDuration renders a duration as "2h15m" / "45m" / "30s" for the
// console, dropping zero components.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
