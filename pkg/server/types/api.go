package types

import (
	"time"

	"mercator-hq/callisto/pkg/analytics"
)

// ServerStatus is the GET /api/server/status response.
type ServerStatus struct {
	// Running is always true when the endpoint answers; the console also
	// uses a failed fetch to mean "down".
	Running bool `json:"running"`

	// BindAddress is the host the server listens on.
	BindAddress string `json:"bind_address"`

	// Port is the port the server listens on.
	Port int `json:"port"`

	// UptimeSeconds is how long the server has been up.
	UptimeSeconds float64 `json:"uptime_seconds"`

	// UptimeFormatted is UptimeSeconds rendered as "2h 15m 30s".
	UptimeFormatted string `json:"uptime_formatted"`

	// Version is the build version.
	Version string `json:"version"`
}

// LoginRequest is the POST /api/auth/login request body.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries a freshly issued console session token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CreateKeyRequest is the POST /api/keys request body.
type CreateKeyRequest struct {
	Name string `json:"name"`
}

// RenameKeyRequest is the PATCH /api/keys/{keyID} request body.
type RenameKeyRequest struct {
	Name string `json:"name"`
}

// KeyUsage is the GET /api/keys/{keyID}/usage response: one key's
// aggregates, per-model breakdown, and hourly/daily buckets, all with
// estimated costs.
type KeyUsage struct {
	Summary analytics.Summary      `json:"summary"`
	ByModel []analytics.ModelUsage `json:"by_model"`
	Hourly  []analytics.Bucket     `json:"hourly"`
	Daily   []analytics.Bucket     `json:"daily"`
}

// HistoryEntry is one persisted snapshot in GET /api/usage/history.
// Reset times are omitted when the window had no active session.
type HistoryEntry struct {
	CapturedAt          time.Time  `json:"captured_at"`
	FiveHourUtilization float64    `json:"five_hour_utilization"`
	FiveHourResetsAt    *time.Time `json:"five_hour_resets_at,omitempty"`
	SevenDayUtilization float64    `json:"seven_day_utilization"`
	SevenDayResetsAt    *time.Time `json:"seven_day_resets_at,omitempty"`
	ExtraEnabled        bool       `json:"extra_enabled"`
	ExtraUsed           float64    `json:"extra_used"`
	ExtraLimit          float64    `json:"extra_limit"`
}

// HistoryResponse is the GET /api/usage/history response.
type HistoryResponse struct {
	// Hours is the window actually served, after clamping.
	Hours int `json:"hours"`

	// Entries are the snapshots captured within the window, oldest first.
	Entries []HistoryEntry `json:"entries"`
}
