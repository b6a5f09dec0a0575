package usage

import "time"

// Snapshot is the decoded response of the upstream OAuth usage endpoint.
type Snapshot struct {
	// FiveHour is the short rolling quota window.
	FiveHour Window `json:"five_hour"`

	// SevenDay is the weekly rolling quota window.
	SevenDay Window `json:"seven_day"`

	// ExtraUsage is the monthly pay-per-use credit budget.
	ExtraUsage Extra `json:"extra_usage"`
}

// Window is one rolling quota window as reported upstream.
type Window struct {
	// Utilization is the percentage of the window's quota consumed.
	Utilization float64 `json:"utilization"`

	// ResetsAt is the RFC 3339 timestamp at which the quota resets.
	// Empty when no session is active in the window.
	ResetsAt string `json:"resets_at"`
}

// ResetTime parses ResetsAt. It returns the zero time when the field is
// empty or unparseable, which downstream classification reads as "no
// active window".
func (w Window) ResetTime() time.Time {
	if w.ResetsAt == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, w.ResetsAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Extra is the monthly extra-usage credit budget as reported upstream.
// Credit amounts are in cents.
type Extra struct {
	IsEnabled    bool    `json:"is_enabled"`
	MonthlyLimit float64 `json:"monthly_limit"`
	UsedCredits  float64 `json:"used_credits"`
	Utilization  float64 `json:"utilization"`
}
