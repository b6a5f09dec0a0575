package usage

import (
	"time"

	"mercator-hq/callisto/pkg/usage/classify"
)

// Report is the console-facing view of a snapshot: the raw window figures
// joined with their classification results.
type Report struct {
	FiveHour   WindowReport `json:"five_hour"`
	SevenDay   WindowReport `json:"seven_day"`
	ExtraUsage ExtraReport  `json:"extra_usage"`

	// FetchedAt is when the underlying snapshot was retrieved upstream.
	FetchedAt time.Time `json:"fetched_at"`

	// Stale is set when the snapshot is older than the caller's staleness
	// horizon, so the console can dim the badges.
	Stale bool `json:"stale"`
}

// WindowReport is one classified quota window.
type WindowReport struct {
	Utilization    float64         `json:"utilization"`
	ResetsAt       string          `json:"resets_at,omitempty"`
	Status         classify.Status `json:"status"`
	BurnRate       float64         `json:"burn_rate"`
	PercentElapsed float64         `json:"percent_elapsed"`
}

// ExtraReport is the classified monthly credit budget.
type ExtraReport struct {
	IsEnabled    bool            `json:"is_enabled"`
	MonthlyLimit float64         `json:"monthly_limit"`
	UsedCredits  float64         `json:"used_credits"`
	PercentUsed  float64         `json:"percent_used"`
	Status       classify.Status `json:"status"`
}

// BuildReport classifies every window of a snapshot relative to now.
// fetchedAt is when the snapshot was retrieved; a snapshot older than
// staleAfter is flagged stale (staleAfter <= 0 disables the flag).
func BuildReport(snap Snapshot, fetchedAt, now time.Time, staleAfter time.Duration) Report {
	return Report{
		FiveHour:   buildWindowReport(snap.FiveHour, classify.FiveHourWindow, now),
		SevenDay:   buildWindowReport(snap.SevenDay, classify.SevenDayWindow, now),
		ExtraUsage: buildExtraReport(snap.ExtraUsage),
		FetchedAt:  fetchedAt,
		Stale:      staleAfter > 0 && !fetchedAt.IsZero() && now.Sub(fetchedAt) > staleAfter,
	}
}

func buildWindowReport(w Window, duration time.Duration, now time.Time) WindowReport {
	res := classify.Window(w.Utilization, w.ResetTime(), duration, now)
	return WindowReport{
		Utilization:    w.Utilization,
		ResetsAt:       w.ResetsAt,
		Status:         res.Status,
		BurnRate:       res.BurnRate,
		PercentElapsed: res.PercentElapsed,
	}
}

func buildExtraReport(e Extra) ExtraReport {
	res := classify.Extra(classify.ExtraUsage{
		IsEnabled:    e.IsEnabled,
		UsedCredits:  e.UsedCredits,
		MonthlyLimit: e.MonthlyLimit,
	})
	return ExtraReport{
		IsEnabled:    e.IsEnabled,
		MonthlyLimit: e.MonthlyLimit,
		UsedCredits:  e.UsedCredits,
		PercentUsed:  res.PercentUsed,
		Status:       res.Status,
	}
}
