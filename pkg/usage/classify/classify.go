package classify

import "time"

// Nominal durations of the rolling quota windows reported by the usage API.
const (
	FiveHourWindow = 5 * time.Hour
	SevenDayWindow = 7 * 24 * time.Hour
)

// Burn-rate thresholds. At or below onPaceLimit the window is healthy;
// between the two it is over pace but recoverable; above overPaceLimit the
// quota will run out well before the reset.
const (
	onPaceLimit   = 1.0
	overPaceLimit = 1.5
)

// Extra-usage thresholds, in percent of the monthly credit limit.
const (
	extraGreenBelow  = 50.0
	extraOrangeBelow = 80.0
)

// Result is the classification outcome for one rolling quota window.
type Result struct {
	// Status is the derived consumption level.
	Status Status

	// BurnRate is utilization divided by percent of window time elapsed.
	// Zero when no time has elapsed or the window is inactive/exhausted.
	BurnRate float64

	// PercentElapsed is how much of the window's nominal duration has
	// passed, in [0, 100]. Zero for inactive/exhausted windows.
	PercentElapsed float64
}

// ExtraUsage describes the monthly extra-usage credit budget as reported
// by the usage API. Credit amounts are in cents.
type ExtraUsage struct {
	IsEnabled    bool
	UsedCredits  float64
	MonthlyLimit float64
}

// ExtraResult is the classification outcome for the extra-usage budget.
type ExtraResult struct {
	// Status is the derived consumption level.
	Status Status

	// PercentUsed is UsedCredits as a percentage of MonthlyLimit.
	// Zero when the budget is disabled or misconfigured.
	PercentUsed float64
}

// Window classifies a rolling quota window.
//
// utilization is the percentage of quota already consumed (0-100, though
// values above 100 are accepted). resetsAt is the instant the window's
// quota resets; the zero time means there is no active window.
// windowDuration is the window's nominal total length (FiveHourWindow or
// SevenDayWindow for the standard windows). now is the clock reading the
// classification is relative to.
//
// Every input maps to a defined status; degenerate values (zero or
// negative durations, resets in the past) degrade to gray or green rather
// than failing.
func Window(utilization float64, resetsAt time.Time, windowDuration time.Duration, now time.Time) Result {
	if resetsAt.IsZero() || !resetsAt.After(now) {
		return Result{Status: StatusGray}
	}
	if utilization >= 100 {
		return Result{Status: StatusRed}
	}

	elapsed := percentElapsed(resetsAt, windowDuration, now)

	// At the very start of a window nothing has been consumed relative to
	// time, so the pace cannot be over.
	var burnRate float64
	if elapsed > 0 {
		burnRate = utilization / elapsed
	}

	status := StatusRed
	switch {
	case burnRate <= onPaceLimit:
		status = StatusGreen
	case burnRate <= overPaceLimit:
		status = StatusOrange
	}

	return Result{Status: status, BurnRate: burnRate, PercentElapsed: elapsed}
}

// Extra classifies the monthly extra-usage credit budget. A disabled
// budget, or one with a non-positive monthly limit, is gray.
func Extra(e ExtraUsage) ExtraResult {
	if !e.IsEnabled {
		return ExtraResult{Status: StatusGray}
	}
	if e.MonthlyLimit <= 0 {
		return ExtraResult{Status: StatusGray}
	}

	percentUsed := e.UsedCredits / e.MonthlyLimit * 100

	status := StatusRed
	switch {
	case percentUsed < extraGreenBelow:
		status = StatusGreen
	case percentUsed < extraOrangeBelow:
		status = StatusOrange
	}

	return ExtraResult{Status: status, PercentUsed: percentUsed}
}

// percentElapsed converts the time remaining until reset into the percent
// of the window already consumed, clamped to [0, 100]. Clock skew or a
// nominal duration shorter than the true window puts the raw value outside
// that range; clamping keeps reported rates finite.
func percentElapsed(resetsAt time.Time, windowDuration time.Duration, now time.Time) float64 {
	if windowDuration <= 0 {
		return 0
	}

	remaining := resetsAt.Sub(now)
	elapsed := float64(windowDuration-remaining) / float64(windowDuration) * 100

	switch {
	case elapsed < 0:
		return 0
	case elapsed > 100:
		return 100
	}
	return elapsed
}
