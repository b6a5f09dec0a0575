// Package classify derives qualitative status levels for Claude usage
// quota windows and the monthly extra-usage budget.
//
// # Overview
//
// The upstream usage API reports, per rolling window (5-hour and 7-day),
// a utilization percentage and the timestamp at which the window resets.
// Classification compares "budget consumed" against "time consumed": a
// window whose quota is being spent faster than its time passes is over
// pace and will run out before the reset.
//
// # Burn Rate
//
// For an active window the burn rate is
//
//	burnRate = utilization / percentElapsed
//
// where percentElapsed is how much of the window's nominal duration has
// already passed, clamped to [0, 100]. A burn rate of 1.0 means quota and
// time are being consumed at exactly the same pace.
//
// # Status Levels
//
//   - green:  on track (burn rate <= 1.0)
//   - orange: up to 50% over pace (burn rate <= 1.5)
//   - red:    more than 50% over pace, or the quota is exhausted
//   - gray:   no active window, or a disabled/misconfigured budget
//
// # Thread Safety
//
// Classification is a pure function of its inputs and the supplied clock
// reading. There is no shared state; all functions are safe for concurrent
// use.
package classify
