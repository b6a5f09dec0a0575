// Package history persists usage snapshots for trend display.
//
// Every successful poll appends one row to the usage_snapshots table in
// the control database. The console reads a time range of rows to draw
// its utilization sparkline; the retention job prunes rows past the
// configured history window (default 14 days, one row per 30s poll
// keeps that around 40k rows).
//
// Reset times are stored as millisecond epochs with 0 meaning "no
// active session", mirroring the empty resets_at the upstream reports
// between sessions.
package history
