// Package retention prunes aged rows from the usage and snapshot
// history databases on a cron schedule.
//
// The schedule uses standard 5-field cron syntax and defaults to daily
// at 3 AM. Retention windows come from configuration: usage rollups
// default to 90 days, snapshot history to 14. Either phase can be
// disabled by setting its window to zero.
package retention
