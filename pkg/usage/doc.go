// Package usage defines the wire types of the Claude usage API and the
// classified reports the admin console renders.
//
// A Snapshot is the decoded upstream payload: utilization and reset time
// for the 5-hour and 7-day rolling windows plus the monthly extra-usage
// budget. BuildReport turns a snapshot into a Report by running each
// window and the budget through pkg/usage/classify, attaching status
// levels and burn rates for display.
package usage
