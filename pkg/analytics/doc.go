// Package analytics tracks token usage per API key.
//
// Usage is rolled up into hourly rows keyed by (key, model, hour) in a
// dedicated SQLite database, kept separate from the control database so
// high-frequency accounting writes never contend with key management.
// Recording goes through Recorder, which swallows and logs failures;
// a broken usage database must not take request serving down with it.
//
// Queries aggregate the rollups into per-key summaries, per-model
// breakdowns, and hourly or daily time series. Dollar costs are
// estimated on the way out using the pricing subpackage, never stored,
// so rate corrections apply retroactively.
package analytics
