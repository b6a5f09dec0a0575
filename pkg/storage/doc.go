// Package storage opens the control-plane database.
//
// The control database (default data/callisto.db) holds the API key
// registry and the usage snapshot history. It is opened exactly once at
// startup; the keys and history stores attach their tables and prepared
// statements to the shared handle. Analytics rows live in a separate
// database (see pkg/analytics) because their write rate and retention
// differ.
//
// The file is opened in WAL mode with a busy timeout and a single
// connection, which is the safe arrangement for SQLite's one-writer
// model. A background loop checkpoints the WAL so the log stays small; a
// final truncating checkpoint runs on Close.
package storage
