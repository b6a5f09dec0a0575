package analytics

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the usage database schema.
const Schema = `
-- Hourly usage rollups, one row per key/model/hour
CREATE TABLE IF NOT EXISTS usage_hourly (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    key_id TEXT NOT NULL,
    model TEXT NOT NULL,
    hour_timestamp INTEGER NOT NULL,

    -- Token counters
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    cache_read_tokens INTEGER NOT NULL DEFAULT 0,
    cache_creation_tokens INTEGER NOT NULL DEFAULT 0,
    request_count INTEGER NOT NULL DEFAULT 0,

    -- Bookkeeping (unix milliseconds)
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    UNIQUE(key_id, model, hour_timestamp)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_usage_hourly_key_hour ON usage_hourly(key_id, hour_timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_hourly_hour ON usage_hourly(hour_timestamp);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
