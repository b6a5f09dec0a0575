package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/callisto/pkg/analytics/pricing"
	"mercator-hq/callisto/pkg/config"
)

const (
	defaultAnalyticsPath = "data/usage.db"
	defaultBusyTimeout   = 5 * time.Second

	maxOpenConns = 10
	maxIdleConns = 5

	// unknownModel buckets rows whose upstream response carried no
	// model ID.
	unknownModel = "unknown"

	defaultHourlyBuckets = 24
	maxHourlyBuckets     = 168

	defaultDailyBuckets = 30
	maxDailyBuckets     = 365
)

// Usage aliases the pricing package's token counts so callers hand the
// same struct to recording and estimation.
type Usage = pricing.Usage

// Summary aggregates everything recorded for one key.
type Summary struct {
	KeyID         string       `json:"key_id"`
	Usage         Usage        `json:"usage"`
	Requests      int64        `json:"requests"`
	Cost          pricing.Cost `json:"cost"`
	FirstActivity *time.Time   `json:"first_activity,omitempty"`
	LastActivity  *time.Time   `json:"last_activity,omitempty"`
}

// ModelUsage is one model's aggregated usage for a key.
type ModelUsage struct {
	Model       string       `json:"model"`
	DisplayName string       `json:"display_name"`
	Usage       Usage        `json:"usage"`
	Requests    int64        `json:"requests"`
	Cost        pricing.Cost `json:"cost"`
}

// Bucket is usage aggregated into one time bucket (an hour or a day,
// depending on the query). Start is the bucket's opening instant, UTC.
type Bucket struct {
	Start    time.Time    `json:"start"`
	Usage    Usage        `json:"usage"`
	Requests int64        `json:"requests"`
	Cost     pricing.Cost `json:"cost"`
}

// Store persists per-key token usage as hourly rollups in its own
// SQLite database, separate from the control database. One row per
// key/model/hour; repeated requests within the hour increment the
// row's counters in place.
//
// Costs are never stored. They are estimated at query time from the
// current pricing table, so a rate correction reprices history too.
type Store struct {
	db     *sql.DB
	prices *pricing.Table
	logger *slog.Logger

	mu          sync.RWMutex
	upsertStmt  *sql.Stmt
	summaryStmt *sql.Stmt
	byModelStmt *sql.Stmt
	hourlyStmt  *sql.Stmt
	dailyStmt   *sql.Stmt
	deleteStmt  *sql.Stmt
	pruneStmt   *sql.Stmt

	// now is replaceable for tests.
	now func() time.Time
}

// Open opens (creating if necessary) the usage database and prepares
// its statements. A nil pricing table falls back to built-in rates.
func Open(cfg config.StorageConfig, prices *pricing.Table) (*Store, error) {
	if prices == nil {
		prices = pricing.Default()
	}

	path := cfg.AnalyticsPath
	if path == "" {
		path = defaultAnalyticsPath
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	s := &Store{
		db:     db,
		prices: prices,
		logger: slog.Default().With("component", "analytics"),
		now:    time.Now,
	}

	if err := s.initialize(busyTimeout); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("usage store initialized", "path", path)

	return s, nil
}

// initialize sets up WAL mode, the schema, and the schema version row.
func (s *Store) initialize(busyTimeout time.Duration) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: expected %d, got %d", SchemaVersion, version)
	}

	return nil
}

// prepareStatements prepares all statements used by the store.
func (s *Store) prepareStatements() error {
	stmts := []struct {
		dst  **sql.Stmt
		name string
		sql  string
	}{
		{&s.upsertStmt, "upsert", `
			INSERT INTO usage_hourly (
				key_id, model, hour_timestamp,
				input_tokens, output_tokens, cache_read_tokens, cache_creation_tokens,
				request_count, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
			ON CONFLICT(key_id, model, hour_timestamp) DO UPDATE SET
				input_tokens = input_tokens + excluded.input_tokens,
				output_tokens = output_tokens + excluded.output_tokens,
				cache_read_tokens = cache_read_tokens + excluded.cache_read_tokens,
				cache_creation_tokens = cache_creation_tokens + excluded.cache_creation_tokens,
				request_count = request_count + 1,
				updated_at = excluded.updated_at`},
		{&s.summaryStmt, "summary", `
			SELECT model,
				SUM(input_tokens), SUM(output_tokens),
				SUM(cache_read_tokens), SUM(cache_creation_tokens),
				SUM(request_count), MIN(created_at), MAX(updated_at)
			FROM usage_hourly
			WHERE key_id = ?
			GROUP BY model`},
		{&s.byModelStmt, "by_model", `
			SELECT model,
				SUM(input_tokens), SUM(output_tokens),
				SUM(cache_read_tokens), SUM(cache_creation_tokens),
				SUM(request_count)
			FROM usage_hourly
			WHERE key_id = ?
			GROUP BY model
			ORDER BY SUM(request_count) DESC, model ASC`},
		{&s.hourlyStmt, "hourly", `
			SELECT hour_timestamp, model,
				input_tokens, output_tokens, cache_read_tokens, cache_creation_tokens,
				request_count
			FROM usage_hourly
			WHERE key_id = ? AND hour_timestamp >= ?
			ORDER BY hour_timestamp ASC, model ASC`},
		{&s.dailyStmt, "daily", `
			SELECT (hour_timestamp / 86400) * 86400 AS day_timestamp, model,
				SUM(input_tokens), SUM(output_tokens),
				SUM(cache_read_tokens), SUM(cache_creation_tokens),
				SUM(request_count)
			FROM usage_hourly
			WHERE key_id = ? AND hour_timestamp >= ?
			GROUP BY day_timestamp, model
			ORDER BY day_timestamp ASC, model ASC`},
		{&s.deleteStmt, "delete_key", `
			DELETE FROM usage_hourly WHERE key_id = ?`},
		{&s.pruneStmt, "prune", `
			DELETE FROM usage_hourly WHERE hour_timestamp < ?`},
	}

	for _, stmt := range stmts {
		prepared, err := s.db.Prepare(stmt.sql)
		if err != nil {
			return fmt.Errorf("failed to prepare %s statement: %w", stmt.name, err)
		}
		*stmt.dst = prepared
	}

	return nil
}

// Add records one request's usage into the current hour's rollup row.
// An empty model is bucketed as "unknown".
func (s *Store) Add(ctx context.Context, keyID, model string, u Usage) error {
	if keyID == "" {
		return fmt.Errorf("key id is empty")
	}
	if model == "" {
		model = unknownModel
	}

	now := s.now().UTC()
	hour := now.Truncate(time.Hour).Unix()
	ms := now.UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.upsertStmt.ExecContext(ctx, keyID, model, hour,
		u.InputTokens, u.OutputTokens, u.CacheReadTokens, u.CacheCreationTokens,
		ms, ms)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

// Summary returns the all-time totals for a key. A key with no recorded
// usage gets a zero summary, not an error.
func (s *Store) Summary(ctx context.Context, keyID string) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.summaryStmt.QueryContext(ctx, keyID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query usage summary: %w", err)
	}
	defer rows.Close()

	sum := Summary{KeyID: keyID}
	var firstMs, lastMs int64

	for rows.Next() {
		var model string
		var u Usage
		var requests, created, updated int64
		if err := rows.Scan(&model,
			&u.InputTokens, &u.OutputTokens, &u.CacheReadTokens, &u.CacheCreationTokens,
			&requests, &created, &updated); err != nil {
			return Summary{}, fmt.Errorf("failed to scan summary row: %w", err)
		}

		sum.Usage = sum.Usage.Add(u)
		sum.Requests += requests
		sum.Cost = sum.Cost.Add(s.prices.Estimate(model, u))

		if firstMs == 0 || created < firstMs {
			firstMs = created
		}
		if updated > lastMs {
			lastMs = updated
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("failed to read summary rows: %w", err)
	}

	if firstMs > 0 {
		t := time.UnixMilli(firstMs).UTC()
		sum.FirstActivity = &t
	}
	if lastMs > 0 {
		t := time.UnixMilli(lastMs).UTC()
		sum.LastActivity = &t
	}

	return sum, nil
}

// ByModel returns a key's usage grouped by model, busiest model first.
func (s *Store) ByModel(ctx context.Context, keyID string) ([]ModelUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.byModelStmt.QueryContext(ctx, keyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage by model: %w", err)
	}
	defer rows.Close()

	var models []ModelUsage
	for rows.Next() {
		var m ModelUsage
		if err := rows.Scan(&m.Model,
			&m.Usage.InputTokens, &m.Usage.OutputTokens,
			&m.Usage.CacheReadTokens, &m.Usage.CacheCreationTokens,
			&m.Requests); err != nil {
			return nil, fmt.Errorf("failed to scan model row: %w", err)
		}
		m.DisplayName = pricing.DisplayName(m.Model)
		m.Cost = s.prices.Estimate(m.Model, m.Usage)
		models = append(models, m)
	}
	return models, rows.Err()
}

// Hourly returns per-hour buckets for the key's last n hours, oldest
// first, including the in-progress hour. n is clamped to 1..168 and
// defaults to 24; hours with no usage produce no bucket.
func (s *Store) Hourly(ctx context.Context, keyID string, n int) ([]Bucket, error) {
	n = clampBuckets(n, defaultHourlyBuckets, maxHourlyBuckets)
	since := s.now().UTC().Truncate(time.Hour).Add(-time.Duration(n-1) * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.hourlyStmt.QueryContext(ctx, keyID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly usage: %w", err)
	}
	defer rows.Close()

	return s.foldBuckets(rows)
}

// Daily returns per-day (UTC) buckets for the key's last n days, oldest
// first, including today. n is clamped to 1..365 and defaults to 30.
func (s *Store) Daily(ctx context.Context, keyID string, n int) ([]Bucket, error) {
	n = clampBuckets(n, defaultDailyBuckets, maxDailyBuckets)
	since := s.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(n - 1))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.dailyStmt.QueryContext(ctx, keyID, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	return s.foldBuckets(rows)
}

// DeleteKey removes every row recorded for a key and returns the count.
// Called when the key itself is deleted.
func (s *Store) DeleteKey(ctx context.Context, keyID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.deleteStmt.ExecContext(ctx, keyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete key usage: %w", err)
	}
	return result.RowsAffected()
}

// Ping verifies the database connection, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Prune deletes rollup rows whose hour started before the cutoff and
// returns the count.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage rows: %w", err)
	}
	return result.RowsAffected()
}

// Close releases prepared statements and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []*sql.Stmt{
		s.upsertStmt, s.summaryStmt, s.byModelStmt,
		s.hourlyStmt, s.dailyStmt, s.deleteStmt, s.pruneStmt,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// foldBuckets collapses (timestamp, model) rows ordered by timestamp
// into per-bucket totals, pricing each model's share at its own rates.
func (s *Store) foldBuckets(rows *sql.Rows) ([]Bucket, error) {
	var buckets []Bucket
	for rows.Next() {
		var ts int64
		var model string
		var u Usage
		var requests int64
		if err := rows.Scan(&ts, &model,
			&u.InputTokens, &u.OutputTokens, &u.CacheReadTokens, &u.CacheCreationTokens,
			&requests); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}

		start := time.Unix(ts, 0).UTC()
		if len(buckets) == 0 || !buckets[len(buckets)-1].Start.Equal(start) {
			buckets = append(buckets, Bucket{Start: start})
		}

		b := &buckets[len(buckets)-1]
		b.Usage = b.Usage.Add(u)
		b.Requests += requests
		b.Cost = b.Cost.Add(s.prices.Estimate(model, u))
	}
	return buckets, rows.Err()
}

// clampBuckets applies the default and the upper bound to a requested
// bucket count.
func clampBuckets(n, def, max int) int {
	switch {
	case n <= 0:
		return def
	case n > max:
		return max
	default:
		return n
	}
}
