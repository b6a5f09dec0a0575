package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/usage"
)

// Record is one persisted usage snapshot.
type Record struct {
	// ID is the row identifier.
	ID int64

	// CapturedAt is when the snapshot was fetched.
	CapturedAt time.Time

	// FiveHourUtilization is the five-hour window utilization percentage.
	FiveHourUtilization float64

	// FiveHourResetsAt is the five-hour window reset time (zero when no
	// session was active).
	FiveHourResetsAt time.Time

	// SevenDayUtilization is the seven-day window utilization percentage.
	SevenDayUtilization float64

	// SevenDayResetsAt is the seven-day window reset time (zero when no
	// session was active).
	SevenDayResetsAt time.Time

	// ExtraEnabled reports whether extra usage was enabled.
	ExtraEnabled bool

	// ExtraUsed is the extra-usage credits consumed, in cents.
	ExtraUsed float64

	// ExtraLimit is the extra-usage monthly budget, in cents.
	ExtraLimit float64
}

// Store persists usage snapshots to the control database for the
// console sparkline and the history endpoint.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	insertStmt *sql.Stmt
	latestStmt *sql.Stmt
	rangeStmt  *sql.Stmt
	pruneStmt  *sql.Stmt
}

// NewStore creates the snapshot history store, creating its table on
// the shared control database when missing.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}

	s := &Store{db: db}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

// initSchema creates the snapshot table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		captured_at INTEGER NOT NULL,
		five_hour_util REAL NOT NULL,
		five_hour_resets_at INTEGER NOT NULL DEFAULT 0,
		seven_day_util REAL NOT NULL,
		seven_day_resets_at INTEGER NOT NULL DEFAULT 0,
		extra_enabled INTEGER NOT NULL DEFAULT 0,
		extra_used REAL NOT NULL DEFAULT 0,
		extra_limit REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_captured_at ON usage_snapshots(captured_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *Store) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO usage_snapshots (
			captured_at, five_hour_util, five_hour_resets_at,
			seven_day_util, seven_day_resets_at,
			extra_enabled, extra_used, extra_limit
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.latestStmt, err = s.db.Prepare(`
		SELECT id, captured_at, five_hour_util, five_hour_resets_at,
		       seven_day_util, seven_day_resets_at,
		       extra_enabled, extra_used, extra_limit
		FROM usage_snapshots
		ORDER BY captured_at DESC, id DESC
		LIMIT 1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare latest statement: %w", err)
	}

	s.rangeStmt, err = s.db.Prepare(`
		SELECT id, captured_at, five_hour_util, five_hour_resets_at,
		       seven_day_util, seven_day_resets_at,
		       extra_enabled, extra_used, extra_limit
		FROM usage_snapshots
		WHERE captured_at >= ? AND captured_at <= ?
		ORDER BY captured_at ASC, id ASC
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare range statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM usage_snapshots
		WHERE captured_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Insert persists a snapshot captured at the given time.
func (s *Store) Insert(ctx context.Context, snap usage.Snapshot, capturedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.insertStmt.ExecContext(ctx,
		capturedAt.UnixMilli(),
		snap.FiveHour.Utilization,
		resetMillis(snap.FiveHour),
		snap.SevenDay.Utilization,
		resetMillis(snap.SevenDay),
		boolToInt(snap.ExtraUsage.IsEnabled),
		snap.ExtraUsage.UsedCredits,
		snap.ExtraUsage.MonthlyLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently captured snapshot, or nil when the
// table is empty.
func (s *Store) Latest(ctx context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanRecord(s.latestStmt.QueryRowContext(ctx))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	return rec, nil
}

// Range returns snapshots captured in [since, until], oldest first.
func (s *Store) Range(ctx context.Context, since, until time.Time) ([]*Record, error) {
	if until.Before(since) {
		return nil, fmt.Errorf("until %s is before since %s", until.Format(time.RFC3339), since.Format(time.RFC3339))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.rangeStmt.QueryContext(ctx, since.UnixMilli(), until.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot range: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return records, nil
}

// Prune deletes snapshots captured before the cutoff and reports how
// many rows were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Close releases the prepared statements. The shared database handle is
// owned by the caller and stays open.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{s.insertStmt, s.latestStmt, s.rangeStmt, s.pruneStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec              Record
		capturedAt       int64
		fiveHourResetsAt int64
		sevenDayResetsAt int64
		extraEnabled     int
	)

	err := row.Scan(
		&rec.ID,
		&capturedAt,
		&rec.FiveHourUtilization,
		&fiveHourResetsAt,
		&rec.SevenDayUtilization,
		&sevenDayResetsAt,
		&extraEnabled,
		&rec.ExtraUsed,
		&rec.ExtraLimit,
	)
	if err != nil {
		return nil, err
	}

	rec.CapturedAt = time.UnixMilli(capturedAt).UTC()
	rec.FiveHourResetsAt = millisToTime(fiveHourResetsAt)
	rec.SevenDayResetsAt = millisToTime(sevenDayResetsAt)
	rec.ExtraEnabled = extraEnabled != 0
	return &rec, nil
}

// resetMillis converts a window's reset time to a millisecond epoch,
// with 0 standing in for "no active session".
func resetMillis(w usage.Window) int64 {
	t := w.ResetTime()
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
