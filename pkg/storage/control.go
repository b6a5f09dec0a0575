package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/callisto/pkg/config"
)

const (
	defaultControlPath = "data/callisto.db"
	defaultBusyTimeout = 5 * time.Second
)

// Control is the shared control-plane SQLite handle. API keys and
// snapshot history live in the same file; each store creates its own
// table and statements over this handle.
//
// Control uses a write-ahead log (WAL) with a single connection (SQLite
// only supports one writer) and checkpoints the WAL periodically to keep
// the log from growing unbounded.
type Control struct {
	db                 *sql.DB
	path               string
	checkpointInterval time.Duration
	done               chan struct{}
	closeOnce          sync.Once
	logger             *slog.Logger
}

// OpenControl opens (creating if needed) the control-plane database.
// The parent directory is created when missing.
func OpenControl(cfg config.StorageConfig) (*Control, error) {
	path := cfg.ControlPath
	if path == "" {
		path = defaultControlPath
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	return open(path, busyTimeout, cfg.CheckpointInterval)
}

func open(path string, busyTimeout, checkpointInterval time.Duration) (*Control, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	c := &Control{
		db:                 db,
		path:               path,
		checkpointInterval: checkpointInterval,
		done:               make(chan struct{}),
		logger:             slog.Default().With("component", "storage"),
	}

	if checkpointInterval > 0 {
		go c.checkpointLoop()
	}

	return c, nil
}

// DB returns the underlying database handle for stores to attach their
// tables and prepared statements to.
func (c *Control) DB() *sql.DB {
	return c.db
}

// Path returns the database file location.
func (c *Control) Path() string {
	return c.path
}

// Close checkpoints the WAL a final time and closes the database.
// Close is idempotent and safe to call multiple times.
func (c *Control) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		close(c.done)

		if c.db != nil {
			_, _ = c.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = c.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (c *Control) checkpointLoop() {
	ticker := time.NewTicker(c.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := c.db.Exec("PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
				c.logger.Warn("wal checkpoint failed", "path", c.path, "error", err)
			}
		case <-c.done:
			return
		}
	}
}
