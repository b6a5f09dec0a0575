package keys

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists API keys in the control database.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	insertStmt *sql.Stmt
	listStmt   *sql.Stmt
	getStmt    *sql.Stmt
	renameStmt *sql.Stmt
	deleteStmt *sql.Stmt
	touchStmt  *sql.Stmt
	authStmt   *sql.Stmt

	// now is the clock, overridable in tests
	now func() time.Time
}

// NewStore creates the key store, creating its table on the shared
// control database when missing.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}

	s := &Store{
		db:  db,
		now: time.Now,
	}

	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

// initSchema creates the key table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		prefix TEXT NOT NULL,
		digest TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL,
		last_used_at INTEGER,
		usage_count INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *Store) prepareStatements() error {
	stmts := []struct {
		dst  **sql.Stmt
		name string
		sql  string
	}{
		{&s.insertStmt, "insert", `
			INSERT INTO api_keys (id, name, prefix, digest, created_at, usage_count)
			VALUES (?, ?, ?, ?, ?, 0)
		`},
		{&s.listStmt, "list", `
			SELECT id, name, prefix, created_at, last_used_at, usage_count
			FROM api_keys
			ORDER BY created_at DESC, id
		`},
		{&s.getStmt, "get", `
			SELECT id, name, prefix, created_at, last_used_at, usage_count
			FROM api_keys
			WHERE id = ?
		`},
		{&s.renameStmt, "rename", `
			UPDATE api_keys SET name = ? WHERE id = ?
		`},
		{&s.deleteStmt, "delete", `
			DELETE FROM api_keys WHERE id = ?
		`},
		{&s.touchStmt, "touch", `
			UPDATE api_keys
			SET last_used_at = ?, usage_count = usage_count + 1
			WHERE id = ?
		`},
		{&s.authStmt, "auth", `
			SELECT id, name, prefix, digest, created_at, last_used_at, usage_count
			FROM api_keys
			WHERE digest = ?
		`},
	}

	for _, st := range stmts {
		stmt, err := s.db.Prepare(st.sql)
		if err != nil {
			return fmt.Errorf("failed to prepare %s statement: %w", st.name, err)
		}
		*st.dst = stmt
	}
	return nil
}

// Create issues a new key under the given name. The returned CreatedKey
// carries the plaintext; this is the only time it is available.
func (s *Store) Create(ctx context.Context, name string) (*CreatedKey, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	plaintext, err := generateSecret()
	if err != nil {
		return nil, err
	}

	key := Key{
		ID:        uuid.New().String(),
		Name:      name,
		Prefix:    displayPrefix(plaintext),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.insertStmt.ExecContext(ctx,
		key.ID,
		key.Name,
		key.Prefix,
		digest(plaintext),
		key.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert key: %w", err)
	}

	return &CreatedKey{Key: key, Plaintext: plaintext}, nil
}

// List returns all keys, newest first. Plaintext and digests are never
// included.
func (s *Store) List(ctx context.Context) ([]*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var result []*Key
	for rows.Next() {
		key, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key row: %w", err)
		}
		result = append(result, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating key rows: %w", err)
	}
	return result, nil
}

// Get returns the key with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, err := scanKey(s.getStmt.QueryRowContext(ctx, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	return key, nil
}

// Rename changes a key's label.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.renameStmt.ExecContext(ctx, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename key: %w", err)
	}
	return reportNotFound(result)
}

// Delete removes a key. The key stops authenticating immediately;
// callers are expected to drop its analytics rows as well.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.deleteStmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return reportNotFound(result)
}

// Touch records a successful authentication: bumps usage_count and
// updates last_used_at.
func (s *Store) Touch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.touchStmt.ExecContext(ctx, s.now().UTC().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to touch key: %w", err)
	}
	return reportNotFound(result)
}

// Authenticate verifies a presented plaintext key and returns the
// matching record. It returns ErrInvalidKey for anything that does not
// authenticate; callers cannot distinguish unknown keys from malformed
// ones.
func (s *Store) Authenticate(ctx context.Context, plaintext string) (*Key, error) {
	if !strings.HasPrefix(plaintext, KeyPrefix) {
		return nil, ErrInvalidKey
	}

	computed := digest(plaintext)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		key        Key
		stored     string
		createdAt  int64
		lastUsedAt sql.NullInt64
	)
	err := s.authStmt.QueryRowContext(ctx, computed).Scan(
		&key.ID,
		&key.Name,
		&key.Prefix,
		&stored,
		&createdAt,
		&lastUsedAt,
		&key.UsageCount,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up key: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) != 1 {
		return nil, ErrInvalidKey
	}

	key.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lastUsedAt.Valid {
		t := time.UnixMilli(lastUsedAt.Int64).UTC()
		key.LastUsedAt = &t
	}
	return &key, nil
}

// Close releases the prepared statements. The shared database handle is
// owned by the caller and stays open.
func (s *Store) Close() error {
	for _, stmt := range []*sql.Stmt{
		s.insertStmt, s.listStmt, s.getStmt, s.renameStmt,
		s.deleteStmt, s.touchStmt, s.authStmt,
	} {
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

func scanKey(row scanner) (*Key, error) {
	var (
		key        Key
		createdAt  int64
		lastUsedAt sql.NullInt64
	)

	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.Prefix,
		&createdAt,
		&lastUsedAt,
		&key.UsageCount,
	)
	if err != nil {
		return nil, err
	}

	key.CreatedAt = time.UnixMilli(createdAt).UTC()
	if lastUsedAt.Valid {
		t := time.UnixMilli(lastUsedAt.Int64).UTC()
		key.LastUsedAt = &t
	}
	return &key, nil
}

func reportNotFound(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
