package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Source loads the OAuth credential from a file written by the Claude
// CLI and keeps it current.
//
// The file may be absent at startup: the server still comes up, Status
// reports has_tokens false, and the source picks the credential up as
// soon as the CLI writes it. File permissions are validated on every
// load (0600 or 0400 only) so a world-readable token is refused rather
// than quietly used.
//
// When watching is enabled the parent directory is monitored, not the
// file itself. Editors and the CLI replace the file by rename, which
// would silently orphan a watch on the old inode.
type Source struct {
	path  string
	watch bool

	mu     sync.RWMutex
	loaded bool
	oauth  OAuth

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	logger  *slog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewSource creates a credential source for the given file path.
//
// If watch is enabled, the containing directory is monitored and the
// credential is reloaded whenever the file changes. The directory must
// exist when watching is requested; the file itself need not.
func NewSource(path string, watch bool) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("credential path is empty")
	}

	s := &Source{
		path:   path,
		watch:  watch,
		stopCh: make(chan struct{}),
		logger: slog.Default().With("component", "credentials"),
		now:    time.Now,
	}

	// Initial load is best effort; a missing file is a normal state.
	if err := s.reload(); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("initial credential load failed", "error", err)
	}

	if watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}

		dir := filepath.Dir(path)
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close() // Best effort close on error path
			return nil, fmt.Errorf("failed to watch credential directory: %w", err)
		}

		s.watcher = watcher
		go s.watchLoop()

		s.logger.Info("credential source started with watching", "path", path)
	} else {
		s.logger.Info("credential source started without watching", "path", path)
	}

	return s, nil
}

// Token returns the current access token.
//
// Returns ErrNoCredential when the file is missing or holds no token,
// and ErrExpired when the stored token's expiry has passed. Without a
// watcher the file is re-read on every call, so a freshly written
// credential is picked up either way.
func (s *Source) Token(ctx context.Context) (string, error) {
	if !s.watch {
		if err := s.reload(); err != nil && !os.IsNotExist(err) {
			return "", err
		}
	}

	s.mu.RLock()
	loaded, oauth := s.loaded, s.oauth
	s.mu.RUnlock()

	if !loaded || oauth.AccessToken == "" {
		return "", ErrNoCredential
	}
	if oauth.Expired(s.now()) {
		return "", ErrExpired
	}
	return oauth.AccessToken, nil
}

// Status returns the read-only credential summary for the console.
// It never fails; problems read as has_tokens false.
func (s *Source) Status() Status {
	if !s.watch {
		_ = s.reload()
	}

	s.mu.RLock()
	loaded, oauth := s.loaded, s.oauth
	s.mu.RUnlock()

	if !loaded {
		return Status{IsExpired: true}
	}
	return statusFor(oauth, s.now())
}

// Path returns the credential file path.
func (s *Source) Path() string {
	return s.path
}

// Close stops the file watcher and cleans up resources.
func (s *Source) Close() error {
	if s.watcher != nil {
		close(s.stopCh)
		return s.watcher.Close()
	}
	return nil
}

// reload reads and validates the credential file, replacing the cached
// credential. A missing file clears the cache and returns the stat
// error for the caller to classify.
func (s *Source) reload() error {
	info, err := os.Stat(s.path)
	if err != nil {
		s.mu.Lock()
		s.loaded = false
		s.oauth = OAuth{}
		s.mu.Unlock()
		return err
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("credential path is not a regular file: %s", s.path)
	}

	// Validate permissions (must be 0600 or 0400)
	mode := info.Mode().Perm()
	if mode != 0o600 && mode != 0o400 {
		return fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", s.path, mode)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read credential file: %w", err)
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse credential file: %w", err)
	}

	s.mu.Lock()
	s.loaded = true
	s.oauth = file.ClaudeAiOauth
	s.mu.Unlock()

	return nil
}

// watchLoop monitors the directory for changes to the credential file
// and reloads it. Runs in a background goroutine when watching is on.
func (s *Source) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			// Only react to our file; the directory may hold other state.
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			s.logger.Debug("credential file change detected", "op", event.Op.String())

			if err := s.reload(); err != nil {
				if os.IsNotExist(err) {
					s.logger.Warn("credential file removed")
				} else {
					s.logger.Error("failed to reload credential file", "error", err)
				}
			} else {
				s.logger.Info("credential file reloaded")
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("credential watcher error", "error", err)

		case <-s.stopCh:
			return
		}
	}
}
