package pricing

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"mercator-hq/callisto/pkg/config"
)

// Table resolves model IDs to per-token rates. Lookups check the
// override file first (exact model ID), then the built-in family rates,
// then the default.
//
// When watching is enabled the override file's parent directory is
// monitored, not the file itself. Editors replace the file by rename,
// which would silently orphan a watch on the old inode. A reload that
// fails to parse keeps the last good overrides in place.
type Table struct {
	path string

	mu        sync.RWMutex
	overrides map[string]ModelPrice

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// pricingFile is the override file layout. Keys under models are full
// model IDs; rates are USD per million tokens.
type pricingFile struct {
	Models map[string]ModelPrice `yaml:"models"`
}

// Default returns a table with only the built-in rates.
func Default() *Table {
	return &Table{
		overrides: map[string]ModelPrice{},
		stopCh:    make(chan struct{}),
		logger:    slog.Default().With("component", "pricing"),
	}
}

// Load creates a table from configuration. Without a path it is
// equivalent to Default. With one, the file must load cleanly at
// startup; a broken override file configured explicitly is a
// misconfiguration, not something to paper over.
func Load(cfg config.PricingConfig) (*Table, error) {
	t := Default()
	if cfg.Path == "" {
		return t, nil
	}
	t.path = cfg.Path

	if err := t.reload(); err != nil {
		return nil, fmt.Errorf("failed to load pricing file: %w", err)
	}

	if cfg.Watch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}

		if err := watcher.Add(filepath.Dir(cfg.Path)); err != nil {
			_ = watcher.Close() // Best effort close on error path
			return nil, fmt.Errorf("failed to watch pricing directory: %w", err)
		}

		t.watcher = watcher
		go t.watchLoop()

		t.logger.Info("pricing overrides loaded with watching", "path", cfg.Path, "models", t.overrideCount())
	} else {
		t.logger.Info("pricing overrides loaded", "path", cfg.Path, "models", t.overrideCount())
	}

	return t, nil
}

// Price returns the rates for a model ID.
func (t *Table) Price(model string) ModelPrice {
	id := strings.ToLower(strings.TrimSpace(model))

	t.mu.RLock()
	price, ok := t.overrides[id]
	t.mu.RUnlock()
	if ok {
		return price
	}

	return familyPrice(id)
}

// Estimate computes the cost of the given usage on the given model.
func (t *Table) Estimate(model string, u Usage) Cost {
	return estimate(t.Price(model), u)
}

// Close stops the file watcher. Safe to call more than once.
func (t *Table) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if t.watcher != nil {
			close(t.stopCh)
			err = t.watcher.Close()
		}
	})
	return err
}

// reload reads and parses the override file, replacing the override
// set. Rates must be non-negative; a zero rate is allowed so a model
// can be marked free.
func (t *Table) reload() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return err
	}

	var file pricingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse pricing file: %w", err)
	}

	overrides := make(map[string]ModelPrice, len(file.Models))
	for model, price := range file.Models {
		if price.Input < 0 || price.Output < 0 {
			return fmt.Errorf("negative rate for model %q", model)
		}
		overrides[strings.ToLower(strings.TrimSpace(model))] = price
	}

	t.mu.Lock()
	t.overrides = overrides
	t.mu.Unlock()

	return nil
}

// overrideCount returns the number of loaded overrides.
func (t *Table) overrideCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.overrides)
}

// watchLoop monitors the directory for changes to the pricing file and
// reloads it. Runs in a background goroutine when watching is on.
func (t *Table) watchLoop() {
	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}

			// Only react to our file; the directory may hold other state.
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if err := t.reload(); err != nil {
				t.logger.Error("failed to reload pricing file, keeping previous rates", "error", err)
			} else {
				t.logger.Info("pricing file reloaded", "models", t.overrideCount())
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.logger.Error("pricing watcher error", "error", err)

		case <-t.stopCh:
			return
		}
	}
}
