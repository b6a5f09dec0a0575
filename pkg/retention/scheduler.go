package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/callisto/pkg/config"
)

// DefaultSchedule runs pruning daily at 3 AM.
const DefaultSchedule = "0 3 * * *"

// Pruner deletes rows older than a cutoff and reports how many went.
// Both the usage store and the snapshot history store satisfy it.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Scheduler runs retention pruning on a cron schedule. Each run prunes
// usage rollups older than retention_days and snapshot history older
// than history_days. A phase with its day count set to zero is skipped,
// which keeps that data forever.
type Scheduler struct {
	schedule      string
	retentionDays int
	historyDays   int

	usage   Pruner
	history Pruner

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	logger  *slog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewScheduler creates a retention scheduler. The cron expression is
// validated here so a typo surfaces at startup, not at 3 AM.
func NewScheduler(cfg config.AnalyticsConfig, usage, history Pruner) (*Scheduler, error) {
	schedule := cfg.PruneSchedule
	if schedule == "" {
		schedule = DefaultSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	return &Scheduler{
		schedule:      schedule,
		retentionDays: cfg.RetentionDays,
		historyDays:   cfg.HistoryDays,
		usage:         usage,
		history:       history,
		logger:        slog.Default().With("component", "retention"),
		now:           time.Now,
	}, nil
}

// Start begins scheduled pruning. It returns immediately; jobs run on
// background goroutines until Stop is called or ctx is cancelled.
// Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	// A fresh cron per start; re-adding the job to a stopped instance
	// would accumulate duplicate entries.
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
		"history_days", s.historyDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Schedule returns the effective cron expression.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// NextRun returns the next scheduled pruning time, or nil when the
// scheduler is not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}

// run executes one pruning cycle. The two stores live in different
// database files, so a failure in one phase doesn't stop the other.
func (s *Scheduler) run(ctx context.Context) {
	now := s.now()

	if s.retentionDays > 0 {
		cutoff := now.AddDate(0, 0, -s.retentionDays)
		deleted, err := s.usage.Prune(ctx, cutoff)
		switch {
		case err != nil:
			s.logger.Error("usage pruning failed", "error", err)
		case deleted > 0:
			s.logger.Info("pruned usage rows",
				"deleted_count", deleted,
				"retention_days", s.retentionDays,
			)
		default:
			s.logger.Debug("no usage rows pruned", "retention_days", s.retentionDays)
		}
	}

	if s.historyDays > 0 {
		cutoff := now.AddDate(0, 0, -s.historyDays)
		deleted, err := s.history.Prune(ctx, cutoff)
		switch {
		case err != nil:
			s.logger.Error("snapshot history pruning failed", "error", err)
		case deleted > 0:
			s.logger.Info("pruned snapshot history",
				"deleted_count", deleted,
				"history_days", s.historyDays,
			)
		default:
			s.logger.Debug("no snapshot history pruned", "history_days", s.historyDays)
		}
	}
}
