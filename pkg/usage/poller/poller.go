package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/telemetry/tracing"
	"mercator-hq/callisto/pkg/usage"
)

// Fetcher retrieves a fresh usage snapshot from upstream.
type Fetcher interface {
	Fetch(ctx context.Context) (usage.Snapshot, error)
}

// CacheSink stores successful snapshots for the serving path.
type CacheSink interface {
	Put(ctx context.Context, snap usage.Snapshot) error
}

// HistorySink records captured snapshots for the history queries.
type HistorySink interface {
	Insert(ctx context.Context, snap usage.Snapshot, capturedAt time.Time) error
}

// Metrics receives poll outcomes and the classified window figures.
// The telemetry collector satisfies it.
type Metrics interface {
	RecordPoll(result string, duration time.Duration)
	SetPollFailureStreak(n int)
	UpdateWindow(window string, utilization, burnRate float64, status int)
	UpdateExtraUsage(enabled bool, usedCredits, monthlyLimit, utilization float64)
}

// staleIntervals is how many missed polls make the held snapshot stale.
const staleIntervals = 2

// Poller fetches the usage report upstream on a fixed cadence and fans
// the result out: snapshot cache, history store, metrics, and live
// subscribers. Fetch failures are logged and counted but never stop
// the loop; the last good snapshot keeps serving and is flagged stale
// once two intervals pass without a success.
type Poller struct {
	interval time.Duration
	fetch    Fetcher
	cache    CacheSink
	history  HistorySink
	metrics  Metrics
	logger   *slog.Logger

	mu        sync.RWMutex
	lastSnap  usage.Snapshot
	lastFetch time.Time
	lastErr   error
	failures  int
	hasSnap   bool

	subsMu sync.Mutex
	subs   map[chan usage.Report]struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a poller. The cache, history, and metrics sinks may each
// be nil; absent sinks are simply skipped.
func New(cfg config.PollerConfig, fetch Fetcher, snapshots CacheSink, hist HistorySink, pm Metrics) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = config.DefaultPollerInterval
	}
	if interval < config.MinPollerInterval {
		interval = config.MinPollerInterval
	}

	return &Poller{
		interval: interval,
		fetch:    fetch,
		cache:    snapshots,
		history:  hist,
		metrics:  pm,
		logger:   slog.Default().With("component", "poller"),
		subs:     make(map[chan usage.Report]struct{}),
		now:      time.Now,
	}
}

// Interval returns the effective polling cadence.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start launches the background loop. The first poll happens
// immediately so the console has data right after startup. Starting a
// running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.loop(ctx)

	p.logger.Info("usage poller started", "interval", p.interval)
}

// Stop cancels the loop and waits for any in-flight poll to wind down.
// Safe to call more than once, and before Start.
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.runMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	p.logger.Info("usage poller stopped")
}

// Latest returns the most recent successfully fetched snapshot and
// when it was fetched. ok is false until the first success.
func (p *Poller) Latest() (snap usage.Snapshot, fetchedAt time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSnap, p.lastFetch, p.hasSnap
}

// Report builds the console view of the held snapshot. ok is false
// until the first successful poll.
func (p *Poller) Report() (usage.Report, bool) {
	p.mu.RLock()
	snap, fetchedAt, ok := p.lastSnap, p.lastFetch, p.hasSnap
	p.mu.RUnlock()

	if !ok {
		return usage.Report{}, false
	}
	return usage.BuildReport(snap, fetchedAt, p.now(), p.staleAfter()), true
}

// LastError returns the most recent poll error, nil after a success.
func (p *Poller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

// Subscribe registers a live report listener. The returned channel
// holds at most the newest report: a slow reader skips intermediate
// reports instead of stalling the poller. The cancel func unregisters
// the listener and closes the channel.
func (p *Poller) Subscribe() (<-chan usage.Report, func()) {
	ch := make(chan usage.Report, 1)

	p.subsMu.Lock()
	p.subs[ch] = struct{}{}
	p.subsMu.Unlock()

	cancel := func() {
		p.subsMu.Lock()
		defer p.subsMu.Unlock()
		if _, ok := p.subs[ch]; ok {
			delete(p.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs one fetch cycle, bounded by the interval so a hung
// upstream can never back the loop up.
func (p *Poller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "usage.poll")
	defer span.End()

	start := time.Now()
	snap, err := p.fetch.Fetch(ctx)
	elapsed := time.Since(start)
	tracing.SetStatus(span, err)

	if err != nil {
		tracing.SetError(span, err)
		p.mu.Lock()
		p.failures++
		p.lastErr = err
		failures := p.failures
		p.mu.Unlock()

		result := "error"
		if errors.Is(err, credentials.ErrNoCredential) || errors.Is(err, credentials.ErrExpired) {
			result = "no_credential"
		}
		if p.metrics != nil {
			p.metrics.RecordPoll(result, elapsed)
			p.metrics.SetPollFailureStreak(failures)
		}
		p.logger.Warn("usage poll failed", "error", err, "failure_streak", failures)
		return
	}

	fetchedAt := p.now()

	p.mu.Lock()
	p.lastSnap = snap
	p.lastFetch = fetchedAt
	p.lastErr = nil
	p.failures = 0
	p.hasSnap = true
	p.mu.Unlock()

	report := usage.BuildReport(snap, fetchedAt, p.now(), p.staleAfter())

	tracing.SetWindowAttributes(span, "five_hour",
		report.FiveHour.Utilization, report.FiveHour.BurnRate, report.FiveHour.Status.String())
	tracing.SetWindowAttributes(span, "seven_day",
		report.SevenDay.Utilization, report.SevenDay.BurnRate, report.SevenDay.Status.String())

	if p.metrics != nil {
		p.metrics.RecordPoll("success", elapsed)
		p.metrics.SetPollFailureStreak(0)
		p.metrics.UpdateWindow("five_hour",
			report.FiveHour.Utilization, report.FiveHour.BurnRate, int(report.FiveHour.Status))
		p.metrics.UpdateWindow("seven_day",
			report.SevenDay.Utilization, report.SevenDay.BurnRate, int(report.SevenDay.Status))
		p.metrics.UpdateExtraUsage(report.ExtraUsage.IsEnabled,
			report.ExtraUsage.UsedCredits, report.ExtraUsage.MonthlyLimit, report.ExtraUsage.PercentUsed)
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, snap); err != nil {
			p.logger.Warn("failed to cache snapshot", "error", err)
		}
	}

	if p.history != nil {
		if err := p.history.Insert(ctx, snap, fetchedAt); err != nil {
			p.logger.Warn("failed to record snapshot history", "error", err)
		}
	}

	p.publish(report)
}

// publish delivers a report to every subscriber, replacing any unread
// report so the buffer always holds the newest one.
func (p *Poller) publish(report usage.Report) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()

	for ch := range p.subs {
		select {
		case ch <- report:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- report:
			default:
			}
		}
	}
}

func (p *Poller) staleAfter() time.Duration {
	return staleIntervals * p.interval
}
