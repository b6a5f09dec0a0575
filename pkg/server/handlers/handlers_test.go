package handlers

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mercator-hq/callisto/pkg/analytics"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/security/session"
	"mercator-hq/callisto/pkg/storage"
	"mercator-hq/callisto/pkg/usage"
	"mercator-hq/callisto/pkg/usage/history"
)

// baseTime is the pinned handler clock.
var baseTime = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

type fakeFetcher struct {
	snap  usage.Snapshot
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (usage.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return usage.Snapshot{}, f.err
	}
	return f.snap, nil
}

type fakeCache struct {
	snap     usage.Snapshot
	storedAt time.Time
	ok       bool
	getErr   error
	putErr   error
	putCalls int
	lastPut  usage.Snapshot
}

func (c *fakeCache) Get(ctx context.Context) (usage.Snapshot, time.Time, bool, error) {
	if c.getErr != nil {
		return usage.Snapshot{}, time.Time{}, false, c.getErr
	}
	return c.snap, c.storedAt, c.ok, nil
}

func (c *fakeCache) Put(ctx context.Context, snap usage.Snapshot) error {
	c.putCalls++
	c.lastPut = snap
	return c.putErr
}

func (c *fakeCache) Close() {}

type fakeSubscriber struct {
	reports chan usage.Report
	current usage.Report
	hasCurr bool
}

func (f *fakeSubscriber) Subscribe() (<-chan usage.Report, func()) {
	return f.reports, func() {}
}

func (f *fakeSubscriber) Report() (usage.Report, bool) {
	return f.current, f.hasCurr
}

type fakeCredentials struct {
	status credentials.Status
}

func (f *fakeCredentials) Status() credentials.Status { return f.status }

// fakeMetrics is mutex-guarded because the websocket handler records
// from its own goroutine.
type fakeMetrics struct {
	mu            sync.Mutex
	cacheHits     int
	cacheMisses   int
	wsConnects    int
	wsDisconnects int
}

func (m *fakeMetrics) RecordCacheHit(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHits++
}

func (m *fakeMetrics) RecordCacheMiss(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheMisses++
}

func (m *fakeMetrics) WebsocketConnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wsConnects++
}

func (m *fakeMetrics) WebsocketDisconnected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wsDisconnects++
}

func (m *fakeMetrics) counts() (hits, misses, connects, disconnects int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheHits, m.cacheMisses, m.wsConnects, m.wsDisconnects
}

// testEnv assembles the handler set over real stores on temporary
// databases and fakes for everything that would leave the process.
type testEnv struct {
	handlers   *Handlers
	router     *chi.Mux
	fetcher    *fakeFetcher
	cache      *fakeCache
	subscriber *fakeSubscriber
	creds      *fakeCredentials
	metrics    *fakeMetrics
	keys       *keys.Store
	analytics  *analytics.Store
	history    *history.Store
	sessions   *session.Manager

	// now backs the handler clock; tests may advance it.
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()

	ctrl, err := storage.OpenControl(config.StorageConfig{
		ControlPath: filepath.Join(dir, "control.db"),
		BusyTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open control database: %v", err)
	}
	t.Cleanup(func() { ctrl.Close() })

	keyStore, err := keys.NewStore(ctrl.DB())
	if err != nil {
		t.Fatalf("Failed to create key store: %v", err)
	}

	histStore, err := history.NewStore(ctrl.DB())
	if err != nil {
		t.Fatalf("Failed to create history store: %v", err)
	}

	analyticsStore, err := analytics.Open(config.StorageConfig{
		AnalyticsPath: filepath.Join(dir, "usage.db"),
	}, nil)
	if err != nil {
		t.Fatalf("Failed to open analytics store: %v", err)
	}
	t.Cleanup(func() { analyticsStore.Close() })

	sessions, err := session.NewManager(config.ConsoleConfig{
		Enabled:       true,
		Password:      "hunter2",
		SessionSecret: "handlers-test-session-secret",
		SessionTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("Failed to create session manager: %v", err)
	}

	env := &testEnv{
		fetcher:    &fakeFetcher{},
		cache:      &fakeCache{},
		subscriber: &fakeSubscriber{reports: make(chan usage.Report, 4)},
		creds:      &fakeCredentials{},
		metrics:    &fakeMetrics{},
		keys:       keyStore,
		analytics:  analyticsStore,
		history:    histStore,
		sessions:   sessions,
		now:        baseTime,
	}

	env.handlers = New(Config{
		Fetcher:       env.fetcher,
		Cache:         env.cache,
		CacheKind:     "memory",
		Subscriber:    env.subscriber,
		Credentials:   env.creds,
		Keys:          keyStore,
		Analytics:     analyticsStore,
		History:       histStore,
		Sessions:      sessions,
		Metrics:       env.metrics,
		StaleAfter:    time.Minute,
		Version:       "1.2.3-test",
		ListenAddress: "127.0.0.1:8484",
		Now:           func() time.Time { return env.now },
	})

	env.router = newTestRouter(env.handlers)
	return env
}

// newTestRouter mounts the handlers the way the server does, so URL
// parameters resolve.
func newTestRouter(h *Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/server/status", h.ServerStatus)
	r.Post("/api/auth/login", h.Login)
	r.Get("/api/auth/claude/status", h.ClaudeAuthStatus)
	r.Get("/api/usage", h.Usage)
	r.Get("/api/usage/live", h.LiveUsage)
	r.Get("/api/usage/history", h.UsageHistory)
	r.Get("/api/keys", h.ListKeys)
	r.Post("/api/keys", h.CreateKey)
	r.Patch("/api/keys/{keyID}", h.RenameKey)
	r.Delete("/api/keys/{keyID}", h.DeleteKey)
	r.Get("/api/keys/{keyID}/usage/summary", h.KeyUsageSummary)
	r.Get("/api/keys/{keyID}/usage", h.KeyUsage)
	return r
}

// createKey inserts a key and returns it.
func (env *testEnv) createKey(t *testing.T, name string) *keys.CreatedKey {
	t.Helper()

	created, err := env.keys.Create(context.Background(), name)
	if err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}
	return created
}

// testSnapshot returns a snapshot with distinctive figures.
func testSnapshot() usage.Snapshot {
	return usage.Snapshot{
		FiveHour: usage.Window{
			Utilization: 42.5,
			ResetsAt:    baseTime.Add(2 * time.Hour).Format(time.RFC3339),
		},
		SevenDay: usage.Window{
			Utilization: 61.0,
			ResetsAt:    baseTime.Add(3 * 24 * time.Hour).Format(time.RFC3339),
		},
		ExtraUsage: usage.Extra{
			IsEnabled:    true,
			MonthlyLimit: 5000,
			UsedCredits:  1250,
			Utilization:  25,
		},
	}
}
