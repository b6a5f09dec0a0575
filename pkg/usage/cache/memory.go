package cache

import (
	"context"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/usage"
)

// Memory is a single-entry in-process TTL cache. The usage report is one
// account-wide value, so there is exactly one slot and no eviction beyond
// expiry.
type Memory struct {
	// ttl is the time-to-live for the cached snapshot
	ttl time.Duration

	// mu protects the cached entry
	mu sync.RWMutex

	// snap is the cached snapshot
	snap usage.Snapshot

	// storedAt is when the snapshot was cached
	storedAt time.Time

	// stored reports whether a snapshot has been cached at all
	stored bool

	// now is the clock, overridable in tests
	now func() time.Time
}

// NewMemory creates an in-memory snapshot cache with the given TTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached snapshot and its store time, or a miss when
// nothing has been stored or the entry has outlived the TTL. Expiry uses
// the monotonic clock, so wall-clock jumps do not extend or shorten an
// entry's life.
func (m *Memory) Get(ctx context.Context) (usage.Snapshot, time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.stored || m.now().Sub(m.storedAt) >= m.ttl {
		return usage.Snapshot{}, time.Time{}, false, nil
	}
	return m.snap, m.storedAt, true, nil
}

// Put stores a snapshot, replacing any previous entry and restarting the
// TTL.
func (m *Memory) Put(ctx context.Context, snap usage.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap = snap
	m.storedAt = m.now()
	m.stored = true
	return nil
}

// Close is a no-op for the in-memory cache.
func (m *Memory) Close() {}
