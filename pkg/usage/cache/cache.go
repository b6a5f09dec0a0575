package cache

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/usage"
)

// DefaultTTL is how long a cached snapshot is served before the upstream
// is asked again.
const DefaultTTL = 60 * time.Second

// Cache stores the most recent successfully fetched usage snapshot.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the cached snapshot and when it was stored. Because
	// only fresh fetches are stored, storedAt doubles as the snapshot's
	// fetch time. The boolean is false on a miss (nothing stored yet,
	// or the entry expired).
	Get(ctx context.Context) (snap usage.Snapshot, storedAt time.Time, ok bool, err error)

	// Put stores a snapshot with the configured TTL. Only successful
	// fetches should be stored.
	Put(ctx context.Context, snap usage.Snapshot) error

	// Close releases backend resources.
	Close()
}

// New creates the cache backend selected by cfg.Backend.
// An empty backend selects the in-memory cache.
func New(cfg config.CacheConfig) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemory(ttl), nil
	case "redis":
		return NewRedis(cfg.Redis, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (expected \"memory\" or \"redis\")", cfg.Backend)
	}
}
