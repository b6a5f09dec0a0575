package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/usage"
)

// DefaultRedisKey is the key the snapshot is stored under when the
// configuration does not name one.
const DefaultRedisKey = "callisto:usage:snapshot"

// pingTimeout bounds the connectivity check performed at construction.
const pingTimeout = 5 * time.Second

// Compile-time check: Redis implements Cache.
var _ Cache = (*Redis)(nil)

// Redis is a shared snapshot cache for multi-instance deployments. The
// snapshot is stored as a single JSON value with a server-side TTL, so
// every instance sees the same entry and redis handles expiry.
type Redis struct {
	client rueidis.Client
	key    string
	ttl    time.Duration

	// now is the clock, overridable in tests
	now func() time.Time
}

// entry is the stored JSON value. The store time travels with the
// snapshot so other instances can report how old the data they serve is.
type entry struct {
	Snapshot usage.Snapshot `json:"snapshot"`
	StoredAt time.Time      `json:"stored_at"`
}

// NewRedis creates a redis-backed snapshot cache and verifies
// connectivity with a bounded ping.
func NewRedis(cfg config.RedisConfig, ttl time.Duration) (*Redis, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis cache: addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: failed to create client: %w", err)
	}

	r := newRedis(client, cfg.Key, ttl)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return r, nil
}

func newRedis(client rueidis.Client, key string, ttl time.Duration) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, key: key, ttl: ttl, now: time.Now}
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	cmd := r.client.B().Ping().Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis cache: ping: %w", err)
	}
	return nil
}

// Get returns the cached snapshot and its store time. A missing key is
// a miss, not an error. An entry that no longer decodes, or that lacks
// its store time, is reported as a miss with an error so the caller
// falls through to a fresh fetch.
func (r *Redis) Get(ctx context.Context) (usage.Snapshot, time.Time, bool, error) {
	cmd := r.client.B().Get().Key(r.key).Build()
	data, err := r.client.Do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return usage.Snapshot{}, time.Time{}, false, nil
		}
		return usage.Snapshot{}, time.Time{}, false, fmt.Errorf("redis cache: get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return usage.Snapshot{}, time.Time{}, false, fmt.Errorf("redis cache: decode: %w", err)
	}
	if e.StoredAt.IsZero() {
		return usage.Snapshot{}, time.Time{}, false, fmt.Errorf("redis cache: decode: entry missing stored_at")
	}
	return e.Snapshot, e.StoredAt, true, nil
}

// Put stores a snapshot under the configured key with the TTL applied
// server-side (SET ... EX).
func (r *Redis) Put(ctx context.Context, snap usage.Snapshot) error {
	data, err := json.Marshal(entry{Snapshot: snap, StoredAt: r.now().UTC()})
	if err != nil {
		return fmt.Errorf("redis cache: encode: %w", err)
	}

	cmd := r.client.B().Set().Key(r.key).Value(string(data)).Ex(r.ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis cache: set: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (r *Redis) Close() {
	r.client.Close()
}
