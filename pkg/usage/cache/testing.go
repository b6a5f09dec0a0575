package cache

import (
	"time"

	"github.com/redis/rueidis"
)

// NewRedisForTest creates a Redis cache with the provided rueidis client,
// skipping the connectivity check (test-only).
func NewRedisForTest(c rueidis.Client, key string, ttl time.Duration) *Redis {
	return newRedis(c, key, ttl)
}
