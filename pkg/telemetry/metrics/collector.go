package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus registry and all metric families exported
// by the server. Components record through the Collector rather than
// registering metrics themselves, so the full surface stays visible in
// one place and a private registry keeps default Go runtime collectors
// out of scrapes unless explicitly added.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	pollMetrics   *PollMetrics
	windowMetrics *WindowMetrics
	httpMetrics   *HTTPMetrics
	storeMetrics  *StoreMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector backed by the given registry.
// If registry is nil a fresh private registry is used.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "callisto"
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.pollMetrics = NewPollMetrics(cfg, registry)
	c.windowMetrics = NewWindowMetrics(cfg, registry)
	c.httpMetrics = NewHTTPMetrics(cfg, registry)
	c.storeMetrics = NewStoreMetrics(cfg, registry)

	return c
}

// RecordPoll records one background poll attempt.
// result is "success", "error", or "no_credential".
func (c *Collector) RecordPoll(result string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.pollMetrics.RecordPoll(result, duration)
}

// SetPollFailureStreak sets the count of consecutive failed polls.
func (c *Collector) SetPollFailureStreak(n int) {
	if !c.config.Enabled {
		return
	}
	c.pollMetrics.SetFailureStreak(n)
}

// RecordCacheHit records a snapshot cache hit for the given backend.
func (c *Collector) RecordCacheHit(backend string) {
	if !c.config.Enabled {
		return
	}
	c.pollMetrics.RecordCacheHit(backend)
}

// RecordCacheMiss records a snapshot cache miss for the given backend.
func (c *Collector) RecordCacheMiss(backend string) {
	if !c.config.Enabled {
		return
	}
	c.pollMetrics.RecordCacheMiss(backend)
}

// UpdateWindow publishes the latest classification for a quota window.
// window is "five_hour" or "seven_day"; status is the numeric Status
// value (0=gray 1=green 2=orange 3=red).
func (c *Collector) UpdateWindow(window string, utilization, burnRate float64, status int) {
	if !c.config.Enabled {
		return
	}
	c.windowMetrics.UpdateWindow(window, utilization, burnRate, status)
}

// UpdateExtraUsage publishes the latest extra-usage figures.
func (c *Collector) UpdateExtraUsage(enabled bool, usedCredits, monthlyLimit, utilization float64) {
	if !c.config.Enabled {
		return
	}
	c.windowMetrics.UpdateExtraUsage(enabled, usedCredits, monthlyLimit, utilization)
}

// RecordHTTPRequest records a completed management API request.
// The route should be the chi route pattern, not the raw path, so
// cardinality stays bounded; unknown routes degrade to "other" once the
// limiter fills.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	labelSet := fmt.Sprintf("http:%s:%s", method, route)
	if !c.cardinalityLimiter.Allow(labelSet) {
		route = "other"
	}

	c.httpMetrics.RecordRequest(method, route, status, duration)
}

// WebsocketConnected records a live-usage subscriber attaching.
func (c *Collector) WebsocketConnected() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.WebsocketConnected()
}

// WebsocketDisconnected records a live-usage subscriber detaching.
func (c *Collector) WebsocketDisconnected() {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.WebsocketDisconnected()
}

// RecordKeyAuth records an API key authentication attempt.
// outcome is "ok", "unknown_key", or "malformed".
func (c *Collector) RecordKeyAuth(outcome string) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordKeyAuth(outcome)
}

// RecordStoreQuery records the duration of a database operation.
// db is "control" or "analytics"; operation names the store method.
func (c *Collector) RecordStoreQuery(db, operation string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordQuery(db, operation, duration)
}

// RecordUsageRows records rows written into hourly usage accounting.
func (c *Collector) RecordUsageRows(n int) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordUsageRows(n)
}

// RecordPrune records rows removed by a retention run.
func (c *Collector) RecordPrune(db string, rows int64) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordPrune(db, rows)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of unique label combinations so a
// scanner walking arbitrary paths cannot blow up metric memory.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter with the given maximum number
// of distinct label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether the label set may be used. Label sets seen
// before are always allowed; new ones are admitted until the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
