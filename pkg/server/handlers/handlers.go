package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/analytics"
	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/security/session"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/usage"
	"mercator-hq/callisto/pkg/usage/cache"
	"mercator-hq/callisto/pkg/usage/history"
)

// Fetcher retrieves a fresh usage snapshot from the upstream API.
// *client.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (usage.Snapshot, error)
}

// Subscriber exposes the background poller's report stream for the live
// websocket. *poller.Poller satisfies it.
type Subscriber interface {
	// Subscribe returns a report channel and a cancel function that
	// releases the subscription.
	Subscribe() (<-chan usage.Report, func())

	// Report returns the most recent report, if any poll has succeeded.
	Report() (usage.Report, bool)
}

// CredentialStatus reports the OAuth credential state without exposing
// token material. *credentials.Source satisfies it.
type CredentialStatus interface {
	Status() credentials.Status
}

// Metrics receives handler-level observations. *metrics.Collector
// satisfies it.
type Metrics interface {
	RecordCacheHit(backend string)
	RecordCacheMiss(backend string)
	WebsocketConnected()
	WebsocketDisconnected()
}

// noopMetrics keeps call sites unconditional when no collector is wired.
type noopMetrics struct{}

func (noopMetrics) RecordCacheHit(string)  {}
func (noopMetrics) RecordCacheMiss(string) {}
func (noopMetrics) WebsocketConnected()    {}
func (noopMetrics) WebsocketDisconnected() {}

// Config wires the handler set's dependencies. Fetcher, Cache, Keys,
// Analytics, History, and Sessions are required; the rest degrade
// gracefully when absent.
type Config struct {
	// Fetcher performs live usage fetches on cache misses.
	Fetcher Fetcher

	// Cache is the snapshot cache consulted before fetching.
	Cache cache.Cache

	// CacheKind labels cache metrics ("memory" or "redis").
	CacheKind string

	// Subscriber feeds the live usage websocket. Nil disables the
	// endpoint (it answers 404).
	Subscriber Subscriber

	// Credentials reports OAuth credential status.
	Credentials CredentialStatus

	// Keys is the API key store.
	Keys *keys.Store

	// Analytics is the per-key usage accounting store.
	Analytics *analytics.Store

	// History is the snapshot history store.
	History *history.Store

	// Sessions issues and verifies console session tokens.
	Sessions *session.Manager

	// Metrics receives cache and websocket observations. Nil means none
	// are recorded.
	Metrics Metrics

	// StaleAfter is the snapshot age beyond which reports are flagged
	// stale. Zero disables the flag.
	StaleAfter time.Duration

	// Version is reported by the server status endpoint.
	Version string

	// ListenAddress is the configured bind address, reported by the
	// server status endpoint.
	ListenAddress string

	// Now overrides the clock in tests. Nil means time.Now.
	Now func() time.Time
}

// Handlers implements every management API endpoint. One instance is
// shared across all requests; all fields are read-only after New.
type Handlers struct {
	fetcher     Fetcher
	cache       cache.Cache
	cacheKind   string
	subscriber  Subscriber
	credentials CredentialStatus
	keys        *keys.Store
	analytics   *analytics.Store
	history     *history.Store
	sessions    *session.Manager
	metrics     Metrics
	staleAfter  time.Duration
	version     string
	bindHost    string
	bindPort    int
	startedAt   time.Time
	now         func() time.Time

	errorHandlers []errorHandler
}

// New creates the handler set. The uptime clock starts here, so build
// the handlers when the server starts, not earlier.
func New(cfg Config) *Handlers {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}

	host, port := splitListenAddress(cfg.ListenAddress)

	h := &Handlers{
		fetcher:     cfg.Fetcher,
		cache:       cfg.Cache,
		cacheKind:   cfg.CacheKind,
		subscriber:  cfg.Subscriber,
		credentials: cfg.Credentials,
		keys:        cfg.Keys,
		analytics:   cfg.Analytics,
		history:     cfg.History,
		sessions:    cfg.Sessions,
		metrics:     cfg.Metrics,
		staleAfter:  cfg.StaleAfter,
		version:     cfg.Version,
		bindHost:    host,
		bindPort:    port,
		startedAt:   cfg.Now(),
		now:         cfg.Now,
	}
	h.errorHandlers = newErrorHandlers()
	return h
}

// splitListenAddress breaks "127.0.0.1:8484" into host and numeric
// port. Unparseable values degrade to the raw string and port 0 rather
// than failing status reporting.
func splitListenAddress(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, types.NewErrorResponse(errType, message))
}

// decodeJSON decodes a request body, answering 400 itself on failure.
// Returns false when the caller should stop.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, types.ErrorTypeInvalidRequest, "Invalid request body")
		return false
	}
	return true
}
