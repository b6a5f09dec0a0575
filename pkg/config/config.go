package config

import "time"

// Config is the root configuration structure for Callisto.
// It contains all configuration sections for the management server, the
// admin console, upstream usage fetching, storage, analytics retention,
// and telemetry.
type Config struct {
	// Server contains management HTTP server configuration including the
	// listen address, timeouts, and CORS settings.
	Server ServerConfig `yaml:"server"`

	// Console contains admin console configuration: session signing,
	// login password, and whether the embedded UI is served.
	Console ConsoleConfig `yaml:"console"`

	// Upstream configures how usage snapshots are fetched from the
	// Claude usage API.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Credentials configures where the OAuth credential file lives and
	// whether it is watched for changes.
	Credentials CredentialsConfig `yaml:"credentials"`

	// Cache configures the usage snapshot cache.
	Cache CacheConfig `yaml:"cache"`

	// Poller configures the background usage poller.
	Poller PollerConfig `yaml:"poller"`

	// Storage contains database file locations and SQLite tuning.
	Storage StorageConfig `yaml:"storage"`

	// Analytics contains retention settings for per-key usage accounting
	// and snapshot history.
	Analytics AnalyticsConfig `yaml:"analytics"`

	// Pricing configures the optional pricing override file.
	Pricing PricingConfig `yaml:"pricing"`

	// Telemetry contains configuration for observability including
	// logging, metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains management HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port the management server binds to.
	// Default: "127.0.0.1:8484"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive wait between requests.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds handling of one management API request. Must
	// exceed the upstream request timeout so an upstream fetch times out
	// first and keeps its specific error. Long-lived endpoints (the usage
	// websocket) are exempt.
	// Default: 60s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// CORS contains cross-origin settings for the console.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains cross-origin resource sharing settings.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists origins allowed to call the management API.
	// Default: ["http://localhost:8484", "http://127.0.0.1:8484"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxAge is how long preflight results may be cached, in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`
}

// ConsoleConfig contains admin console settings.
type ConsoleConfig struct {
	// Enabled controls whether the embedded console UI is served at /ui/.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Password is the console login password. When empty, login is
	// rejected until a password is configured.
	Password string `yaml:"password"`

	// SessionSecret signs console session tokens. A random secret is
	// generated at startup when empty (sessions then do not survive
	// restarts).
	SessionSecret string `yaml:"session_secret"`

	// SessionTTL is how long a console session token stays valid.
	// Default: 12h
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// UpstreamConfig contains usage API client settings.
type UpstreamConfig struct {
	// BaseURL is the upstream API base URL.
	// Default: "https://api.anthropic.com"
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds a whole usage fetch.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ConnectTimeout bounds connection establishment.
	// Default: 5s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// CredentialsConfig locates the OAuth credential file.
type CredentialsConfig struct {
	// Path is the credential file location. A leading "~/" expands to the
	// user's home directory.
	// Default: "~/.callisto/credentials.json"
	Path string `yaml:"path"`

	// Watch reloads the credential file on change.
	// Default: true
	Watch bool `yaml:"watch"`
}

// CacheConfig contains usage snapshot cache settings.
type CacheConfig struct {
	// Backend selects the cache implementation.
	// Options: "memory", "redis"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// TTL is how long a fetched snapshot is served before the upstream is
	// asked again.
	// Default: 60s
	TTL time.Duration `yaml:"ttl"`

	// Redis contains connection settings for the redis backend. Only used
	// when Backend is "redis" (shared cache across proxy instances).
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains redis connection settings for the shared cache.
type RedisConfig struct {
	// Addrs lists redis server addresses.
	Addrs []string `yaml:"addrs"`

	// Username authenticates the connection (optional).
	Username string `yaml:"username"`

	// Password authenticates the connection (optional).
	Password string `yaml:"password"`

	// DB is the redis database number.
	// Default: 0
	DB int `yaml:"db"`

	// Key is the cache key the snapshot is stored under.
	// Default: "callisto:usage:snapshot"
	Key string `yaml:"key"`
}

// PollerConfig contains background poller settings.
type PollerConfig struct {
	// Enabled controls whether usage is polled in the background.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Interval is the polling cadence. Minimum 5s.
	// Default: 30s
	Interval time.Duration `yaml:"interval"`
}

// StorageConfig contains database locations and SQLite tuning.
type StorageConfig struct {
	// ControlPath is the control-plane database file (API keys, snapshot
	// history).
	// Default: "data/callisto.db"
	ControlPath string `yaml:"control_path"`

	// AnalyticsPath is the per-key usage accounting database file.
	// Default: "data/usage.db"
	AnalyticsPath string `yaml:"analytics_path"`

	// BusyTimeout is the SQLite busy handler timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// CheckpointInterval is how often the control database WAL is
	// checkpointed. Zero disables periodic checkpoints.
	// Default: 5m
	CheckpointInterval time.Duration `yaml:"checkpoint_interval"`
}

// AnalyticsConfig contains retention settings.
type AnalyticsConfig struct {
	// RetentionDays is how long hourly usage rows are kept.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// HistoryDays is how long snapshot history rows are kept.
	// Default: 14
	HistoryDays int `yaml:"history_days"`

	// PruneSchedule is the cron schedule for the retention job
	// (standard 5-field syntax).
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// PricingConfig locates the optional pricing override file.
type PricingConfig struct {
	// Path is a YAML file overriding the built-in model pricing table.
	// Empty disables overrides.
	Path string `yaml:"path"`

	// Watch reloads the pricing file on change.
	// Default: true
	Watch bool `yaml:"watch"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format selects the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name attached to spans.
	// Default: "callisto"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// ExportTimeout bounds span exports.
	// Default: 10s
	ExportTimeout time.Duration `yaml:"export_timeout"`
}
