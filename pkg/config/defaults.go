package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress        = "127.0.0.1:8484"
	DefaultReadTimeout          = 30 * time.Second
	DefaultWriteTimeout         = 30 * time.Second
	DefaultIdleTimeout          = 120 * time.Second
	DefaultServerRequestTimeout = 60 * time.Second
	DefaultShutdownTimeout      = 30 * time.Second
	DefaultMaxHeaderBytes       = 1048576 // 1MB

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Console defaults
	DefaultConsoleEnabled = true
	DefaultSessionTTL     = 12 * time.Hour

	// Upstream defaults
	DefaultUpstreamBaseURL = "https://api.anthropic.com"
	DefaultRequestTimeout  = 30 * time.Second
	DefaultConnectTimeout  = 5 * time.Second

	// Credentials defaults
	DefaultCredentialsPath  = "~/.callisto/credentials.json"
	DefaultCredentialsWatch = true

	// Cache defaults
	DefaultCacheBackend = "memory"
	DefaultCacheTTL     = 60 * time.Second
	DefaultRedisKey     = "callisto:usage:snapshot"

	// Poller defaults
	DefaultPollerEnabled  = true
	DefaultPollerInterval = 30 * time.Second
	MinPollerInterval     = 5 * time.Second

	// Storage defaults
	DefaultControlPath        = "data/callisto.db"
	DefaultAnalyticsPath      = "data/usage.db"
	DefaultBusyTimeout        = 5 * time.Second
	DefaultCheckpointInterval = 5 * time.Minute

	// Analytics defaults
	DefaultRetentionDays = 90
	DefaultHistoryDays   = 14
	DefaultPruneSchedule = "0 3 * * *"

	// Pricing defaults
	DefaultPricingWatch = true

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsEnabled       = true
	DefaultPrometheusPath       = "/metrics"
	DefaultMetricsNamespace     = "callisto"
	DefaultTracingSampler       = "ratio"
	DefaultTracingSampleRatio   = 0.1
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingServiceName   = "callisto"
	DefaultTracingInsecure      = true
	DefaultTracingExportTimeout = 10 * time.Second
)

// DefaultConfig returns a fully-populated configuration with every field
// at its default. LoadConfig unmarshals the YAML file over this seed, so
// booleans that default to true survive an absent key while an explicit
// "enabled: false" still wins.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   DefaultListenAddress,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			RequestTimeout:  DefaultServerRequestTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxHeaderBytes:  DefaultMaxHeaderBytes,
			CORS: CORSConfig{
				Enabled: DefaultCORSEnabled,
				AllowedOrigins: []string{
					"http://localhost:8484",
					"http://127.0.0.1:8484",
				},
				MaxAge: DefaultCORSMaxAge,
			},
		},
		Console: ConsoleConfig{
			Enabled:    DefaultConsoleEnabled,
			SessionTTL: DefaultSessionTTL,
		},
		Upstream: UpstreamConfig{
			BaseURL:        DefaultUpstreamBaseURL,
			RequestTimeout: DefaultRequestTimeout,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Credentials: CredentialsConfig{
			Path:  DefaultCredentialsPath,
			Watch: DefaultCredentialsWatch,
		},
		Cache: CacheConfig{
			Backend: DefaultCacheBackend,
			TTL:     DefaultCacheTTL,
			Redis: RedisConfig{
				Key: DefaultRedisKey,
			},
		},
		Poller: PollerConfig{
			Enabled:  DefaultPollerEnabled,
			Interval: DefaultPollerInterval,
		},
		Storage: StorageConfig{
			ControlPath:        DefaultControlPath,
			AnalyticsPath:      DefaultAnalyticsPath,
			BusyTimeout:        DefaultBusyTimeout,
			CheckpointInterval: DefaultCheckpointInterval,
		},
		Analytics: AnalyticsConfig{
			RetentionDays: DefaultRetentionDays,
			HistoryDays:   DefaultHistoryDays,
			PruneSchedule: DefaultPruneSchedule,
		},
		Pricing: PricingConfig{
			Watch: DefaultPricingWatch,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  DefaultLoggingLevel,
				Format: DefaultLoggingFormat,
			},
			Metrics: MetricsConfig{
				Enabled:   DefaultMetricsEnabled,
				Path:      DefaultPrometheusPath,
				Namespace: DefaultMetricsNamespace,
			},
			Tracing: TracingConfig{
				Sampler:       DefaultTracingSampler,
				SampleRatio:   DefaultTracingSampleRatio,
				Endpoint:      DefaultTracingEndpoint,
				ServiceName:   DefaultTracingServiceName,
				Insecure:      DefaultTracingInsecure,
				ExportTimeout: DefaultTracingExportTimeout,
			},
		},
	}
}

// ApplyDefaults fills default values into zero-valued scalar fields and
// normalizes paths. Boolean fields are left untouched; callers building a
// configuration programmatically should start from DefaultConfig.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultServerRequestTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if len(cfg.Server.CORS.AllowedOrigins) == 0 {
		cfg.Server.CORS.AllowedOrigins = []string{
			"http://localhost:8484",
			"http://127.0.0.1:8484",
		}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Console
	if cfg.Console.SessionTTL == 0 {
		cfg.Console.SessionTTL = DefaultSessionTTL
	}

	// Upstream
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if cfg.Upstream.RequestTimeout == 0 {
		cfg.Upstream.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Upstream.ConnectTimeout == 0 {
		cfg.Upstream.ConnectTimeout = DefaultConnectTimeout
	}

	// Credentials
	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = DefaultCredentialsPath
	}
	cfg.Credentials.Path = expandHome(cfg.Credentials.Path)

	// Cache
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.Redis.Key == "" {
		cfg.Cache.Redis.Key = DefaultRedisKey
	}

	// Poller
	if cfg.Poller.Interval == 0 {
		cfg.Poller.Interval = DefaultPollerInterval
	}

	// Storage
	if cfg.Storage.ControlPath == "" {
		cfg.Storage.ControlPath = DefaultControlPath
	}
	if cfg.Storage.AnalyticsPath == "" {
		cfg.Storage.AnalyticsPath = DefaultAnalyticsPath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Storage.CheckpointInterval == 0 {
		cfg.Storage.CheckpointInterval = DefaultCheckpointInterval
	}

	// Analytics
	if cfg.Analytics.RetentionDays == 0 {
		cfg.Analytics.RetentionDays = DefaultRetentionDays
	}
	if cfg.Analytics.HistoryDays == 0 {
		cfg.Analytics.HistoryDays = DefaultHistoryDays
	}
	if cfg.Analytics.PruneSchedule == "" {
		cfg.Analytics.PruneSchedule = DefaultPruneSchedule
	}

	// Pricing
	if cfg.Pricing.Path != "" {
		cfg.Pricing.Path = expandHome(cfg.Pricing.Path)
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.ExportTimeout == 0 {
		cfg.Telemetry.Tracing.ExportTimeout = DefaultTracingExportTimeout
	}
}

// expandHome resolves a leading "~/" against the user's home directory.
// The path is returned unchanged when the home directory cannot be
// determined.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
