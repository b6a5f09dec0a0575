package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g. "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All errors are collected
// and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateConsole(&cfg.Console)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validatePoller(&cfg.Poller)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateAnalytics(&cfg.Analytics)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid host:port %q: %v", cfg.ListenAddress, err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "timeout must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "timeout must not be negative",
		})
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.request_timeout",
			Message: "request timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	return errs
}

func validateConsole(cfg *ConsoleConfig) []FieldError {
	var errs []FieldError

	if cfg.SessionTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "console.session_ttl",
			Message: "session TTL must be positive",
		})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
		})
	}

	if cfg.RequestTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "upstream.request_timeout",
			Message: "request timeout must be positive",
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "redis":
		if len(cfg.Redis.Addrs) == 0 {
			errs = append(errs, FieldError{
				Field:   "cache.redis.addrs",
				Message: "at least one address is required for the redis backend",
			})
		}
		if cfg.Redis.Key == "" {
			errs = append(errs, FieldError{
				Field:   "cache.redis.key",
				Message: "cache key is required for the redis backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cache.backend",
			Message: fmt.Sprintf("unknown backend %q (valid: memory, redis)", cfg.Backend),
		})
	}

	if cfg.TTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.ttl",
			Message: "TTL must be positive",
		})
	}

	return errs
}

func validatePoller(cfg *PollerConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.Interval < MinPollerInterval {
		errs = append(errs, FieldError{
			Field:   "poller.interval",
			Message: fmt.Sprintf("interval must be at least %s", MinPollerInterval),
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.ControlPath == "" {
		errs = append(errs, FieldError{
			Field:   "storage.control_path",
			Message: "control database path is required",
		})
	}
	if cfg.AnalyticsPath == "" {
		errs = append(errs, FieldError{
			Field:   "storage.analytics_path",
			Message: "analytics database path is required",
		})
	}
	if cfg.ControlPath != "" && cfg.ControlPath == cfg.AnalyticsPath {
		errs = append(errs, FieldError{
			Field:   "storage.analytics_path",
			Message: "control and analytics databases must be separate files",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}

	return errs
}

func validateAnalytics(cfg *AnalyticsConfig) []FieldError {
	var errs []FieldError

	if cfg.RetentionDays < 1 {
		errs = append(errs, FieldError{
			Field:   "analytics.retention_days",
			Message: "retention must be at least one day",
		})
	}
	if cfg.HistoryDays < 1 {
		errs = append(errs, FieldError{
			Field:   "analytics.history_days",
			Message: "history retention must be at least one day",
		})
	}
	if cfg.PruneSchedule == "" {
		errs = append(errs, FieldError{
			Field:   "analytics.prune_schedule",
			Message: "prune schedule is required",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("unknown sampler %q (valid: always, never, ratio)", cfg.Tracing.Sampler),
		})
	}

	if cfg.Tracing.Sampler == "ratio" &&
		(cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1) {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "endpoint is required when tracing is enabled",
		})
	}

	return errs
}
