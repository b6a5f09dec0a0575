package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPaths are searched in order when no --config flag is given.
var DefaultConfigPaths = []string{
	"./callisto.yaml",
	"~/.callisto/config.yaml",
	"/etc/callisto/config.yaml",
}

// FindConfigFile returns the first existing path from DefaultConfigPaths,
// or an empty string when none exists.
func FindConfigFile() string {
	for _, path := range DefaultConfigPaths {
		expanded := expandHome(path)
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}
	return ""
}

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is unmarshaled over a fully-defaulted configuration, remaining
// zero-valued scalars are defaulted, and the result is validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g. CALLISTO_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML over defaults
//  2. Apply environment variable overrides
//  3. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads the configuration from path, falling back to the
// default search paths when path is empty, and to the built-in defaults
// when no file exists anywhere. Environment overrides and validation
// apply in every case, so a fileless deployment driven entirely by
// CALLISTO_* variables works.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		path = FindConfigFile()
	}
	if path != "" {
		return LoadConfigWithEnvOverrides(path)
	}

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format CALLISTO_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("CALLISTO_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CALLISTO_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Console overrides
	if val := os.Getenv("CALLISTO_CONSOLE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Console.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_CONSOLE_PASSWORD"); val != "" {
		cfg.Console.Password = val
	}
	if val := os.Getenv("CALLISTO_CONSOLE_SESSION_SECRET"); val != "" {
		cfg.Console.SessionSecret = val
	}
	if val := os.Getenv("CALLISTO_CONSOLE_SESSION_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Console.SessionTTL = d
		}
	}

	// Upstream overrides
	if val := os.Getenv("CALLISTO_UPSTREAM_BASE_URL"); val != "" {
		cfg.Upstream.BaseURL = val
	}
	if val := os.Getenv("CALLISTO_UPSTREAM_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Upstream.RequestTimeout = d
		}
	}

	// Credentials overrides
	if val := os.Getenv("CALLISTO_CREDENTIALS_PATH"); val != "" {
		cfg.Credentials.Path = expandHome(val)
	}

	// Cache overrides
	if val := os.Getenv("CALLISTO_CACHE_BACKEND"); val != "" {
		cfg.Cache.Backend = val
	}
	if val := os.Getenv("CALLISTO_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if val := os.Getenv("CALLISTO_CACHE_REDIS_ADDRS"); val != "" {
		cfg.Cache.Redis.Addrs = splitAndTrim(val)
	}
	if val := os.Getenv("CALLISTO_CACHE_REDIS_PASSWORD"); val != "" {
		cfg.Cache.Redis.Password = val
	}

	// Poller overrides
	if val := os.Getenv("CALLISTO_POLLER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Poller.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_POLLER_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Poller.Interval = d
		}
	}

	// Storage overrides
	if val := os.Getenv("CALLISTO_STORAGE_CONTROL_PATH"); val != "" {
		cfg.Storage.ControlPath = val
	}
	if val := os.Getenv("CALLISTO_STORAGE_ANALYTICS_PATH"); val != "" {
		cfg.Storage.AnalyticsPath = val
	}

	// Analytics overrides
	if val := os.Getenv("CALLISTO_ANALYTICS_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Analytics.RetentionDays = i
		}
	}
	if val := os.Getenv("CALLISTO_ANALYTICS_PRUNE_SCHEDULE"); val != "" {
		cfg.Analytics.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("CALLISTO_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CALLISTO_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}

// splitAndTrim splits a comma-separated list and trims whitespace around
// each element, dropping empties.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
