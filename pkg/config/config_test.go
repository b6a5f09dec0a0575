package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "callisto.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

// ============================================================================
// Load Tests
// ============================================================================

func TestLoadConfig_Empty(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("Expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if !cfg.Console.Enabled {
		t.Error("Expected console enabled by default")
	}
	if !cfg.Poller.Enabled {
		t.Error("Expected poller enabled by default")
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Expected memory cache backend, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.TTL != DefaultCacheTTL {
		t.Errorf("Expected default cache TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Analytics.RetentionDays != DefaultRetentionDays {
		t.Errorf("Expected default retention, got %d", cfg.Analytics.RetentionDays)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "0.0.0.0:9000"
  read_timeout: 10s
console:
  password: "hunter2"
  session_ttl: 1h
cache:
  ttl: 2m
poller:
  interval: 15s
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("Expected overridden listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Expected 10s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Console.Password != "hunter2" {
		t.Errorf("Expected console password, got %q", cfg.Console.Password)
	}
	if cfg.Console.SessionTTL != time.Hour {
		t.Errorf("Expected 1h session TTL, got %v", cfg.Console.SessionTTL)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("Expected 2m cache TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Poller.Interval != 15*time.Second {
		t.Errorf("Expected 15s poll interval, got %v", cfg.Poller.Interval)
	}

	// Untouched sections keep their defaults.
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Upstream.BaseURL != DefaultUpstreamBaseURL {
		t.Errorf("Expected default upstream URL, got %q", cfg.Upstream.BaseURL)
	}
}

func TestLoadConfig_ExplicitDisableSurvivesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
console:
  enabled: false
poller:
  enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Console.Enabled {
		t.Error("Explicit console disable was overridden by defaults")
	}
	if cfg.Poller.Enabled {
		t.Error("Explicit poller disable was overridden by defaults")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected error for malformed YAML")
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:7000"
`)

	t.Setenv("CALLISTO_SERVER_LISTEN_ADDRESS", "127.0.0.1:7100")
	t.Setenv("CALLISTO_POLLER_INTERVAL", "45s")
	t.Setenv("CALLISTO_METRICS_ENABLED", "false")
	t.Setenv("CALLISTO_CACHE_REDIS_ADDRS", "redis-a:6379, redis-b:6379")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:7100" {
		t.Errorf("Expected env override to win, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Poller.Interval != 45*time.Second {
		t.Errorf("Expected 45s interval from env, got %v", cfg.Poller.Interval)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Expected metrics disabled via env")
	}
	if len(cfg.Cache.Redis.Addrs) != 2 || cfg.Cache.Redis.Addrs[1] != "redis-b:6379" {
		t.Errorf("Unexpected redis addrs: %v", cfg.Cache.Redis.Addrs)
	}
}

func TestLoadOrDefault(t *testing.T) {
	// An explicit path loads that file.
	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:7200"
`)
	cfg, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault with path failed: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:7200" {
		t.Errorf("Expected configured listen address, got %q", cfg.Server.ListenAddress)
	}

	// No file anywhere: built-in defaults with env overrides applied.
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CALLISTO_SERVER_LISTEN_ADDRESS", "127.0.0.1:7300")

	cfg, err = LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault without file failed: %v", err)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:7300" {
		t.Errorf("Expected env override on defaults, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Cache.Backend != DefaultCacheBackend {
		t.Errorf("Expected default cache backend, got %q", cfg.Cache.Backend)
	}
}

// ============================================================================
// Validation Tests
// ============================================================================

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("Default configuration must validate, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.ListenAddress = "no-port"
	cfg.Cache.Backend = "memcached"
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation errors")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("Expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestValidate_RedisBackendNeedsAddrs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = "redis"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for redis backend without addresses")
	}
	if !strings.Contains(err.Error(), "cache.redis.addrs") {
		t.Errorf("Expected cache.redis.addrs error, got: %v", err)
	}

	cfg.Cache.Redis.Addrs = []string{"localhost:6379"}
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid redis config, got: %v", err)
	}
}

func TestValidate_PollerInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Poller.Interval = time.Second

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for sub-minimum poll interval")
	}

	// A disabled poller may keep any interval.
	cfg.Poller.Enabled = false
	if err := Validate(cfg); err != nil {
		t.Errorf("Expected disabled poller to skip interval check, got: %v", err)
	}
}

func TestValidate_SharedDatabaseFileRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.ControlPath = "data/one.db"
	cfg.Storage.AnalyticsPath = "data/one.db"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for shared database file")
	}
}

func TestValidate_TracingEndpointRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Tracing.Enabled = true
	cfg.Telemetry.Tracing.Endpoint = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for enabled tracing without endpoint")
	}
}

// ============================================================================
// Defaults Tests
// ============================================================================

func TestApplyDefaults_FillsZeroScalars(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("Expected default listen address, got %q", cfg.Server.ListenAddress)
	}
	if cfg.Storage.ControlPath != DefaultControlPath {
		t.Errorf("Expected default control path, got %q", cfg.Storage.ControlPath)
	}
	if cfg.Analytics.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("Expected default prune schedule, got %q", cfg.Analytics.PruneSchedule)
	}
}

func TestApplyDefaults_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}

	var cfg Config
	cfg.Credentials.Path = "~/creds.json"
	ApplyDefaults(&cfg)

	want := filepath.Join(home, "creds.json")
	if cfg.Credentials.Path != want {
		t.Errorf("Expected %q, got %q", want, cfg.Credentials.Path)
	}
}
