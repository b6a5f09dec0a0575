package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/analytics"
	"mercator-hq/callisto/pkg/analytics/pricing"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/retention"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/security/session"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/server/handlers"
	"mercator-hq/callisto/pkg/storage"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/telemetry/tracing"
	"mercator-hq/callisto/pkg/usage/cache"
	"mercator-hq/callisto/pkg/usage/client"
	"mercator-hq/callisto/pkg/usage/history"
	"mercator-hq/callisto/pkg/usage/poller"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto management server",
	Long: `Start the Callisto management server with the specified configuration.

The server polls the usage API in the background, serves the management
API and the embedded console, and records per-key usage analytics.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:9000

  # Validate config without starting the server
  callisto run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("invalid configuration: %v", err))
	}

	if _, err := logging.Setup(cfg.Telemetry.Logging); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	// Tracing (noop unless enabled in config).
	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer tracer.Shutdown(context.Background())

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	// Control database: API keys and snapshot history.
	control, err := storage.OpenControl(cfg.Storage)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open control database: %w", err))
	}
	defer control.Close()

	keyStore, err := keys.NewStore(control.DB())
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize key store: %w", err))
	}
	defer keyStore.Close()

	histStore, err := history.NewStore(control.DB())
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize history store: %w", err))
	}
	defer histStore.Close()
	fmt.Printf("✓ Control database: %s\n", control.Path())

	// Analytics database: per-key usage rollups priced at query time.
	prices, err := pricing.Load(cfg.Pricing)
	if err != nil {
		return cli.NewConfigError("pricing.path", err.Error())
	}
	defer prices.Close()

	usageStore, err := analytics.Open(cfg.Storage, prices)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open usage database: %w", err))
	}
	defer usageStore.Close()
	fmt.Printf("✓ Usage database: %s\n", cfg.Storage.AnalyticsPath)

	// OAuth credentials for the upstream usage API.
	creds, err := newCredentialSource(cfg)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open credential source: %w", err))
	}
	defer creds.Close()

	fetcher := client.New(cfg.Upstream, creds)

	snapCache, err := cache.New(cfg.Cache)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize snapshot cache: %w", err))
	}
	defer snapCache.Close()
	fmt.Printf("✓ Snapshot cache: %s\n", cfg.Cache.Backend)

	// Background poller feeding the cache, history, metrics, and the
	// live websocket.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var subscriber handlers.Subscriber
	if cfg.Poller.Enabled {
		p := poller.New(cfg.Poller, fetcher, snapCache, histStore, collector)
		p.Start(ctx)
		defer p.Stop()
		subscriber = p
		fmt.Printf("✓ Usage poller started (every %s)\n", p.Interval())
	}

	// Nightly retention pruning for both databases.
	scheduler, err := retention.NewScheduler(cfg.Analytics, usageStore, histStore)
	if err != nil {
		return cli.NewConfigError("analytics.prune_schedule", err.Error())
	}
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to start retention scheduler: %w", err))
	}
	defer scheduler.Stop()

	sessions, err := session.NewManager(cfg.Console)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize console sessions: %w", err))
	}

	checker := health.New(0)
	checker.Register("control_db", func(ctx context.Context) error {
		return control.DB().PingContext(ctx)
	})
	checker.Register("analytics_db", usageStore.Ping)
	if redisCache, ok := snapCache.(*cache.Redis); ok {
		checker.Register("snapshot_cache", redisCache.Ping)
	}

	h := handlers.New(handlers.Config{
		Fetcher:     fetcher,
		Cache:       snapCache,
		CacheKind:   cfg.Cache.Backend,
		Subscriber:  subscriber,
		Credentials: creds,
		Keys:        keyStore,
		Analytics:   usageStore,
		History:     histStore,
		Sessions:    sessions,
		Metrics:     collector,
		// A report turns stale once two poll cycles pass without a
		// fresh snapshot, matching the poller's own bookkeeping.
		StaleAfter:    2 * cfg.Poller.Interval,
		Version:       Version,
		ListenAddress: cfg.Server.ListenAddress,
	})

	srv := server.New(cfg, server.Deps{
		Handlers: h,
		Sessions: sessions,
		Metrics:  collector,
		Health:   checker,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(ctx)
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	if cfg.Console.Enabled {
		fmt.Printf("✓ Console: http://%s/ui/\n", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		return nil
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		if err := srv.Shutdown(context.Background()); err != nil {
			return cli.NewCommandError("run", err)
		}
		<-errChan

		fmt.Println("✓ Server stopped")
		return nil
	}
}

// newCredentialSource opens the credential file source, falling back to
// an unwatched source when the watcher cannot start (the containing
// directory may not exist yet on a fresh install).
func newCredentialSource(cfg *config.Config) (*credentials.Source, error) {
	src, err := credentials.NewSource(cfg.Credentials.Path, cfg.Credentials.Watch)
	if err == nil || !cfg.Credentials.Watch {
		return src, err
	}
	return credentials.NewSource(cfg.Credentials.Path, false)
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Callisto v%s\n", Version)
	if cfgFile != "" {
		fmt.Printf("Loading configuration from: %s\n", cfgFile)
	} else if found := config.FindConfigFile(); found != "" {
		fmt.Printf("Loading configuration from: %s\n", found)
	} else {
		fmt.Println("No configuration file found, using defaults")
	}
	fmt.Println("✓ Configuration loaded")

	if !cfg.Console.Enabled {
		fmt.Println("  Console disabled")
	} else if cfg.Console.Password == "" {
		fmt.Println("  Console login disabled: console.password is not set")
	}
	if _, err := os.Stat(cfg.Credentials.Path); os.IsNotExist(err) {
		fmt.Printf("  No credential file at %s yet\n", cfg.Credentials.Path)
	}
}
