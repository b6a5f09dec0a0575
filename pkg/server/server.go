package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/console"
	"mercator-hq/callisto/pkg/server/handlers"
	"mercator-hq/callisto/pkg/server/middleware"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"
	"mercator-hq/callisto/pkg/telemetry/tracing"
)

// Server is the management HTTP server: the API the console and CLI
// talk to, plus health, metrics, and the embedded console itself.
type Server struct {
	config       *config.Config
	handlers     *handlers.Handlers
	sessions     middleware.Verifier
	metrics      *metrics.Collector
	health       *health.Checker
	httpServer   *http.Server
	shutdownChan chan struct{}
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Deps bundles the collaborators the server serves. Handlers and
// Sessions are required; a nil Metrics disables the scrape endpoint and
// a nil Health checker reports ready unconditionally.
type Deps struct {
	Handlers *handlers.Handlers
	Sessions middleware.Verifier
	Metrics  *metrics.Collector
	Health   *health.Checker
}

// New creates the management server.
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.New(0)
	}

	return &Server{
		config:       cfg,
		handlers:     deps.Handlers,
		sessions:     deps.Sessions,
		metrics:      deps.Metrics,
		health:       deps.Health,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until the context is
// cancelled, a shutdown signal arrives, Stop is called, or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        s.routes(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting management server",
			"address", s.config.Server.ListenAddress,
			"console_enabled", s.config.Console.Enabled,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop asks a blocked Start to shut the server down. Safe to call from
// any goroutine and more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// Shutdown gracefully shuts down the server, waiting up to the
// configured shutdown timeout for in-flight requests. Idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	// Wake a blocked Start so it returns once shutdown completes.
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})

	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	slog.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	slog.Info("management server stopped")
	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, for tests that drive the
// full router without a listener.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// routes builds the router and middleware chain. Session auth sits in
// the shared chain and enforces only /api/ paths, so health, metrics,
// and console assets stay public. The live usage websocket is the one
// route mounted outside the timeout handler, which rejects connection
// hijacking.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.RequestIDMiddleware)
	r.Use(tracing.HTTPMiddleware)
	r.Use(middleware.LoggingMiddleware)
	if s.metrics != nil {
		r.Use(middleware.MetricsMiddleware(s.metrics))
	}
	r.Use(middleware.CORSMiddleware(s.config.Server.CORS))
	r.Use(middleware.SessionMiddleware(s.sessions))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, types.NewNotFoundError("Not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusMethodNotAllowed,
			types.NewInvalidRequestError("Method not allowed"))
	})

	r.Get("/api/usage/live", s.handlers.LiveUsage)

	r.Group(func(r chi.Router) {
		r.Use(middleware.TimeoutMiddleware(s.config.Server.RequestTimeout))

		r.Get("/healthz", s.health.LivenessHandler())
		r.Get("/readyz", s.health.ReadinessHandler())

		if s.metrics != nil && s.config.Telemetry.Metrics.Enabled {
			r.Handle(s.config.Telemetry.Metrics.Path, s.metrics.Handler())
		}

		r.Post("/api/auth/login", s.handlers.Login)
		r.Get("/api/auth/claude/status", s.handlers.ClaudeAuthStatus)
		r.Get("/api/server/status", s.handlers.ServerStatus)
		r.Get("/api/usage", s.handlers.Usage)
		r.Get("/api/usage/history", s.handlers.UsageHistory)

		r.Route("/api/keys", func(r chi.Router) {
			r.Get("/", s.handlers.ListKeys)
			r.Post("/", s.handlers.CreateKey)
			r.Patch("/{keyID}", s.handlers.RenameKey)
			r.Delete("/{keyID}", s.handlers.DeleteKey)
			r.Get("/{keyID}/usage", s.handlers.KeyUsage)
			r.Get("/{keyID}/usage/summary", s.handlers.KeyUsageSummary)
		})

		if s.config.Console.Enabled {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/ui/", http.StatusFound)
			})
			r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
				http.Redirect(w, r, "/ui/", http.StatusFound)
			})
			r.Handle("/ui/*", console.Handler("/ui"))
		}
	})

	return r
}

// writeEnvelope writes the standard error envelope for router-level
// errors (unknown routes, wrong methods).
func writeEnvelope(w http.ResponseWriter, status int, resp *types.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
