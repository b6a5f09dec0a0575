// Package health provides the management server's liveness and
// readiness probes.
//
// # Endpoints
//
//   - /healthz: liveness - the process is up and serving HTTP
//   - /readyz: readiness - every registered dependency check passes
//
// # Usage
//
//	checker := health.New(0)
//
//	checker.Register("control_db", func(ctx context.Context) error {
//	    return controlDB.PingContext(ctx)
//	})
//	checker.Register("credentials", func(ctx context.Context) error {
//	    if !creds.Status().HasToken {
//	        return errors.New("no OAuth credential on disk")
//	    }
//	    return nil
//	})
//
//	mux.HandleFunc("/healthz", checker.LivenessHandler())
//	mux.HandleFunc("/readyz", checker.ReadinessHandler())
//
// # Liveness vs readiness
//
// Liveness answers 200 unconditionally; it only reports that the
// process is alive, so an orchestrator restarts the process on probe
// failure rather than on dependency failure. Readiness runs every
// registered check (concurrently, each under the checker's timeout) and
// answers 503 while any dependency is down, taking the instance out of
// rotation without restarting it.
//
// The checks registered by the callisto server are control_db,
// analytics_db, and snapshot_cache (when the redis backend is
// selected). Credential state is deliberately not a readiness check:
// the console must stay reachable while OAuth is expired so the
// operator can see exactly that on the auth panel.
package health
