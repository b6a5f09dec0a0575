// Package tracing provides OpenTelemetry distributed tracing for
// Callisto over OTLP gRPC.
//
// New reads the telemetry.tracing config section, installs the
// process-global tracer provider and the W3C trace-context propagators,
// and hands back a Tracer the run command shuts down on exit:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// Instrumented paths span the poll cycle and the admin API. The poller
// opens a span per cycle through the global provider and records the
// classified windows on it:
//
//	ctx, span := tracing.StartSpan(ctx, "usage.poll")
//	defer span.End()
//	tracing.SetWindowAttributes(span, "five_hour", 42.0, 0.84, "green")
//
// HTTPMiddleware extracts inbound trace context for the admin API and
// reflects the trace ID in X-Trace-ID; the upstream client calls Inject
// so the fetch leg joins the same trace. With tracing disabled New
// returns a noop tracer and the global provider stays noop, so the
// instrumented paths run with no enabled checks and no overhead.
//
// Sampling is configured by telemetry.tracing.sampler: always, never,
// or ratio with sample_ratio deciding the fraction. Decisions are
// parent-based, so a trace is exported whole or not at all.
package tracing
