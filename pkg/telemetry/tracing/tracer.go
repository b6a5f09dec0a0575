package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mercator-hq/callisto/pkg/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"
)

// defaultServiceName identifies this process in exported traces when
// the config leaves service_name empty.
const defaultServiceName = "callisto"

// exporterDialTimeout bounds the initial OTLP exporter setup.
const exporterDialTimeout = 10 * time.Second

// Tracer owns the OpenTelemetry SDK setup for the management plane.
// With tracing disabled it degrades to a noop tracer, so call sites
// never branch on configuration.
type Tracer struct {
	tracer trace.Tracer

	// provider is nil when tracing is disabled.
	provider *sdktrace.TracerProvider
}

// New builds a Tracer from the telemetry.tracing config section.
//
// When tracing is enabled this installs a batching OTLP gRPC exporter
// and registers the W3C trace-context and baggage propagators as the
// process globals, so StartSpan and Inject pick them up everywhere.
// The caller owns the tracer's lifecycle:
//
//	defer tracer.Shutdown(context.Background())
func New(cfg *config.TracingConfig) (*Tracer, error) {
	if cfg == nil {
		return nil, errors.New("tracing config is nil")
	}

	name := cfg.ServiceName
	if name == "" {
		name = defaultServiceName
	}

	if !cfg.Enabled {
		return &Tracer{tracer: noop.NewTracerProvider().Tracer(name)}, nil
	}

	sampler, err := newSampler(cfg.Sampler, cfg.SampleRatio)
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	exporter, err := newExporter(cfg)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{
		tracer:   provider.Tracer(name),
		provider: provider,
	}, nil
}

// newExporter dials the OTLP collector endpoint from the config.
func newExporter(cfg *config.TracingConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	if cfg.ExportTimeout > 0 {
		opts = append(opts, otlptracegrpc.WithTimeout(cfg.ExportTimeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}
	return exporter, nil
}

// Start opens a span named after the operation, parented to whatever
// span the context already carries. End the span when the operation
// completes:
//
//	ctx, span := tracer.Start(ctx, "keys.create")
//	defer span.End()
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// Enabled reports whether spans are actually exported.
func (t *Tracer) Enabled() bool {
	return t.provider != nil
}

// Shutdown flushes buffered spans and releases the exporter. A noop
// tracer has nothing to flush and returns nil.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}

// StartSpan opens a span on the process-global tracer provider. It is
// the entry point for components that are not handed a *Tracer, like
// the poller loop. Before New has installed a provider (or when tracing
// is disabled) the global provider is a noop and spans cost nothing.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(defaultServiceName).Start(ctx, name, opts...)
}

// SpanFromContext returns the span the context carries, or a noop span
// when there is none.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// TraceID returns the active trace ID as a hex string, or "" when the
// context carries no valid trace. Useful for correlating log lines
// with exported traces.
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SetError records err on the span and tags it as failed. Nil errors
// are ignored so callers can invoke it unconditionally.
func SetError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(
		attribute.Bool("error", true),
		attribute.String(AttrErrorMessage, err.Error()),
	)
	span.RecordError(err)
}

// SetStatus sets the span status from an operation's outcome: Ok when
// err is nil, Error with the message otherwise.
func SetStatus(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
