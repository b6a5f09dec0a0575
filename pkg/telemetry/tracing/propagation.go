package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Trace context crosses process boundaries in the W3C traceparent and
// tracestate headers (https://www.w3.org/TR/trace-context/). Incoming
// admin API requests extract it; the upstream usage client injects it,
// so a fetch triggered by a console request stays in one trace.

// Extract pulls trace context out of incoming request headers. When the
// headers carry none, the context comes back unchanged.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the context's trace context into outgoing request
// headers. Call it after building the request, before sending:
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
//	tracing.Inject(ctx, req.Header)
func Inject(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// HTTPMiddleware extracts trace context from each incoming request and
// reflects the active trace ID in the X-Trace-ID response header, so a
// console error can be matched to its backend trace.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := Extract(r.Context(), r.Header)

		if id := TraceID(ctx); id != "" {
			w.Header().Set("X-Trace-ID", id)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
