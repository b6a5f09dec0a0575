package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span Attribute Helpers
//
// These functions set common attributes on spans with consistent naming.
// Standard keys follow OpenTelemetry semantic conventions (http.*, db.*);
// domain keys use the "callisto.*" namespace.

// Common attribute keys used throughout the system
const (
	// Request attributes
	AttrRequestID = "callisto.request_id"
	AttrKeyID     = "callisto.key_id"
	AttrKeyPrefix = "callisto.key_prefix"
	AttrModel     = "callisto.model"

	// Cache attributes
	AttrCacheHit     = "callisto.cache.hit"
	AttrCacheBackend = "callisto.cache.backend"

	// Store attributes
	AttrDB        = "callisto.db"
	AttrOperation = "callisto.db.operation"
	AttrRows      = "callisto.db.rows"

	// Error attributes
	AttrErrorType    = "callisto.error.type"
	AttrErrorMessage = "error.message"
)

// SetWindowAttributes sets quota window classification attributes on a
// span. Keys are namespaced by window ("callisto.five_hour.utilization")
// so one span can carry both windows of a poll cycle.
//
// Example:
//
//	SetWindowAttributes(span, "five_hour", 42.0, 0.84, "green")
func SetWindowAttributes(span trace.Span, window string, utilization, burnRate float64, status string) {
	prefix := "callisto." + window
	span.SetAttributes(
		attribute.Float64(prefix+".utilization", utilization),
		attribute.Float64(prefix+".burn_rate", burnRate),
		attribute.String(prefix+".status", status),
	)
}

// SetKeyAttributes sets API key attributes on a span. Only the key ID
// and display prefix are recorded, never the key itself.
func SetKeyAttributes(span trace.Span, keyID, prefix string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrKeyID, keyID),
	}
	if prefix != "" {
		attrs = append(attrs, attribute.String(AttrKeyPrefix, prefix))
	}
	span.SetAttributes(attrs...)
}

// SetCacheAttributes sets snapshot cache attributes on a span.
func SetCacheAttributes(span trace.Span, backend string, hit bool) {
	span.SetAttributes(
		attribute.String(AttrCacheBackend, backend),
		attribute.Bool(AttrCacheHit, hit),
	)
}

// SetStoreAttributes sets database operation attributes on a span.
func SetStoreAttributes(span trace.Span, db, operation string, rows int64) {
	span.SetAttributes(
		attribute.String(AttrDB, db),
		attribute.String(AttrOperation, operation),
		attribute.Int64(AttrRows, rows),
	)
}
