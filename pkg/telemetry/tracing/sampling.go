package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler maps the configured strategy onto an SDK sampler:
//
//	always  sample every trace (development)
//	never   sample nothing
//	ratio   sample a fraction, decided by trace ID hash
//
// The ratio decision hashes the trace ID, so the same trace gets the
// same answer on every service that sees it. Whatever the strategy,
// the result is wrapped in ParentBased: a child span follows its
// parent's decision, and a trace is captured whole or not at all.
func newSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	var root sdktrace.Sampler

	switch strategy {
	case "always":
		root = sdktrace.AlwaysSample()
	case "never":
		root = sdktrace.NeverSample()
	case "ratio":
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %v", ratio)
		}
		root = sdktrace.TraceIDRatioBased(ratio)
	default:
		return nil, fmt.Errorf("unknown sampler strategy %q (valid: always, never, ratio)", strategy)
	}

	return sdktrace.ParentBased(root), nil
}
