package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Benchmark_Liveness benchmarks the liveness probe, which runs on every
// orchestrator poll.
func Benchmark_Liveness(b *testing.B) {
	checker := New(5 * time.Second)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.Liveness()
	}
}

// Benchmark_Readiness benchmarks the readiness probe with the server's
// usual three dependency checks.
func Benchmark_Readiness(b *testing.B) {
	checker := New(5 * time.Second)
	ok := func(ctx context.Context) error { return nil }
	checker.Register("control_db", ok)
	checker.Register("analytics_db", ok)
	checker.Register("snapshot_cache", ok)

	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = checker.Readiness(ctx)
	}
}

// Benchmark_LivenessHandler benchmarks the full HTTP liveness path.
func Benchmark_LivenessHandler(b *testing.B) {
	handler := New(5 * time.Second).LivenessHandler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}
