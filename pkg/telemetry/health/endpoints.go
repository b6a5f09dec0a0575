package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler serves the /healthz probe. It answers 200 whenever
// the process can serve HTTP at all.
//
// Example response:
//
//	{"status": "ok", "timestamp": "2025-11-20T10:30:00Z"}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		writeStatus(w, r, http.StatusOK, c.Liveness())
	}
}

// ReadinessHandler serves the /readyz probe: 200 when every registered
// dependency check passes, 503 when any fails.
//
// Example response with a failing control database:
//
//	{
//	    "status": "degraded",
//	    "checks": {
//	        "control_db": {"status": "unhealthy", "message": "database is locked"},
//	        "analytics_db": {"status": "ok", "duration_ms": 180000}
//	    },
//	    "timestamp": "2025-11-20T10:30:00Z"
//	}
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Readiness(r.Context())

		code := http.StatusOK
		if status.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		writeStatus(w, r, code, status)
	}
}

func writeStatus(w http.ResponseWriter, r *http.Request, code int, status Status) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	// HEAD probes want the status code only.
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(status)
	}
}
