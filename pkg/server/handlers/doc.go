// Package handlers implements the management API endpoints.
//
// This package holds one Handlers value with a method per endpoint: the
// server status and credential status reads, console login, the cached
// and live usage views, snapshot history, and API key management with
// its per-key usage breakdowns. The server package mounts the methods
// on its router; handlers never see routing or middleware concerns.
//
// # Endpoints
//
// Status and authentication:
//   - ServerStatus: GET /api/server/status
//   - Login: POST /api/auth/login
//   - ClaudeAuthStatus: GET /api/auth/claude/status
//
// Usage views:
//   - Usage: GET /api/usage (cache-first, live fetch on miss)
//   - LiveUsage: GET /api/usage/live (websocket, one report per poll)
//   - UsageHistory: GET /api/usage/history?hours=24
//
// Key management:
//   - ListKeys, CreateKey, RenameKey, DeleteKey on /api/keys
//   - KeyUsageSummary, KeyUsage on /api/keys/{keyID}/usage...
//
// # Error Handling
//
// Every error response uses the same envelope:
//
//	{
//	  "error": {
//	    "type": "authentication_error",
//	    "message": "OAuth expired; please authenticate using the CLI"
//	  }
//	}
//
// Domain errors are translated by a single handler chain (errors.go):
// missing or expired credentials map to 401, fetch timeouts to 504,
// upstream failures relay the upstream envelope as 502, and unknown
// keys map to 404. Anything unmatched falls through to a logged 500.
//
// # Dependencies
//
// Handlers depend on small interfaces (Fetcher, Subscriber,
// CredentialStatus, Metrics) rather than the concrete client and
// poller, so tests substitute fakes while production wires the real
// types. The stores are used directly; tests run them on in-memory
// SQLite.
package handlers
