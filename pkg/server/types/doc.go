// Package types defines the wire types of the management API.
//
// This package contains the request and response bodies served under
// /api, plus the error envelope shared by every endpoint. Handlers and
// middleware both import it, so error answers look the same whether a
// request failed in routing, in auth, or in a handler.
//
// # Core Types
//
// Request types:
//   - LoginRequest: console password login
//   - CreateKeyRequest, RenameKeyRequest: key management bodies
//
// Response types:
//   - ServerStatus: GET /api/server/status
//   - LoginResponse: session token with expiry
//   - KeyUsage: per-key usage breakdown with costs
//   - HistoryResponse, HistoryEntry: persisted snapshot history
//
// Error types:
//   - ErrorResponse, ErrorDetail: the {"error": {"type", "message"}}
//     envelope
//
// Domain types that already carry JSON tags (keys.Key, usage.Report,
// analytics.Summary and friends, credentials.Status) are served
// directly and are not duplicated here.
//
// # JSON Serialization
//
// All types use standard encoding/json with snake_case field names.
package types
