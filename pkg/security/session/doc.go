// Package session issues and verifies admin console session tokens.
//
// A session is an HS256 JWT bound to the single console principal. The
// manager checks the configured console password at login and hands out
// a token with the configured TTL (default 12h). Verification accepts
// only tokens signed with the current secret; when no secret is
// configured one is generated at startup, which invalidates all
// sessions on restart.
//
// The package deliberately knows nothing about HTTP. The server's
// middleware extracts tokens from requests and maps verification
// failures to 401 responses.
package session
