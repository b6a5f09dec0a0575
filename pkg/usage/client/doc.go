// Package client implements the upstream usage API client.
//
// The client issues authenticated GET requests against the OAuth usage
// endpoint and decodes the response into a usage.Snapshot. Authentication
// uses the Claude CLI OAuth access token supplied by a TokenSource,
// together with the anthropic-beta flag the endpoint requires.
//
// Each Fetch is a single attempt: the 60 second snapshot cache and the
// 30 second poller cadence absorb transient failures, so the client does
// not retry on its own. Failures are typed so callers can translate them:
//
//   - credentials.ErrNoCredential / credentials.ErrExpired pass through
//     from the token source (console responds 401 authentication_error)
//   - *TimeoutError for requests exceeding the configured timeout
//     (console responds 504 timeout_error)
//   - *UpstreamError for non-200 upstream responses
//   - *ParseError for undecodable 200 bodies
package client
