package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UpstreamError represents a non-200 response from the usage API.
// It carries the HTTP status code plus the error type and message decoded
// from the upstream error envelope, so handlers can translate the failure
// into their own response without re-parsing the body.
type UpstreamError struct {
	// StatusCode is the HTTP status code returned upstream.
	StatusCode int

	// Type is the machine-readable error type from the upstream envelope
	// (e.g. "authentication_error"). Empty when the body had no envelope.
	Type string

	// Message is the human-readable error message. Falls back to the raw
	// response body when the envelope could not be decoded.
	Message string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("usage api error (status %d, %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("usage api error (status %d): %s", e.StatusCode, e.Message)
}

// errorEnvelope is the upstream error body shape:
//
//	{"error": {"type": "authentication_error", "message": "..."}}
type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// newUpstreamError builds an UpstreamError from a non-200 response body.
// It decodes the standard error envelope when present and otherwise keeps
// the trimmed raw body as the message.
func newUpstreamError(statusCode int, body []byte) *UpstreamError {
	e := &UpstreamError{StatusCode: statusCode}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		e.Type = envelope.Error.Type
		e.Message = envelope.Error.Message
		return e
	}

	e.Message = strings.TrimSpace(string(body))
	return e
}

// TimeoutError represents a usage fetch that exceeded the configured
// request timeout. Handlers map it to a 504 gateway timeout.
type TimeoutError struct {
	// Timeout is the configured request timeout.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("usage api request timeout after %s", e.Timeout)
}

// ParseError represents a response the usage API returned with status 200
// but whose body could not be decoded.
type ParseError struct {
	// RawResponse is the response body that failed to parse.
	RawResponse string

	// Cause is the underlying decode error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("usage api response parse error: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
