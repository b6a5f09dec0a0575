package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/security/credentials"
	"mercator-hq/callisto/pkg/server/middleware"
	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/usage/client"
)

// errorHandler tries to translate a domain error into a response.
// Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// newErrorHandlers builds the sentinel-to-status chain walked by
// handleError. Order matters only where errors could match twice;
// credential sentinels sit first because an expired credential also
// surfaces as a 401 from upstream.
func newErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(credentials.ErrNoCredential, http.StatusUnauthorized,
			types.ErrorTypeAuthentication, "OAuth expired; please authenticate using the CLI"),
		sentinelHandler(credentials.ErrExpired, http.StatusUnauthorized,
			types.ErrorTypeAuthentication, "OAuth expired; please authenticate using the CLI"),
		timeoutHandler,
		upstreamHandler,
		parseHandler,
		sentinelHandler(keys.ErrNotFound, http.StatusNotFound,
			types.ErrorTypeNotFound, "API key not found"),
	}
}

// handleError walks the chain and falls back to a plain 500.
func (h *Handlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	for _, handle := range h.errorHandlers {
		if handle(w, err) {
			return
		}
	}

	slog.ErrorContext(r.Context(), "unhandled error",
		"error", err,
		"request_id", middleware.GetRequestID(r.Context()),
		"path", r.URL.Path,
	)
	writeError(w, http.StatusInternalServerError, types.ErrorTypeAPI, "Internal server error")
}

// sentinelHandler returns an errorHandler matching a single sentinel
// error with a fixed response.
func sentinelHandler(sentinel error, status int, errType, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, errType, message)
		return true
	}
}

// timeoutHandler maps fetch timeouts, whether from the upstream
// client's own deadline or the request-level one, to a 504.
func timeoutHandler(w http.ResponseWriter, err error) bool {
	var te *client.TimeoutError
	if !errors.As(err, &te) && !errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	writeError(w, http.StatusGatewayTimeout, types.ErrorTypeTimeout, "Timeout while fetching usage data")
	return true
}

// upstreamHandler relays a non-200 upstream envelope as a 502, keeping
// the upstream error type and message so the console shows what the
// usage API actually said.
func upstreamHandler(w http.ResponseWriter, err error) bool {
	var ue *client.UpstreamError
	if !errors.As(err, &ue) {
		return false
	}

	errType := ue.Type
	if errType == "" {
		errType = types.ErrorTypeAPI
	}
	writeError(w, http.StatusBadGateway, errType, ue.Message)
	return true
}

// parseHandler maps undecodable 200 responses to a 502.
func parseHandler(w http.ResponseWriter, err error) bool {
	var pe *client.ParseError
	if !errors.As(err, &pe) {
		return false
	}
	writeError(w, http.StatusBadGateway, types.ErrorTypeAPI, "Invalid response from usage API")
	return true
}
