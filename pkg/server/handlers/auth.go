package handlers

import (
	"errors"
	"net/http"

	"mercator-hq/callisto/pkg/security/session"
	"mercator-hq/callisto/pkg/server/types"
)

// Login handles POST /api/auth/login. A wrong password and a missing
// console password configuration both answer 401; the distinction is
// only visible in the server log.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, expiresAt, err := h.sessions.Login(req.Password)
	if err != nil {
		if errors.Is(err, session.ErrLoginDisabled) || errors.Is(err, session.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, types.ErrorTypeAuthentication, "Invalid password")
			return
		}
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// ClaudeAuthStatus handles GET /api/auth/claude/status. It reports the
// OAuth credential state the proxy itself runs on, never token material.
func (h *Handlers) ClaudeAuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.credentials.Status())
}
