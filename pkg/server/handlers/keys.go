package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"mercator-hq/callisto/pkg/keys"
	"mercator-hq/callisto/pkg/server/types"
)

// ListKeys handles GET /api/keys. Plaintext secrets and digests are
// never part of the listing.
func (h *Handlers) ListKeys(w http.ResponseWriter, r *http.Request) {
	list, err := h.keys.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if list == nil {
		list = []*keys.Key{}
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateKey handles POST /api/keys. The response is the only place the
// plaintext key ever appears.
func (h *Handlers) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req types.CreateKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, types.ErrorTypeInvalidRequest, "Key name is required")
		return
	}

	created, err := h.keys.Create(r.Context(), req.Name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// RenameKey handles PATCH /api/keys/{keyID} and returns the updated key.
func (h *Handlers) RenameKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	var req types.RenameKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, types.ErrorTypeInvalidRequest, "Key name is required")
		return
	}

	if err := h.keys.Rename(r.Context(), keyID, req.Name); err != nil {
		h.handleError(w, r, err)
		return
	}

	key, err := h.keys.Get(r.Context(), keyID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, key)
}

// DeleteKey handles DELETE /api/keys/{keyID}. The key's analytics rows
// go with it; a failure there only logs, since the key itself is
// already gone and re-running the delete cannot bring it back.
func (h *Handlers) DeleteKey(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	if err := h.keys.Delete(r.Context(), keyID); err != nil {
		h.handleError(w, r, err)
		return
	}

	if rows, err := h.analytics.DeleteKey(r.Context(), keyID); err != nil {
		slog.WarnContext(r.Context(), "failed to delete key usage rows",
			"key_id", keyID, "error", err)
	} else if rows > 0 {
		slog.DebugContext(r.Context(), "deleted key usage rows",
			"key_id", keyID, "rows", rows)
	}

	w.WriteHeader(http.StatusNoContent)
}
