package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mercator-hq/callisto/pkg/analytics"
	"mercator-hq/callisto/pkg/server/types"
)

// KeyUsageSummary handles GET /api/keys/{keyID}/usage/summary.
func (h *Handlers) KeyUsageSummary(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	// The key must exist even when it has no recorded usage.
	if _, err := h.keys.Get(r.Context(), keyID); err != nil {
		h.handleError(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(r.Context(), keyID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// KeyUsage handles GET /api/keys/{keyID}/usage?days=30&hours=24. The
// bucket counts are clamped by the analytics store (1..365 days,
// 1..168 hours); only non-numeric values are rejected.
func (h *Handlers) KeyUsage(w http.ResponseWriter, r *http.Request) {
	keyID := chi.URLParam(r, "keyID")

	days, ok := parseBucketCount(w, r, "days")
	if !ok {
		return
	}
	hours, ok := parseBucketCount(w, r, "hours")
	if !ok {
		return
	}

	if _, err := h.keys.Get(r.Context(), keyID); err != nil {
		h.handleError(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(r.Context(), keyID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	byModel, err := h.analytics.ByModel(r.Context(), keyID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	hourly, err := h.analytics.Hourly(r.Context(), keyID, hours)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	daily, err := h.analytics.Daily(r.Context(), keyID, days)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if byModel == nil {
		byModel = []analytics.ModelUsage{}
	}
	if hourly == nil {
		hourly = []analytics.Bucket{}
	}
	if daily == nil {
		daily = []analytics.Bucket{}
	}

	writeJSON(w, http.StatusOK, types.KeyUsage{
		Summary: summary,
		ByModel: byModel,
		Hourly:  hourly,
		Daily:   daily,
	})
}

// parseBucketCount reads one numeric bucket-count parameter, leaving
// clamping and defaults to the store. Returns ok=false after answering
// 400 for garbage input.
func parseBucketCount(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, types.ErrorTypeInvalidRequest, "Invalid "+name+" parameter")
		return 0, false
	}
	return n, true
}
