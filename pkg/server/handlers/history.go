package handlers

import (
	"net/http"
	"strconv"
	"time"

	"mercator-hq/callisto/pkg/server/types"
	"mercator-hq/callisto/pkg/usage/history"
)

const (
	defaultHistoryHours = 24
	maxHistoryHours     = 168
)

// UsageHistory handles GET /api/usage/history?hours=24. Entries come
// back oldest first so the console sparkline can draw them in order.
func (h *Handlers) UsageHistory(w http.ResponseWriter, r *http.Request) {
	hours, ok := parseHours(w, r, defaultHistoryHours)
	if !ok {
		return
	}

	until := h.now()
	since := until.Add(-time.Duration(hours) * time.Hour)

	records, err := h.history.Range(r.Context(), since, until)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	entries := make([]types.HistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, historyEntry(rec))
	}

	writeJSON(w, http.StatusOK, types.HistoryResponse{
		Hours:   hours,
		Entries: entries,
	})
}

// parseHours reads an hours query parameter, clamping it to
// 1..maxHistoryHours. A non-numeric value answers 400 and returns
// ok=false.
func parseHours(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("hours")
	if raw == "" {
		return def, true
	}

	hours, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, types.ErrorTypeInvalidRequest, "Invalid hours parameter")
		return 0, false
	}

	if hours < 1 {
		hours = 1
	}
	if hours > maxHistoryHours {
		hours = maxHistoryHours
	}
	return hours, true
}

// historyEntry converts a stored record to its wire shape. Zero reset
// times become nil so idle windows serialize as absent fields.
func historyEntry(rec *history.Record) types.HistoryEntry {
	e := types.HistoryEntry{
		CapturedAt:          rec.CapturedAt,
		FiveHourUtilization: rec.FiveHourUtilization,
		SevenDayUtilization: rec.SevenDayUtilization,
		ExtraEnabled:        rec.ExtraEnabled,
		ExtraUsed:           rec.ExtraUsed,
		ExtraLimit:          rec.ExtraLimit,
	}
	if !rec.FiveHourResetsAt.IsZero() {
		t := rec.FiveHourResetsAt
		e.FiveHourResetsAt = &t
	}
	if !rec.SevenDayResetsAt.IsZero() {
		t := rec.SevenDayResetsAt
		e.SevenDayResetsAt = &t
	}
	return e
}
