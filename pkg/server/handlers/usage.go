package handlers

import (
	"log/slog"
	"net/http"

	"mercator-hq/callisto/pkg/usage"
)

// Usage handles GET /api/usage. Cached snapshots are served as long as
// the cache holds one; only a miss triggers a live upstream fetch. The
// report carries the snapshot's original fetch time either way, so the
// console can tell fresh data from replayed data.
func (h *Handlers) Usage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	snap, storedAt, ok, err := h.cache.Get(ctx)
	if err != nil {
		// A broken cache degrades to a live fetch.
		slog.WarnContext(ctx, "snapshot cache read failed", "backend", h.cacheKind, "error", err)
	}
	if ok {
		h.metrics.RecordCacheHit(h.cacheKind)
		writeJSON(w, http.StatusOK, usage.BuildReport(snap, storedAt, now, h.staleAfter))
		return
	}
	h.metrics.RecordCacheMiss(h.cacheKind)

	snap, err = h.fetcher.Fetch(ctx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.cache.Put(ctx, snap); err != nil {
		slog.WarnContext(ctx, "snapshot cache write failed", "backend", h.cacheKind, "error", err)
	}

	writeJSON(w, http.StatusOK, usage.BuildReport(snap, now, now, h.staleAfter))
}
