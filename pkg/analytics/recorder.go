package analytics

import (
	"context"
	"log/slog"
)

// Recorder feeds per-request usage into the store. It never returns an
// error: accounting must not break serving, so failures are logged and
// the sample is dropped.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{
		store:  store,
		logger: slog.Default().With("component", "analytics.recorder"),
	}
}

// Record books one request's token usage against a key. Requests that
// used no tokens at all are skipped, as are requests with no key.
func (r *Recorder) Record(ctx context.Context, keyID, model string, u Usage) {
	if keyID == "" || u.IsZero() {
		return
	}

	if err := r.store.Add(ctx, keyID, model, u); err != nil {
		r.logger.Warn("failed to record usage",
			"key_id", keyID,
			"model", model,
			"error", err)
	}
}
