package handlers

import (
	"fmt"
	"net/http"
	"time"

	"mercator-hq/callisto/pkg/server/types"
)

// ServerStatus handles GET /api/server/status.
func (h *Handlers) ServerStatus(w http.ResponseWriter, r *http.Request) {
	uptime := h.now().Sub(h.startedAt)

	writeJSON(w, http.StatusOK, types.ServerStatus{
		Running:         true,
		BindAddress:     h.bindHost,
		Port:            h.bindPort,
		UptimeSeconds:   uptime.Seconds(),
		UptimeFormatted: formatUptime(uptime),
		Version:         h.version,
	})
}

// formatUptime renders an uptime as "2h 15m 30s", dropping leading zero
// components ("15m 30s", "30s").
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
