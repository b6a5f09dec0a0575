package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"mercator-hq/callisto/pkg/server/types"
)

// upgrader accepts any origin; the session token on the upgrade request
// is the actual gate, and the management server only binds loopback by
// default.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveUsage handles GET /api/usage/live. It upgrades to a websocket and
// streams one report JSON per poll cycle, starting with the current
// report so the console paints without waiting out a poll interval.
func (h *Handlers) LiveUsage(w http.ResponseWriter, r *http.Request) {
	if h.subscriber == nil {
		writeError(w, http.StatusNotFound, types.ErrorTypeNotFound, "Live usage is disabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request.
		return
	}
	defer conn.Close()

	h.metrics.WebsocketConnected()
	defer h.metrics.WebsocketDisconnected()

	reports, cancel := h.subscriber.Subscribe()
	defer cancel()

	// The console never sends data frames; reads only surface the close.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if report, ok := h.subscriber.Report(); ok {
		if err := conn.WriteJSON(report); err != nil {
			return
		}
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-clientGone:
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			if err := conn.WriteJSON(report); err != nil {
				return
			}
		}
	}
}
