package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/rs/zerolog/log"
)

// EventTypeSnapshot is the first message on a new feed connection
const EventTypeSnapshot events.EventType = "Snapshot"

// WebSocketHandler handles upgrade requests for the live round feed
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	coordinator       Coordinator
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, coordinator Coordinator) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		coordinator:       coordinator,
	}
}

// HandleFeedConnection handles GET /ws/rendezvous
func (h *WebSocketHandler) HandleFeedConnection(w http.ResponseWriter, r *http.Request) {
	viewerID := r.URL.Query().Get("viewer")
	if viewerID == "" {
		viewerID = "anonymous"
	}

	initial, err := h.snapshotMessage()
	if err != nil {
		log.Error().Err(err).Msg("failed to build snapshot message")
		http.Error(w, "failed to build snapshot", http.StatusInternalServerError)
		return
	}

	// Upgrade writes its own HTTP error on failure
	if err := h.connectionManager.UpgradeConnection(w, r, viewerID, initial); err != nil {
		log.Error().
			Err(err).
			Str("viewer_id", viewerID).
			Msg("failed to upgrade WebSocket connection")
	}
}

func (h *WebSocketHandler) snapshotMessage() ([]byte, error) {
	snap := h.coordinator.Snapshot()
	event, err := events.New(EventTypeSnapshot, snap.RoundID, time.Now(), NewStateResponse(snap))
	if err != nil {
		return nil, err
	}
	return json.Marshal(event)
}

// HandleConnectionStats handles GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/rendezvous", h.HandleFeedConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
