package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds a /send_lobby_id request body
const maxBodyBytes = 4 << 10

type sendLobbyRequest struct {
	PC      string `json:"pc"`
	LobbyID string `json:"lobby_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIHandler serves the participant-facing JSON routes
type APIHandler struct {
	coordinator Coordinator
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(coordinator Coordinator) *APIHandler {
	return &APIHandler{coordinator: coordinator}
}

// HandleSendLobbyID handles POST /send_lobby_id
func (h *APIHandler) HandleSendLobbyID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendLobbyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("malformed lobby submission")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data"})
		return
	}

	result, err := h.coordinator.Submit(r.Context(), req.PC, req.LobbyID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": result.Status})
	case errors.Is(err, rendezvous.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid data"})
	case errors.Is(err, rendezvous.ErrRoundFull):
		writeJSON(w, http.StatusConflict, errorResponse{Error: rendezvous.ErrRoundFull.Error()})
	case errors.Is(err, rendezvous.ErrClosed):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: rendezvous.ErrClosed.Error()})
	default:
		log.Error().Err(err).Str("participant_id", req.PC).Msg("failed to submit lobby id")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// HandleCheckStatus handles GET /check_status?pc=
func (h *APIHandler) HandleCheckStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.coordinator.Query(r.Context(), r.URL.Query().Get("pc"))
	writeJSON(w, http.StatusOK, result)
}

// HandleGetState handles GET /api/state
func (h *APIHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, NewStateResponse(h.coordinator.Snapshot()))
}

// RegisterRoutes registers the JSON routes
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/send_lobby_id", h.HandleSendLobbyID)
	mux.HandleFunc("/check_status", h.HandleCheckStatus)
	mux.HandleFunc("/api/state", h.HandleGetState)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
