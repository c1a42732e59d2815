package gateway

import (
	"context"

	"github.com/mcdev12/rendezvous/go/internal/models"
)

// Coordinator is the part of the rendezvous coordinator the gateway drives
type Coordinator interface {
	Submit(ctx context.Context, participantID, value string) (models.SubmitResult, error)
	Query(ctx context.Context, participantID string) models.QueryResult
	Snapshot() models.Snapshot
}

// StateResponse is the dashboard view of the coordinator
type StateResponse struct {
	State        string             `json:"state"`
	RoundID      string             `json:"round_id,omitempty"`
	StartedAt    *string            `json:"started_at"`
	Participants []ParticipantInfo  `json:"participants"`
	History      []HistoryEntryInfo `json:"history"`
}

// ParticipantInfo is one proposal in the current round
type ParticipantInfo struct {
	PC      string `json:"pc"`
	LobbyID string `json:"lobby_id"`
	Time    string `json:"time"`
}

// HistoryEntryInfo is one accepted round
type HistoryEntryInfo struct {
	Timestamp string `json:"timestamp"`
	LobbyID   string `json:"lobby_id"`
	Status    string `json:"status"`
}

// NewStateResponse flattens a snapshot into display strings
func NewStateResponse(snap models.Snapshot) StateResponse {
	resp := StateResponse{
		State:        snap.Phase.Display(snap.Verdict),
		Participants: make([]ParticipantInfo, 0, len(snap.Proposals)),
		History:      make([]HistoryEntryInfo, 0, len(snap.History)),
	}
	if snap.Phase != models.PhaseIdle {
		resp.RoundID = snap.RoundID.String()
	}
	if snap.StartedAt != nil && snap.Phase != models.PhaseIdle {
		started := snap.StartedAt.Format(models.DisplayTimeLayout)
		resp.StartedAt = &started
	}
	for _, p := range snap.Proposals {
		resp.Participants = append(resp.Participants, ParticipantInfo{
			PC:      p.ParticipantID,
			LobbyID: p.Value,
			Time:    p.SubmittedAt.Format(models.DisplayTimeLayout),
		})
	}
	for _, h := range snap.History {
		resp.History = append(resp.History, HistoryEntryInfo{
			Timestamp: h.Timestamp.Format(models.DisplayTimeLayout),
			LobbyID:   h.Value,
			Status:    h.Label,
		})
	}
	return resp
}
