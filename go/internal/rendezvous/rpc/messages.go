package rpc

import "github.com/mcdev12/rendezvous/go/internal/models"

const (
	// ServiceName is the fully-qualified name of the rendezvous service
	ServiceName = "rendezvous.v1.RendezvousService"

	SubmitProcedure   = "/" + ServiceName + "/Submit"
	QueryProcedure    = "/" + ServiceName + "/Query"
	SnapshotProcedure = "/" + ServiceName + "/Snapshot"
)

type SubmitRequest struct {
	ParticipantID string `json:"participant_id"`
	LobbyID       string `json:"lobby_id"`
}

type SubmitResponse struct {
	Status  string `json:"status"`
	RoundID string `json:"round_id"`
	Late    bool   `json:"late,omitempty"`
}

type QueryRequest struct {
	ParticipantID string `json:"participant_id"`
}

type QueryResponse struct {
	Status string `json:"status"`
}

type SnapshotRequest struct{}

type SnapshotResponse struct {
	Snapshot models.Snapshot `json:"snapshot"`
}
