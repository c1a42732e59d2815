package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase defines where a round is in its lifecycle.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseCollecting Phase = "COLLECTING"
	PhaseDecided    Phase = "DECIDED"
)

// Verdict is the binding outcome of a round. The zero value means no verdict yet.
type Verdict string

const (
	VerdictNone   Verdict = ""
	VerdictAccept Verdict = "accept"
	VerdictReject Verdict = "reject"
)

// Query statuses returned to participants
const (
	StatusPending  = "pending"
	StatusReceived = "received"
)

// HistoryLabelStarted is attached to every accepted round in history.
const HistoryLabelStarted = "Game started"

// DisplayTimeLayout is how the dashboard renders timestamps.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// Display returns the dashboard state string for a phase.
// A decided round shows its verdict instead of the phase name.
func (p Phase) Display(v Verdict) string {
	switch p {
	case PhaseCollecting:
		return StatusPending
	case PhaseDecided:
		return string(v)
	default:
		return "waiting"
	}
}

// Proposal is a participant's proposed lobby value for the current round.
type Proposal struct {
	ParticipantID string    `json:"participant_id"`
	Value         string    `json:"value"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// HistoryEntry records a round that resolved to accept.
type HistoryEntry struct {
	RoundID   uuid.UUID `json:"round_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     string    `json:"value"`
	Label     string    `json:"label"`
}

// Snapshot is a read-only copy of coordinator state.
type Snapshot struct {
	RoundID   uuid.UUID      `json:"round_id"`
	Phase     Phase          `json:"phase"`
	Verdict   Verdict        `json:"verdict,omitempty"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
	DecidedAt *time.Time     `json:"decided_at,omitempty"`
	Proposals []Proposal     `json:"proposals"`
	History   []HistoryEntry `json:"history"`
}

// SubmitResult acknowledges a stored proposal.
type SubmitResult struct {
	Status  string    `json:"status"`
	RoundID uuid.UUID `json:"round_id"`
	Late    bool      `json:"late,omitempty"`
}

// QueryResult is what a participant sees when polling for the verdict.
type QueryResult struct {
	Status string `json:"status"`
}
