package events

import (
	"time"
)

// Event payload types shared between the coordinator and its subscribers

// RoundStartedPayload is the payload for a RoundStarted event
type RoundStartedPayload struct {
	RoundID         string    `json:"round_id"`
	ParticipantID   string    `json:"participant_id"`
	StartedAt       time.Time `json:"started_at"`
	DecisionAt      time.Time `json:"decision_at"`
	ResetAt         time.Time `json:"reset_at"`
	RequiredSubmits int       `json:"required_participants"`
}

// ProposalReceivedPayload is the payload for a ProposalReceived event
type ProposalReceivedPayload struct {
	RoundID       string    `json:"round_id"`
	ParticipantID string    `json:"participant_id"`
	Value         string    `json:"value"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Overwrote     bool      `json:"overwrote"`
	Late          bool      `json:"late"`
}

// VerdictReachedPayload is the payload for a VerdictReached event
type VerdictReachedPayload struct {
	RoundID      string            `json:"round_id"`
	Verdict      string            `json:"verdict"`
	AgreedValue  string            `json:"agreed_value,omitempty"`
	Proposals    map[string]string `json:"proposals"`
	StartedAt    time.Time         `json:"started_at"`
	DecidedAt    time.Time         `json:"decided_at"`
	Participants int               `json:"participants"`
}

// RoundResetPayload is the payload for a RoundReset event
type RoundResetPayload struct {
	RoundID      string    `json:"round_id"`
	ResetAt      time.Time `json:"reset_at"`
	Duration     string    `json:"duration"`
	Acknowledged []string  `json:"acknowledged"`
	LateArrivals int       `json:"late_arrivals"`
}
