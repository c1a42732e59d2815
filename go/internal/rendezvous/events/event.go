package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of round event
type EventType string

const (
	EventTypeRoundStarted     EventType = "RoundStarted"
	EventTypeProposalReceived EventType = "ProposalReceived"
	EventTypeVerdictReached   EventType = "VerdictReached"
	EventTypeRoundReset       EventType = "RoundReset"
)

// Event is the envelope every subscriber receives
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	RoundID   uuid.UUID       `json:"round_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher receives events emitted by the coordinator
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// New marshals payload into a fresh event envelope.
func New(eventType EventType, roundID uuid.UUID, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		RoundID:   roundID,
		Timestamp: at,
		Payload:   data,
	}, nil
}

// ParsePayload decodes event data into the payload struct for its type
func ParsePayload(event Event) (interface{}, error) {
	switch event.Type {
	case EventTypeRoundStarted:
		var payload RoundStartedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeProposalReceived:
		var payload ProposalReceivedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeVerdictReached:
		var payload VerdictReachedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeRoundReset:
		var payload RoundResetPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
