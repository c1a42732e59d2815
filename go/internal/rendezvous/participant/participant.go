package participant

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/rpc"
	"github.com/rs/zerolog/log"
)

// Client is the subset of the rpc client a participant uses
type Client interface {
	Submit(ctx context.Context, participantID, lobbyID string) (*rpc.SubmitResponse, error)
	Query(ctx context.Context, participantID string) (string, error)
}

// Config controls how a participant polls for the verdict
type Config struct {
	ParticipantID string
	LobbyID       string
	PollInterval  time.Duration
}

// Run submits the lobby id and polls until the round has a verdict or ctx ends.
// It returns models.VerdictAccept or models.VerdictReject.
func Run(ctx context.Context, client Client, config Config) (models.Verdict, error) {
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}

	resp, err := client.Submit(ctx, config.ParticipantID, config.LobbyID)
	if err != nil {
		return models.VerdictNone, fmt.Errorf("submit lobby id: %w", err)
	}
	log.Info().
		Str("participant_id", config.ParticipantID).
		Str("lobby_id", config.LobbyID).
		Str("round_id", resp.RoundID).
		Bool("late", resp.Late).
		Msg("lobby id submitted")

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		status, err := client.Query(ctx, config.ParticipantID)
		if err != nil {
			return models.VerdictNone, fmt.Errorf("query verdict: %w", err)
		}

		switch models.Verdict(status) {
		case models.VerdictAccept, models.VerdictReject:
			log.Info().
				Str("participant_id", config.ParticipantID).
				Str("verdict", status).
				Msg("verdict received")
			return models.Verdict(status), nil
		}
		log.Debug().Str("status", status).Msg("waiting for verdict")

		select {
		case <-ctx.Done():
			return models.VerdictNone, fmt.Errorf("waiting for verdict: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
