package archive

import (
	"context"
	"fmt"

	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/rs/zerolog/log"
)

// Archiver subscribes to coordinator events and writes decided rounds to Postgres
type Archiver struct {
	repo *Repository
}

var _ events.Publisher = (*Archiver)(nil)

func NewArchiver(repo *Repository) *Archiver {
	return &Archiver{repo: repo}
}

func (a *Archiver) Publish(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.EventTypeVerdictReached:
		payload, err := events.ParsePayload(event)
		if err != nil {
			return fmt.Errorf("parse VerdictReached payload: %w", err)
		}
		p := payload.(events.VerdictReachedPayload)
		if err := a.repo.RecordVerdict(ctx, p); err != nil {
			return err
		}
		log.Debug().Str("round_id", p.RoundID).Str("verdict", p.Verdict).Msg("round archived")

	case events.EventTypeRoundReset:
		payload, err := events.ParsePayload(event)
		if err != nil {
			return fmt.Errorf("parse RoundReset payload: %w", err)
		}
		return a.repo.RecordReset(ctx, payload.(events.RoundResetPayload))
	}
	return nil
}
