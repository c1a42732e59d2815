package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/sqlc-dev/pqtype"
)

// uniqueViolation is the Postgres error code for a duplicate key
const uniqueViolation = "23505"

// Querier defines what the repository needs from the database layer
type Querier interface {
	InsertRound(ctx context.Context, arg InsertRoundParams) error
	MarkRoundReset(ctx context.Context, arg MarkRoundResetParams) (int64, error)
	ListAcceptedRounds(ctx context.Context, limit int32) ([]RoundRow, error)
}

// Repository persists decided rounds
type Repository struct {
	queries Querier
}

// NewRepository creates a new archive repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// RecordVerdict stores a decided round. Replays of the same round are ignored.
func (r *Repository) RecordVerdict(ctx context.Context, p events.VerdictReachedPayload) error {
	roundID, err := uuid.Parse(p.RoundID)
	if err != nil {
		return fmt.Errorf("parse round ID: %w", err)
	}

	proposals, err := nullJSON(p.Proposals)
	if err != nil {
		return fmt.Errorf("marshal proposals: %w", err)
	}

	err = r.queries.InsertRound(ctx, InsertRoundParams{
		RoundID:      roundID,
		Verdict:      p.Verdict,
		AgreedValue:  sql.NullString{String: p.AgreedValue, Valid: p.AgreedValue != ""},
		Proposals:    proposals,
		Participants: int32(p.Participants),
		StartedAt:    p.StartedAt,
		DecidedAt:    p.DecidedAt,
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil
		}
		return fmt.Errorf("failed to insert round: %w", err)
	}
	return nil
}

// RecordReset stamps the reset time and delivery bookkeeping on a stored round
func (r *Repository) RecordReset(ctx context.Context, p events.RoundResetPayload) error {
	roundID, err := uuid.Parse(p.RoundID)
	if err != nil {
		return fmt.Errorf("parse round ID: %w", err)
	}

	acknowledged, err := nullJSON(p.Acknowledged)
	if err != nil {
		return fmt.Errorf("marshal acknowledged: %w", err)
	}

	affected, err := r.queries.MarkRoundReset(ctx, MarkRoundResetParams{
		RoundID:      roundID,
		ResetAt:      p.ResetAt,
		Acknowledged: acknowledged,
		LateArrivals: int32(p.LateArrivals),
	})
	if err != nil {
		return fmt.Errorf("failed to mark round reset: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("round %s not archived", roundID)
	}
	return nil
}

// maxPreload caps RecentHistory when the caller keeps unlimited history
const maxPreload = 1000

// RecentHistory returns the newest accepted rounds as history entries
func (r *Repository) RecentHistory(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > maxPreload {
		limit = maxPreload
	}
	rows, err := r.queries.ListAcceptedRounds(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted rounds: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.HistoryEntry{
			RoundID:   row.RoundID,
			Timestamp: row.DecidedAt,
			Value:     row.AgreedValue.String,
			Label:     models.HistoryLabelStarted,
		})
	}
	return entries, nil
}

func nullJSON(v any) (pqtype.NullRawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: data, Valid: len(data) > 0 && string(data) != "null"}, nil
}
