package archive

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/rendezvous/go/internal/models"
	"github.com/mcdev12/rendezvous/go/internal/rendezvous/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	inserted  []InsertRoundParams
	resets    []MarkRoundResetParams
	rows      []RoundRow
	limit     int32
	insertErr error
	affected  int64
}

func (f *fakeQuerier) InsertRound(ctx context.Context, arg InsertRoundParams) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, arg)
	return nil
}

func (f *fakeQuerier) MarkRoundReset(ctx context.Context, arg MarkRoundResetParams) (int64, error) {
	f.resets = append(f.resets, arg)
	return f.affected, nil
}

func (f *fakeQuerier) ListAcceptedRounds(ctx context.Context, limit int32) ([]RoundRow, error) {
	f.limit = limit
	return f.rows, nil
}

var (
	startedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	decidedAt = startedAt.Add(5 * time.Second)
)

func TestRepository_RecordVerdict(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewRepository(q)
	roundID := uuid.New()

	err := repo.RecordVerdict(context.Background(), events.VerdictReachedPayload{
		RoundID:      roundID.String(),
		Verdict:      "accept",
		AgreedValue:  "lobby123",
		Proposals:    map[string]string{"pc1": "lobby123", "pc2": "lobby123"},
		StartedAt:    startedAt,
		DecidedAt:    decidedAt,
		Participants: 2,
	})
	require.NoError(t, err)
	require.Len(t, q.inserted, 1)

	row := q.inserted[0]
	assert.Equal(t, roundID, row.RoundID)
	assert.Equal(t, "accept", row.Verdict)
	assert.True(t, row.AgreedValue.Valid)
	assert.Equal(t, "lobby123", row.AgreedValue.String)
	assert.Equal(t, int32(2), row.Participants)
	require.True(t, row.Proposals.Valid)

	var proposals map[string]string
	require.NoError(t, json.Unmarshal(row.Proposals.RawMessage, &proposals))
	assert.Equal(t, "lobby123", proposals["pc1"])
}

func TestRepository_RecordVerdictRejectHasNoValue(t *testing.T) {
	q := &fakeQuerier{}
	repo := NewRepository(q)

	err := repo.RecordVerdict(context.Background(), events.VerdictReachedPayload{
		RoundID:   uuid.NewString(),
		Verdict:   "reject",
		StartedAt: startedAt,
		DecidedAt: decidedAt,
	})
	require.NoError(t, err)
	require.Len(t, q.inserted, 1)
	assert.False(t, q.inserted[0].AgreedValue.Valid)
}

func TestRepository_RecordVerdictIgnoresDuplicates(t *testing.T) {
	repo := NewRepository(&fakeQuerier{insertErr: &pq.Error{Code: uniqueViolation}})

	err := repo.RecordVerdict(context.Background(), events.VerdictReachedPayload{
		RoundID: uuid.NewString(),
		Verdict: "accept",
	})
	assert.NoError(t, err)
}

func TestRepository_RecordVerdictErrors(t *testing.T) {
	boom := errors.New("connection refused")
	repo := NewRepository(&fakeQuerier{insertErr: boom})

	err := repo.RecordVerdict(context.Background(), events.VerdictReachedPayload{RoundID: uuid.NewString()})
	assert.ErrorIs(t, err, boom)

	err = repo.RecordVerdict(context.Background(), events.VerdictReachedPayload{RoundID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestRepository_RecordReset(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	repo := NewRepository(q)
	roundID := uuid.New()

	err := repo.RecordReset(context.Background(), events.RoundResetPayload{
		RoundID:      roundID.String(),
		ResetAt:      startedAt.Add(15 * time.Second),
		Duration:     "15s",
		Acknowledged: []string{"pc1", "pc2"},
		LateArrivals: 1,
	})
	require.NoError(t, err)
	require.Len(t, q.resets, 1)
	assert.Equal(t, roundID, q.resets[0].RoundID)
	assert.Equal(t, int32(1), q.resets[0].LateArrivals)
	assert.JSONEq(t, `["pc1","pc2"]`, string(q.resets[0].Acknowledged.RawMessage))

	q.affected = 0
	err = repo.RecordReset(context.Background(), events.RoundResetPayload{RoundID: roundID.String()})
	assert.Error(t, err)
}

func TestRepository_RecentHistory(t *testing.T) {
	roundID := uuid.New()
	q := &fakeQuerier{rows: []RoundRow{{
		RoundID:   roundID,
		Verdict:   "accept",
		DecidedAt: decidedAt,
	}}}
	q.rows[0].AgreedValue.String = "lobby123"
	q.rows[0].AgreedValue.Valid = true
	repo := NewRepository(q)

	entries, err := repo.RecentHistory(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int32(50), q.limit)
	require.Len(t, entries, 1)
	assert.Equal(t, models.HistoryEntry{
		RoundID:   roundID,
		Timestamp: decidedAt,
		Value:     "lobby123",
		Label:     models.HistoryLabelStarted,
	}, entries[0])

	_, err = repo.RecentHistory(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int32(maxPreload), q.limit)
}

func TestArchiver_RoutesEvents(t *testing.T) {
	q := &fakeQuerier{affected: 1}
	archiver := NewArchiver(NewRepository(q))
	roundID := uuid.New()

	verdict, err := events.New(events.EventTypeVerdictReached, roundID, decidedAt, events.VerdictReachedPayload{
		RoundID:   roundID.String(),
		Verdict:   "accept",
		StartedAt: startedAt,
		DecidedAt: decidedAt,
	})
	require.NoError(t, err)
	require.NoError(t, archiver.Publish(context.Background(), verdict))

	reset, err := events.New(events.EventTypeRoundReset, roundID, decidedAt, events.RoundResetPayload{
		RoundID: roundID.String(),
	})
	require.NoError(t, err)
	require.NoError(t, archiver.Publish(context.Background(), reset))

	started, err := events.New(events.EventTypeRoundStarted, roundID, startedAt, events.RoundStartedPayload{
		RoundID: roundID.String(),
	})
	require.NoError(t, err)
	require.NoError(t, archiver.Publish(context.Background(), started))

	assert.Len(t, q.inserted, 1)
	assert.Len(t, q.resets, 1)
}
