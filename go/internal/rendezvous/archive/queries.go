package archive

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// DBTX is satisfied by *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Queries holds the archive SQL
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// RoundRow mirrors a rendezvous_rounds row
type RoundRow struct {
	RoundID      uuid.UUID
	Verdict      string
	AgreedValue  sql.NullString
	Proposals    pqtype.NullRawMessage
	Participants int32
	StartedAt    time.Time
	DecidedAt    time.Time
	ResetAt      sql.NullTime
	Acknowledged pqtype.NullRawMessage
	LateArrivals int32
}

type InsertRoundParams struct {
	RoundID      uuid.UUID
	Verdict      string
	AgreedValue  sql.NullString
	Proposals    pqtype.NullRawMessage
	Participants int32
	StartedAt    time.Time
	DecidedAt    time.Time
}

const insertRound = `
INSERT INTO rendezvous_rounds (
  round_id, verdict, agreed_value, proposals, participants, started_at, decided_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7
)
`

func (q *Queries) InsertRound(ctx context.Context, arg InsertRoundParams) error {
	_, err := q.db.ExecContext(ctx, insertRound,
		arg.RoundID,
		arg.Verdict,
		arg.AgreedValue,
		arg.Proposals,
		arg.Participants,
		arg.StartedAt,
		arg.DecidedAt,
	)
	return err
}

type MarkRoundResetParams struct {
	RoundID      uuid.UUID
	ResetAt      time.Time
	Acknowledged pqtype.NullRawMessage
	LateArrivals int32
}

const markRoundReset = `
UPDATE rendezvous_rounds
SET reset_at = $2, acknowledged = $3, late_arrivals = $4
WHERE round_id = $1
`

func (q *Queries) MarkRoundReset(ctx context.Context, arg MarkRoundResetParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markRoundReset,
		arg.RoundID,
		arg.ResetAt,
		arg.Acknowledged,
		arg.LateArrivals,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listAcceptedRounds = `
SELECT round_id, verdict, agreed_value, proposals, participants,
       started_at, decided_at, reset_at, acknowledged, late_arrivals
FROM rendezvous_rounds
WHERE verdict = 'accept'
ORDER BY decided_at DESC
LIMIT $1
`

func (q *Queries) ListAcceptedRounds(ctx context.Context, limit int32) ([]RoundRow, error) {
	rows, err := q.db.QueryContext(ctx, listAcceptedRounds, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RoundRow
	for rows.Next() {
		var i RoundRow
		if err := rows.Scan(
			&i.RoundID,
			&i.Verdict,
			&i.AgreedValue,
			&i.Proposals,
			&i.Participants,
			&i.StartedAt,
			&i.DecidedAt,
			&i.ResetAt,
			&i.Acknowledged,
			&i.LateArrivals,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
