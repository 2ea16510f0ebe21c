package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type LedgerEntry struct {
	LedgerEntryID int64
	GameSessionID int64
	Username      string
	Kind          string
	Amount        int64
	CreatedAt     pgtype.Timestamptz
}

type CreateLedgerEntryParams struct {
	GameSessionID int64
	Username      string
	Kind          string
	Amount        int64
}

func (q *Queries) CreateLedgerEntry(
	ctx context.Context, params CreateLedgerEntryParams,
) (*LedgerEntry, error) {
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO ledger_entry (game_session_id, username, kind, amount)
		VALUES (@game_session_id, @username, @kind, @amount)
		RETURNING *;`,
		pgx.NamedArgs{
			"game_session_id": params.GameSessionID,
			"username":        params.Username,
			"kind":            params.Kind,
			"amount":          params.Amount,
		},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[LedgerEntry])
}

func (q *Queries) ListLedgerEntries(
	ctx context.Context, gameSessionID int64,
) ([]LedgerEntry, error) {
	rows, _ := q.db.Query(
		ctx,
		`SELECT * FROM ledger_entry
		WHERE game_session_id = $1
		ORDER BY ledger_entry_id`,
		gameSessionID,
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[LedgerEntry])
}
