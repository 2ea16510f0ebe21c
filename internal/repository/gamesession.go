package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kingstack/kingtiles-server/internal/tiles"
)

type GameSession struct {
	GameSessionID int64
	PublicID      uuid.UUID
	SideLen       int
	MaxPlayers    int
	FeeRate       int64
	RewardRate    int64
	Active        bool
	Finalized     bool
	State         []byte
	CreatedAt     pgtype.Timestamptz
	UpdatedAt     pgtype.Timestamptz
}

// Game decodes the session's serialized board state.
func (s GameSession) Game() (*tiles.Game, error) {
	return tiles.DecodeGame(s.State)
}

func (q *Queries) CreateGameSession(
	ctx context.Context, publicID uuid.UUID, game *tiles.Game,
) (*GameSession, error) {
	state, err := game.Bytes()
	if err != nil {
		return nil, err
	}
	rows, _ := q.db.Query(
		ctx,
		`INSERT INTO game_session (
			public_id, side_len, max_players, fee_rate, reward_rate,
			active, finalized, state
		)
		VALUES (
			@public_id, @side_len, @max_players, @fee_rate, @reward_rate,
			@active, @finalized, @state
		)
		RETURNING *;`,
		pgx.NamedArgs{
			"public_id":   publicID,
			"side_len":    game.SideLen,
			"max_players": game.MaxPlayers,
			"fee_rate":    game.FeeRate,
			"reward_rate": game.RewardRate,
			"active":      game.Active,
			"finalized":   game.Finalized,
			"state":       state,
		},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
}

func (q *Queries) FetchGameSession(
	ctx context.Context, publicID uuid.UUID,
) (*GameSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM game_session WHERE public_id = $1",
		publicID,
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[GameSession])
}

// ListActiveGameSessions returns the sessions the relayer should be
// driving: activated, not yet finalized.
func (q *Queries) ListActiveGameSessions(ctx context.Context) ([]GameSession, error) {
	rows, _ := q.db.Query(
		ctx,
		"SELECT * FROM game_session WHERE active AND NOT finalized ORDER BY game_session_id",
	)
	return pgx.CollectRows(rows, pgx.RowToStructByName[GameSession])
}

// FinalizeGameSession writes the frozen board state and the reward
// ledger rows in one transaction: a session can never be finalized in
// the database while missing some of its payouts.
func (q *Queries) FinalizeGameSession(
	ctx context.Context,
	gameSessionID int64,
	game *tiles.Game,
	entries []CreateLedgerEntryParams,
) error {
	state, err := game.Bytes()
	if err != nil {
		return err
	}
	tx, err := q.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	_, err = tx.Exec(
		ctx,
		`UPDATE game_session
		SET state = @state,
			active = @active,
			finalized = @finalized,
			updated_at = now()
		WHERE game_session_id = @game_session_id`,
		pgx.NamedArgs{
			"state":           state,
			"active":          game.Active,
			"finalized":       game.Finalized,
			"game_session_id": gameSessionID,
		},
	)
	if err != nil {
		return err
	}
	for _, e := range entries {
		_, err = tx.Exec(
			ctx,
			`INSERT INTO ledger_entry (game_session_id, username, kind, amount)
			VALUES (@game_session_id, @username, @kind, @amount)`,
			pgx.NamedArgs{
				"game_session_id": e.GameSessionID,
				"username":        e.Username,
				"kind":            e.Kind,
				"amount":          e.Amount,
			},
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// UpdateGameSession writes the mutated board state back after an
// operation, keeping the queryable flag columns in sync with the blob.
func (q *Queries) UpdateGameSession(
	ctx context.Context, gameSessionID int64, game *tiles.Game,
) error {
	state, err := game.Bytes()
	if err != nil {
		return err
	}
	_, err = q.db.Exec(
		ctx,
		`UPDATE game_session
		SET state = @state,
			active = @active,
			finalized = @finalized,
			updated_at = now()
		WHERE game_session_id = @game_session_id`,
		pgx.NamedArgs{
			"state":           state,
			"active":          game.Active,
			"finalized":       game.Finalized,
			"game_session_id": gameSessionID,
		},
	)
	return err
}
