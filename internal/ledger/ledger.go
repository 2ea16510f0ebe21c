// Package ledger is the narrow money-movement capability the game host
// consumes: fee collection at registration and reward payout rows at
// finalize. The simulation core never sees it; it only carries the
// rates the host reads back here.
package ledger

import (
	"context"
	"fmt"

	"github.com/kingstack/kingtiles-server/internal/repository"
	"github.com/kingstack/kingtiles-server/internal/tiles"
)

const (
	KindFee    = "fee"
	KindReward = "reward"
)

type Ledger interface {
	CollectFee(ctx context.Context, gameSessionID int64, identity string, amount int64) error
}

// PayoutEntries converts final standings into reward rows at the
// session's reward rate. A zero score produces no row. The rows are
// written by the session store in the same transaction that freezes the
// session, so a finalized session can never be missing payouts.
func PayoutEntries(
	gameSessionID int64, standings []tiles.Standing, rewardRate int64,
) []repository.CreateLedgerEntryParams {
	entries := make([]repository.CreateLedgerEntryParams, 0, len(standings))
	for _, st := range standings {
		reward := int64(st.Score) * rewardRate
		if reward == 0 {
			continue
		}
		entries = append(entries, repository.CreateLedgerEntryParams{
			GameSessionID: gameSessionID,
			Username:      st.Identity,
			Kind:          KindReward,
			Amount:        reward,
		})
	}
	return entries
}

// Postgres records movements as ledger rows; settlement against an
// external payment rail happens out of process.
type Postgres struct {
	repo *repository.Queries
}

func NewPostgres(repo *repository.Queries) *Postgres {
	return &Postgres{repo: repo}
}

func (l *Postgres) CollectFee(
	ctx context.Context, gameSessionID int64, identity string, amount int64,
) error {
	_, err := l.repo.CreateLedgerEntry(ctx, repository.CreateLedgerEntryParams{
		GameSessionID: gameSessionID,
		Username:      identity,
		Kind:          KindFee,
		Amount:        amount,
	})
	if err != nil {
		return fmt.Errorf("unable to record fee: %w", err)
	}
	return nil
}
