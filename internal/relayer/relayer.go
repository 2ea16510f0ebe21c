// Package relayer drives the board's clockwork: it ticks the king's
// score and respawns the special tiles on their configured cadences,
// across every active session. The same operations can instead be
// driven over HTTP by the standalone relayer binary.
package relayer

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kingstack/kingtiles-server/internal/config"
	"github.com/kingstack/kingtiles-server/internal/session"
	"github.com/kingstack/kingtiles-server/internal/tiles"
)

type Relayer struct {
	logger   *slog.Logger
	sessions *session.Registry
	cadence  *config.Relayer
}

func New(
	logger *slog.Logger,
	sessions *session.Registry,
	cadence *config.Relayer,
) *Relayer {
	return &Relayer{
		logger:   logger,
		sessions: sessions,
		cadence:  cadence,
	}
}

// Run blocks until ctx is canceled, driving each periodic operation on
// its own ticker.
func (r *Relayer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.every(ctx, r.cadence.TickEvery, r.tickScores)
	})
	g.Go(func() error {
		return r.every(ctx, r.cadence.KingEvery, r.spawner(tiles.KingTile))
	})
	g.Go(func() error {
		return r.every(ctx, r.cadence.PowerupEvery, r.spawner(tiles.PowerupTile))
	})
	g.Go(func() error {
		return r.every(ctx, r.cadence.BombEvery, r.spawner(tiles.BombTile))
	})
	return g.Wait()
}

func (r *Relayer) every(ctx context.Context, d time.Duration, fn func(ctx context.Context)) error {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// forEachRunning applies fn to every session that has started and not
// yet run out its clock. Expired sessions stay untouched until an
// operator finalizes them.
func (r *Relayer) forEachRunning(ctx context.Context, fn func(g *tiles.Game)) {
	sessions, err := r.sessions.Active(ctx)
	if err != nil {
		r.logger.Error("unable to list active sessions", "error", err)
		return
	}
	for _, s := range sessions {
		err := s.Do(ctx, func(g *tiles.Game) error {
			if !g.Active || !time.Now().Before(g.EndsAt) {
				return nil
			}
			fn(g)
			return nil
		})
		if err != nil {
			r.logger.Error("unable to update session",
				"sessionId", s.PublicID.String(), "error", err)
		}
	}
}

func (r *Relayer) tickScores(ctx context.Context) {
	r.forEachRunning(ctx, func(g *tiles.Game) {
		g.TickScore()
	})
}

// Each spawner runs on its own goroutine, so randomness comes from the
// top-level rand functions, which are safe for concurrent use.
func (r *Relayer) spawner(kind tiles.TileKind) func(ctx context.Context) {
	return func(ctx context.Context) {
		r.forEachRunning(ctx, func(g *tiles.Game) {
			landed := g.SpawnTile(kind, uint8(rand.IntN(256)))
			r.logger.Debug("tile spawned",
				slog.String("kind", kind.String()),
				slog.Int("cell", landed),
			)
		})
	}
}
