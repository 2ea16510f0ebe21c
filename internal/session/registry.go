// Package session keeps the live board states and enforces the
// one-operation-at-a-time rule per session: every mutation runs under
// the session's lock as a complete state transition, then the
// serialized state is written back to the database.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kingstack/kingtiles-server/internal/repository"
	"github.com/kingstack/kingtiles-server/internal/tiles"
)

// Store is the persistence surface a session needs. *repository.Queries
// implements it against Postgres.
type Store interface {
	CreateGameSession(ctx context.Context, publicID uuid.UUID, game *tiles.Game) (*repository.GameSession, error)
	FetchGameSession(ctx context.Context, publicID uuid.UUID) (*repository.GameSession, error)
	ListActiveGameSessions(ctx context.Context) ([]repository.GameSession, error)
	UpdateGameSession(ctx context.Context, gameSessionID int64, game *tiles.Game) error
	FinalizeGameSession(ctx context.Context, gameSessionID int64, game *tiles.Game, entries []repository.CreateLedgerEntryParams) error
}

type Session struct {
	ID       int64
	PublicID uuid.UUID

	mu   sync.Mutex
	game *tiles.Game
	repo Store
}

// Do runs one operation against the board under the session lock. The
// state blob is written back only when fn succeeds; if the write-back
// fails, the in-memory board is rolled back to the pre-operation state
// so memory and database never diverge and the operation can be
// retried.
func (s *Session) Do(ctx context.Context, fn func(g *tiles.Game) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.game.Bytes()
	if err != nil {
		return err
	}
	if err := fn(s.game); err != nil {
		return err
	}
	if err := s.repo.UpdateGameSession(ctx, s.ID, s.game); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// Finalize runs fn under the session lock, then persists the resulting
// state together with the returned ledger rows in one transaction. On
// any failure the in-memory state is rolled back, so a finalize whose
// payout write failed can simply be called again.
func (s *Session) Finalize(
	ctx context.Context,
	fn func(g *tiles.Game) ([]repository.CreateLedgerEntryParams, error),
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.game.Bytes()
	if err != nil {
		return err
	}
	entries, err := fn(s.game)
	if err != nil {
		return err
	}
	if err := s.repo.FinalizeGameSession(ctx, s.ID, s.game, entries); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// restore rewinds the in-memory board to a snapshot taken by Do or
// Finalize. The snapshot was produced by Bytes moments earlier, so the
// decode cannot realistically fail; if it somehow does, the current
// state is kept rather than dropped.
func (s *Session) restore(snapshot []byte) {
	if g, err := tiles.DecodeGame(snapshot); err == nil {
		s.game = g
	}
}

// View runs a read-only function under the session lock.
func (s *Session) View(fn func(g *tiles.Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.game)
}

type Registry struct {
	mu       sync.Mutex
	repo     Store
	sessions map[uuid.UUID]*Session
}

func NewRegistry(repo Store) *Registry {
	return &Registry{
		repo:     repo,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session for the given config and persists it.
func (r *Registry) Create(ctx context.Context, cfg tiles.Config) (*Session, error) {
	game, err := tiles.NewGame(cfg)
	if err != nil {
		return nil, err
	}
	row, err := r.repo.CreateGameSession(ctx, uuid.New(), game)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:       row.GameSessionID,
		PublicID: row.PublicID,
		game:     game,
		repo:     r.repo,
	}
	r.mu.Lock()
	r.sessions[s.PublicID] = s
	r.mu.Unlock()
	return s, nil
}

// Get returns the live session, loading it from the database on first
// touch after a restart. The cached instance is authoritative: all
// callers must lock through the same Session value.
func (r *Registry) Get(ctx context.Context, publicID uuid.UUID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[publicID]; ok {
		return s, nil
	}
	row, err := r.repo.FetchGameSession(ctx, publicID)
	if err != nil {
		return nil, err
	}
	game, err := row.Game()
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:       row.GameSessionID,
		PublicID: row.PublicID,
		game:     game,
		repo:     r.repo,
	}
	r.sessions[publicID] = s
	return s, nil
}

// Active returns the live handles of every activated, unfinalized
// session, for the relayer to drive.
func (r *Registry) Active(ctx context.Context) ([]*Session, error) {
	rows, err := r.repo.ListActiveGameSessions(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]*Session, 0, len(rows))
	for _, row := range rows {
		s, err := r.Get(ctx, row.PublicID)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}
