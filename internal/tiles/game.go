package tiles

import (
	"bytes"
	"cmp"
	"encoding/gob"
	"slices"
	"time"
)

// SessionDuration is how long a session stays playable once the last
// player slot fills.
const SessionDuration = 60 * time.Second

// Config carries the parameters of a new session. FeeRate and
// RewardRate are economic knobs the host reads back when collecting
// fees and paying rewards; the simulation itself never spends them.
type Config struct {
	SideLen    int
	MaxPlayers int
	FeeRate    int64
	RewardRate int64
}

// Validate checks the config against the fixed table of supported board
// modes. Each side length pairs with exactly one player count.
func (c Config) Validate() error {
	ok := (c.SideLen == 8 && c.MaxPlayers == 2) ||
		(c.SideLen == 10 && c.MaxPlayers == 4) ||
		(c.SideLen == 12 && c.MaxPlayers == 6)
	if !ok {
		return ErrConfigInvalid
	}
	if c.FeeRate <= 0 || c.RewardRate <= 0 {
		return ErrConfigInvalid
	}
	return nil
}

// Game is the complete state of one session: a flat toroidal board of
// SideLen² cells plus the player table. Every mutating operation is a
// whole, synchronous state transition; the host serializes access per
// session.
//
// Two views of occupancy exist side by side: the cell marks, and the
// authoritative index fields (player positions, KingPos, BombPos,
// PowerupPos). The engine keeps them consistent; tests check it.
type Game struct {
	SideLen    int
	MaxPlayers int
	FeeRate    int64
	RewardRate int64

	Cells       []Mark
	Players     [MaxSupportedPlayers]Player
	PlayerCount int

	KingPos    int
	BombPos    int
	PowerupPos int

	Active    bool
	Finalized bool
	EndsAt    time.Time
}

// NewGame initializes an empty board for the given config and places
// the king on its deterministic starting cell: the upper-left corner of
// the center 2x2 block.
func NewGame(cfg Config) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		SideLen:    cfg.SideLen,
		MaxPlayers: cfg.MaxPlayers,
		FeeRate:    cfg.FeeRate,
		RewardRate: cfg.RewardRate,
		Cells:      make([]Mark, cfg.SideLen*cfg.SideLen),
	}
	center := (cfg.SideLen/2-1)*cfg.SideLen + (cfg.SideLen/2 - 1)
	g.KingPos = center
	g.Cells[center] = KingMark
	return g, nil
}

func DecodeGame(buf []byte) (*Game, error) {
	var g Game
	err := gob.NewDecoder(bytes.NewBuffer(buf)).Decode(&g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (g *Game) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Game) ActiveCells() int {
	return g.SideLen * g.SideLen
}

// CanRegister reports whether a registration would be accepted right
// now. The host checks this before collecting the registration fee.
func (g *Game) CanRegister() error {
	if g.PlayerCount >= g.MaxPlayers {
		return ErrCapacityExceeded
	}
	if g.Active || g.Finalized {
		return ErrSessionActive
	}
	return nil
}

// Register adds a player under the given external identity. Ids are
// 1-based and sequential; the spawn cell is the registration-order
// slot. Filling the last slot activates the session and starts the
// clock.
func (g *Game) Register(identity string, now time.Time) (Player, error) {
	if err := g.CanRegister(); err != nil {
		return Player{}, err
	}
	slot := g.PlayerCount
	p := Player{
		Identity: identity,
		ID:       uint8(slot + 1),
		Position: int16(slot),
	}
	g.Players[slot] = p
	g.Cells[slot] = Mark(p.ID)
	g.PlayerCount++
	if g.PlayerCount == g.MaxPlayers {
		g.Active = true
		g.EndsAt = now.Add(SessionDuration)
	}
	return p, nil
}

// playerIndex resolves a claimed 1-based player id to an index into the
// player table, verifying the id is bound to a registered player.
func (g *Game) playerIndex(playerID uint8) (int, error) {
	if playerID == 0 || int(playerID) > g.PlayerCount {
		return 0, ErrIdentityMismatch
	}
	i := int(playerID) - 1
	if g.Players[i].ID != playerID {
		return 0, ErrIdentityMismatch
	}
	return i, nil
}

// VerifyIdentity checks that the given player id is registered and
// bound to the given identity.
func (g *Game) VerifyIdentity(playerID uint8, identity string) error {
	i, err := g.playerIndex(playerID)
	if err != nil {
		return err
	}
	if g.Players[i].Identity != identity {
		return ErrIdentityMismatch
	}
	return nil
}

// TickScore grants one point to whichever player is standing on the
// king's cell right now, if any. Meant to be called on a cadence by the
// host's relayer; each call accrues score linearly.
func (g *Game) TickScore() uint8 {
	if id, ok := g.Cells[g.KingPos].PlayerID(); ok {
		g.Players[id-1].Score++
		return id
	}
	return 0
}

// SetKingPosition force-places the king on an empty cell. Privileged
// testing hook; the regular king movement goes through SpawnTile.
func (g *Game) SetKingPosition(index int) error {
	if !g.Active {
		return ErrSessionNotActive
	}
	if index < 0 || index >= g.ActiveCells() {
		return ErrIndexOutOfRange
	}
	if g.Cells[index] != Empty {
		return ErrCellNotEmpty
	}
	if g.Cells[g.KingPos] == KingMark {
		g.Cells[g.KingPos] = Empty
	}
	g.Cells[index] = KingMark
	g.KingPos = index
	return nil
}

// Standing is one row of the final score sheet handed to the host's
// reward collaborator. Reward arithmetic stays outside the core.
type Standing struct {
	Identity string
	PlayerID uint8
	Score    uint64
}

func (g *Game) scoreSheet() []Standing {
	standings := make([]Standing, g.PlayerCount)
	for i := range g.PlayerCount {
		p := g.Players[i]
		standings[i] = Standing{
			Identity: p.Identity,
			PlayerID: p.ID,
			Score:    p.Score,
		}
	}
	return standings
}

// Standings returns the current score sheet ordered best first.
func (g *Game) Standings() []Standing {
	standings := g.scoreSheet()
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return standings
}

// Finalize freezes the session once its deadline has passed and yields
// the final standings in registration order.
func (g *Game) Finalize(now time.Time) ([]Standing, error) {
	if !g.Active {
		return nil, ErrSessionNotActive
	}
	if now.Before(g.EndsAt) {
		return nil, ErrSessionNotOver
	}
	g.Active = false
	g.Finalized = true
	return g.scoreSheet(), nil
}
