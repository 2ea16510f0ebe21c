package handlers

import (
	"github.com/gorilla/schema"

	"github.com/kingstack/kingtiles-server/internal/session"
	"github.com/kingstack/kingtiles-server/internal/tiles"
)

type CreateSessionDTO struct {
	SideLen    int `schema:"side_len,required"`
	MaxPlayers int `schema:"max_players,required"`
}

func ParseCreateSessionDTO(src map[string][]string) (CreateSessionDTO, error) {
	var dto CreateSessionDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&dto, src)
	return dto, err
}

type MoveDTO struct {
	PlayerID  uint8  `schema:"player_id,required"`
	Direction string `schema:"dir,required"`
}

func ParseMoveDTO(src map[string][]string) (MoveDTO, error) {
	var dto MoveDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&dto, src)
	return dto, err
}

type PlayerDTO struct {
	Username    string `json:"username"`
	PlayerID    uint8  `json:"player_id"`
	Position    int16  `json:"position"`
	Score       uint64 `json:"score"`
	PowerCharge uint64 `json:"power_charge"`
}

type EventDTO struct {
	Kind   string `json:"kind"`
	Player uint8  `json:"player"`
	Cell   int    `json:"cell"`
}

type GameSessionDTO struct {
	SessionID  string      `json:"session_id"`
	SideLen    int         `json:"side_len"`
	MaxPlayers int         `json:"max_players"`
	Active     bool        `json:"active"`
	Finalized  bool        `json:"finalized"`
	EndsAt     *int64      `json:"ends_at,omitempty"`
	KingPos    int         `json:"king_pos"`
	BombPos    int         `json:"bomb_pos"`
	PowerupPos int         `json:"powerup_pos"`
	Board      []int       `json:"board"`
	Players    []PlayerDTO `json:"players"`
	Events     []EventDTO  `json:"events,omitempty"`
}

// NewGameSessionDTO snapshots a board into its wire representation.
// Callers must hold the session lock (use [session.Session.View]).
func NewGameSessionDTO(s *session.Session, g *tiles.Game, events []tiles.Event) *GameSessionDTO {
	board := make([]int, len(g.Cells))
	for i, m := range g.Cells {
		board[i] = int(m)
	}
	players := make([]PlayerDTO, g.PlayerCount)
	for i := range g.PlayerCount {
		p := g.Players[i]
		players[i] = PlayerDTO{
			Username:    p.Identity,
			PlayerID:    p.ID,
			Position:    p.Position,
			Score:       p.Score,
			PowerCharge: p.PowerCharge,
		}
	}
	var endsAt *int64
	if !g.EndsAt.IsZero() {
		e := g.EndsAt.UnixMilli()
		endsAt = &e
	}
	dto := &GameSessionDTO{
		SessionID:  s.PublicID.String(),
		SideLen:    g.SideLen,
		MaxPlayers: g.MaxPlayers,
		Active:     g.Active,
		Finalized:  g.Finalized,
		EndsAt:     endsAt,
		KingPos:    g.KingPos,
		BombPos:    g.BombPos,
		PowerupPos: g.PowerupPos,
		Board:      board,
		Players:    players,
	}
	for _, ev := range events {
		dto.Events = append(dto.Events, EventDTO{
			Kind:   ev.Kind.String(),
			Player: ev.Player,
			Cell:   ev.Cell,
		})
	}
	return dto
}
