package tiles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestGame(t *testing.T, side, maxPlayers int) *Game {
	t.Helper()
	g, err := NewGame(Config{
		SideLen:    side,
		MaxPlayers: maxPlayers,
		FeeRate:    1000,
		RewardRate: 50,
	})
	require.NoError(t, err)
	return g
}

// newActiveGame returns an 8x8 game with both players registered, so
// the session is active with players on cells 0 and 1.
func newActiveGame(t *testing.T) *Game {
	t.Helper()
	g := newTestGame(t, 8, 2)
	_, err := g.Register("alice", testStart)
	require.NoError(t, err)
	_, err = g.Register("bob", testStart)
	require.NoError(t, err)
	require.True(t, g.Active)
	return g
}

// assertConsistent checks the one-occupant-per-cell class invariant:
// every non-empty mark is backed by exactly one authoritative index
// (a player position or a special tile position field).
func assertConsistent(t *testing.T, g *Game) {
	t.Helper()
	for i, m := range g.Cells {
		switch {
		case m == Empty:
		case m == KingMark:
			assert.Equal(t, g.KingPos, i, "king mark at %d but KingPos=%d", i, g.KingPos)
		case m == BombMark:
			assert.Equal(t, g.BombPos, i, "bomb mark at %d but BombPos=%d", i, g.BombPos)
		case m == PowerupMark:
			assert.Equal(t, g.PowerupPos, i, "powerup mark at %d but PowerupPos=%d", i, g.PowerupPos)
		default:
			id, ok := m.PlayerID()
			require.True(t, ok, "cell %d holds invalid mark %d", i, m)
			require.LessOrEqual(t, int(id), g.PlayerCount)
			assert.Equal(t, int16(i), g.Players[id-1].Position,
				"cell %d marked for player %d but player is at %d", i, id, g.Players[id-1].Position)
		}
	}
	for i := range g.PlayerCount {
		p := g.Players[i]
		assert.Equal(t, Mark(p.ID), g.Cells[p.Position],
			"player %d at %d but cell holds %v", p.ID, p.Position, g.Cells[p.Position])
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"8x8 with 2", Config{8, 2, 100, 10}, true},
		{"10x10 with 4", Config{10, 4, 100, 10}, true},
		{"12x12 with 6", Config{12, 6, 100, 10}, true},
		{"8x8 with 4", Config{8, 4, 100, 10}, false},
		{"12x12 with 2", Config{12, 2, 100, 10}, false},
		{"9x9 with 2", Config{9, 2, 100, 10}, false},
		{"zero fee", Config{8, 2, 0, 10}, false},
		{"zero reward", Config{8, 2, 100, 0}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewGame(test.cfg)
			if test.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrConfigInvalid)
			}
		})
	}
}

func TestKingStartingCell(t *testing.T) {
	tests := []struct {
		side, players, want int
	}{
		{8, 2, 27},   // (4-1)*8 + 3
		{10, 4, 44},  // (5-1)*10 + 4
		{12, 6, 65},  // (6-1)*12 + 5
	}
	for _, test := range tests {
		g := newTestGame(t, test.side, test.players)
		assert.Equal(t, test.want, g.KingPos)
		assert.Equal(t, KingMark, g.Cells[test.want])
	}
}

func TestRegistrationAssignsSlots(t *testing.T) {
	g := newTestGame(t, 10, 4)
	for i, name := range []string{"a", "b", "c", "d"} {
		p, err := g.Register(name, testStart)
		require.NoError(t, err)
		assert.Equal(t, uint8(i+1), p.ID)
		assert.Equal(t, int16(i), p.Position)
		assert.Equal(t, Mark(p.ID), g.Cells[i])
	}
	assert.True(t, g.Active)
	assert.Equal(t, testStart.Add(SessionDuration), g.EndsAt)
	assertConsistent(t, g)
}

func TestRegistrationGating(t *testing.T) {
	g := newActiveGame(t)
	before, err := g.Bytes()
	require.NoError(t, err)

	_, err = g.Register("mallory", testStart)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	after, err := g.Bytes()
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected registration must not mutate state")
}

func TestTickScore(t *testing.T) {
	g := newActiveGame(t)
	assert.Equal(t, uint8(0), g.TickScore(), "no one on the king cell yet")

	// Walk player 1 onto the king cell directly.
	g.Cells[g.Players[0].Position] = Empty
	g.Cells[g.KingPos] = Mark(1)
	g.Players[0].Position = int16(g.KingPos)

	assert.Equal(t, uint8(1), g.TickScore())
	assert.Equal(t, uint8(1), g.TickScore())
	assert.Equal(t, uint64(2), g.Players[0].Score, "repeated ticks accrue linearly")
}

func TestSetKingPosition(t *testing.T) {
	g := newActiveGame(t)
	oldPos := g.KingPos

	assert.ErrorIs(t, g.SetKingPosition(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, g.SetKingPosition(64), ErrIndexOutOfRange)
	assert.ErrorIs(t, g.SetKingPosition(0), ErrCellNotEmpty, "player 1 is on cell 0")

	require.NoError(t, g.SetKingPosition(40))
	assert.Equal(t, 40, g.KingPos)
	assert.Equal(t, KingMark, g.Cells[40])
	assert.Equal(t, Empty, g.Cells[oldPos])
	assertConsistent(t, g)
}

func TestFinalize(t *testing.T) {
	g := newActiveGame(t)
	g.Players[0].Score = 7
	g.Players[1].Score = 3

	_, err := g.Finalize(testStart.Add(30 * time.Second))
	assert.ErrorIs(t, err, ErrSessionNotOver)
	assert.True(t, g.Active)

	standings, err := g.Finalize(testStart.Add(SessionDuration))
	require.NoError(t, err)
	assert.False(t, g.Active)
	assert.True(t, g.Finalized)
	assert.Equal(t, []Standing{
		{Identity: "alice", PlayerID: 1, Score: 7},
		{Identity: "bob", PlayerID: 2, Score: 3},
	}, standings)

	_, err = g.Finalize(testStart.Add(2 * SessionDuration))
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestStandingsOrderedByScore(t *testing.T) {
	g := newActiveGame(t)
	g.Players[0].Score = 2
	g.Players[1].Score = 9

	standings := g.Standings()
	assert.Equal(t, []Standing{
		{Identity: "bob", PlayerID: 2, Score: 9},
		{Identity: "alice", PlayerID: 1, Score: 2},
	}, standings)
}

func TestGameStateRoundTrip(t *testing.T) {
	g := newActiveGame(t)
	g.Players[0].Score = 4
	g.SpawnTile(BombTile, 99)

	buf, err := g.Bytes()
	require.NoError(t, err)
	decoded, err := DecodeGame(buf)
	require.NoError(t, err)
	assert.Equal(t, g, decoded)
}
