package tiles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// teleport moves a player directly for test setup, keeping the board
// marks consistent with the player table.
func teleport(t *testing.T, g *Game, id uint8, cell int) {
	t.Helper()
	p := &g.Players[id-1]
	require.Equal(t, Mark(p.ID), g.Cells[p.Position])
	g.Cells[p.Position] = Empty
	require.Equal(t, Empty, g.Cells[cell])
	g.Cells[cell] = Mark(p.ID)
	p.Position = int16(cell)
}

func TestMoveIntoEmptyCell(t *testing.T) {
	g := newActiveGame(t)

	res, err := g.Move(2, "bob", Down, testStart)
	require.NoError(t, err)

	assert.Equal(t, Empty, g.Cells[1])
	assert.Equal(t, Mark(2), g.Cells[9])
	assert.Equal(t, int16(9), g.Players[1].Position)
	assert.Equal(t, []Event{{Kind: EventMoved, Player: 2, Cell: 9}}, res.Events)
	assertConsistent(t, g)
}

func TestMoveBasicPush(t *testing.T) {
	// Players at cells 0 and 1; a move right into the occupied cell 1
	// bumps the occupant two cells onward, to (1 + 2*1) mod 64 = 3.
	g := newActiveGame(t)

	res, err := g.Move(1, "alice", Right, testStart)
	require.NoError(t, err)

	assert.Equal(t, Empty, g.Cells[0])
	assert.Equal(t, Mark(1), g.Cells[1])
	assert.Equal(t, Mark(2), g.Cells[3])
	assert.Equal(t, []Event{
		{Kind: EventDisplaced, Player: 2, Cell: 3},
		{Kind: EventMoved, Player: 1, Cell: 1},
	}, res.Events, "displaced occupant resolves before the mover lands")
	assertConsistent(t, g)
}

func TestMoveChainedPush(t *testing.T) {
	g := newTestGame(t, 10, 4)
	now := testStart
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := g.Register(name, now)
		require.NoError(t, err)
	}
	// Players sit on 0..3. Player 1 moving right pushes player 2 from
	// 1 to 3, where player 4 sits; player 4 is pushed on to 5 first.
	res, err := g.Move(1, "a", Right, now)
	require.NoError(t, err)

	assert.Equal(t, Mark(1), g.Cells[1])
	assert.Equal(t, Mark(3), g.Cells[2], "uninvolved player stays put")
	assert.Equal(t, Mark(2), g.Cells[3])
	assert.Equal(t, Mark(4), g.Cells[5])
	assert.Equal(t, Empty, g.Cells[0])
	assert.Equal(t, []Event{
		{Kind: EventDisplaced, Player: 4, Cell: 5},
		{Kind: EventDisplaced, Player: 2, Cell: 3},
		{Kind: EventMoved, Player: 1, Cell: 1},
	}, res.Events)
	assertConsistent(t, g)
}

func TestMovePushWrapsAroundBoard(t *testing.T) {
	g := newActiveGame(t)
	teleport(t, g, 1, 62)
	teleport(t, g, 2, 63)

	res, err := g.Move(1, "alice", Right, testStart)
	require.NoError(t, err)

	// (63 + 2) mod 64 = 1.
	assert.Equal(t, Mark(2), g.Cells[1])
	assert.Equal(t, Mark(1), g.Cells[63])
	assert.Equal(t, EventDisplaced, res.Events[0].Kind)
	assertConsistent(t, g)
}

func TestMoveOntoKing(t *testing.T) {
	g := newActiveGame(t)
	teleport(t, g, 1, g.KingPos-1)

	res, err := g.Move(1, "alice", Right, testStart)
	require.NoError(t, err)

	assert.Equal(t, Mark(1), g.Cells[g.KingPos], "king mark is overwritten, respawn is external")
	require.Len(t, res.Events, 2)
	assert.Equal(t, EventScoredKing, res.Events[1].Kind)
	assert.Equal(t, uint64(0), g.Players[0].Score, "landing only signals; scoring is the tick's job")
}

func TestMoveOntoPowerup(t *testing.T) {
	g := newActiveGame(t)
	g.SpawnTile(PowerupTile, 40)
	require.Equal(t, 40, g.PowerupPos)
	teleport(t, g, 2, 32)

	res, err := g.Move(2, "bob", Down, testStart)
	require.NoError(t, err)

	assert.Equal(t, Mark(2), g.Cells[40])
	assert.Equal(t, uint64(PowerupCharge), g.Players[1].PowerCharge)
	require.Len(t, res.Events, 2)
	assert.Equal(t, EventScoredPowerup, res.Events[1].Kind)
	assertConsistent(t, g)
}

func TestMoveOntoBombReturnsHome(t *testing.T) {
	g := newActiveGame(t)
	g.SpawnTile(BombTile, 40)
	teleport(t, g, 2, 32)

	res, err := g.Move(2, "bob", Down, testStart)
	require.NoError(t, err)

	assert.Equal(t, Empty, g.Cells[40], "bomb is consumed")
	assert.Equal(t, Empty, g.Cells[32])
	assert.Equal(t, Mark(2), g.Cells[1], "home slot was free")
	assert.Equal(t, []Event{{Kind: EventBombed, Player: 2, Cell: 1}}, res.Events)
	assertConsistent(t, g)
}

func TestMoveOntoBombProbesOccupiedHome(t *testing.T) {
	g := newActiveGame(t)
	g.SpawnTile(BombTile, 40)
	teleport(t, g, 2, 32)
	teleport(t, g, 1, 1) // squat on player 2's home slot

	res, err := g.Move(2, "bob", Down, testStart)
	require.NoError(t, err)

	assert.Equal(t, Mark(2), g.Cells[2], "probes forward past the occupied home slot")
	assert.Equal(t, 2, res.Events[0].Cell)
	assertConsistent(t, g)
}

func TestMoveValidation(t *testing.T) {
	g := newTestGame(t, 8, 2)
	_, err := g.Register("alice", testStart)
	require.NoError(t, err)

	_, err = g.Move(1, "alice", Right, testStart)
	assert.ErrorIs(t, err, ErrSessionNotActive, "one slot still open")

	_, err = g.Register("bob", testStart)
	require.NoError(t, err)

	tests := []struct {
		name     string
		playerID uint8
		identity string
		now      time.Time
		want     error
	}{
		{"expired", 1, "alice", testStart.Add(SessionDuration), ErrSessionExpired},
		{"unknown id", 5, "alice", testStart, ErrIdentityMismatch},
		{"zero id", 0, "alice", testStart, ErrIdentityMismatch},
		{"foreign player", 2, "alice", testStart, ErrIdentityMismatch},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before, err := g.Bytes()
			require.NoError(t, err)
			_, err = g.Move(test.playerID, test.identity, Right, test.now)
			assert.ErrorIs(t, err, test.want)
			after, err := g.Bytes()
			require.NoError(t, err)
			assert.Equal(t, before, after, "rejected move must not mutate state")
		})
	}
}

func TestBasicPushNeverBlocks(t *testing.T) {
	// Whatever surrounds the destination, a basic step into an
	// occupied cell must terminate with the mover on that cell.
	g := newTestGame(t, 10, 4)
	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := g.Register(name, testStart)
		require.NoError(t, err)
	}
	for _, dir := range []Direction{Right, Down, Left, Up} {
		from := g.Players[0].Position
		res, err := g.Move(1, "a", dir, testStart)
		require.NoError(t, err)
		require.NotEmpty(t, res.Events)
		assert.NotEqual(t, from, g.Players[0].Position)
		assertConsistent(t, g)
	}
}
