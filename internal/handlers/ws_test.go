package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingstack/kingtiles-server/internal/tiles"
)

func newRunningGame(t *testing.T) *tiles.Game {
	t.Helper()
	g, err := tiles.NewGame(tiles.Config{
		SideLen: 8, MaxPlayers: 2, FeeRate: 1, RewardRate: 1,
	})
	require.NoError(t, err)
	_, err = g.Register("alice", time.Now())
	require.NoError(t, err)
	_, err = g.Register("bob", time.Now())
	require.NoError(t, err)
	return g
}

func TestExecuteCommandRejectsGarbage(t *testing.T) {
	g := newRunningGame(t)

	for _, cmd := range []string{
		"x",
		"m u",
		"m u 1 extra",
		"m sideways 1",
		"p u notanumber",
		"",
	} {
		_, err := executeCommand(g, "alice", cmd)
		assert.Error(t, err, "command %q", cmd)
	}
}

func TestExecuteCommandSnapshot(t *testing.T) {
	g := newRunningGame(t)

	events, err := executeCommand(g, "alice", "g")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExecuteCommandMove(t *testing.T) {
	g := newRunningGame(t)

	events, err := executeCommand(g, "alice", "m d 1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, tiles.EventMoved, events[len(events)-1].Kind)
}

func TestExecuteCommandChecksIdentity(t *testing.T) {
	g := newRunningGame(t)

	_, err := executeCommand(g, "bob", "m u 1")
	assert.ErrorIs(t, err, tiles.ErrIdentityMismatch)

	_, err = executeCommand(g, "bob", "p u 1")
	assert.ErrorIs(t, err, tiles.ErrIdentityMismatch)
}

func TestExecuteCommandPowerWithoutCharge(t *testing.T) {
	g := newRunningGame(t)

	_, err := executeCommand(g, "alice", "p r 1")
	assert.ErrorIs(t, err, tiles.ErrNoCharge)
}
