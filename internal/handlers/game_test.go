package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingstack/kingtiles-server/internal/tiles"
)

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{tiles.ErrConfigInvalid, http.StatusBadRequest},
		{tiles.ErrIndexOutOfRange, http.StatusBadRequest},
		{tiles.ErrIdentityMismatch, http.StatusForbidden},
		{tiles.ErrCapacityExceeded, http.StatusConflict},
		{tiles.ErrSessionActive, http.StatusConflict},
		{tiles.ErrSessionNotActive, http.StatusConflict},
		{tiles.ErrSessionNotFull, http.StatusConflict},
		{tiles.ErrSessionExpired, http.StatusConflict},
		{tiles.ErrSessionNotOver, http.StatusConflict},
		{tiles.ErrNoCharge, http.StatusConflict},
		{tiles.ErrCellNotEmpty, http.StatusConflict},
		{errors.New("database on fire"), http.StatusInternalServerError},
	} {
		assert.Equal(t, tc.status, statusFor(tc.err), "error %v", tc.err)
	}
}

// Spawn draws randomness on concurrently served requests; this trips
// the race detector if the draw ever goes back to shared mutable state.
func TestRandomByteConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				_ = randomByte()
			}
		}()
	}
	wg.Wait()
}

func TestParseCreateSessionDTO(t *testing.T) {
	dto, err := ParseCreateSessionDTO(url.Values{
		"side_len":    {"10"},
		"max_players": {"4"},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, dto.SideLen)
	assert.Equal(t, 4, dto.MaxPlayers)

	_, err = ParseCreateSessionDTO(url.Values{"side_len": {"10"}})
	assert.Error(t, err)
}

func TestParseMoveDTO(t *testing.T) {
	dto, err := ParseMoveDTO(url.Values{
		"player_id": {"2"},
		"dir":       {"up"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(2), dto.PlayerID)
	assert.Equal(t, "up", dto.Direction)

	_, err = ParseMoveDTO(url.Values{"dir": {"up"}})
	assert.Error(t, err)
}
