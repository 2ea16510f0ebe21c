package tiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectionOffset(t *testing.T) {
	tests := []struct {
		dir  Direction
		side int
		want int
	}{
		{Right, 8, 1},
		{Left, 8, -1},
		{Down, 8, 8},
		{Up, 8, -8},
		{Down, 12, 12},
		{Up, 10, -10},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.dir.Offset(test.side))
	}
}

func TestAdvanceStaysOnBoard(t *testing.T) {
	for _, side := range []int{8, 10, 12} {
		cells := side * side
		for pos := range cells {
			for _, dir := range []Direction{Up, Down, Left, Right} {
				got := advance(pos, dir.Offset(side), cells)
				if got < 0 || got >= cells {
					t.Fatalf("advance(%d, %v, %d) = %d, off board", pos, dir, cells, got)
				}
			}
		}
	}
}

func TestAdvanceWrapsEdges(t *testing.T) {
	tests := []struct {
		name       string
		pos, delta int
		want       int
	}{
		{"left edge wraps", 0, -1, 63},
		{"right edge wraps", 63, 1, 0},
		{"top edge wraps", 3, -8, 59},
		{"bottom edge wraps", 59, 8, 3},
		{"interior right", 10, 1, 11},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, advance(test.pos, test.delta, 64))
		})
	}
}

func TestUnitStep(t *testing.T) {
	assert.Equal(t, 1, unitStep(4, 8))
	assert.Equal(t, -1, unitStep(-4, 8))
	assert.Equal(t, 8, unitStep(32, 8))
	assert.Equal(t, -8, unitStep(-32, 8))
	assert.Equal(t, 10, unitStep(40, 10))
	assert.Equal(t, 12, unitStep(48, 12))
}

func TestIsBasicStep(t *testing.T) {
	assert.True(t, isBasicStep(1, 8))
	assert.True(t, isBasicStep(-1, 8))
	assert.True(t, isBasicStep(8, 8))
	assert.True(t, isBasicStep(-8, 8))
	assert.False(t, isBasicStep(4, 8))
	assert.False(t, isBasicStep(-32, 8))
}

func TestMarkDecode(t *testing.T) {
	for id := uint8(1); id <= MaxSupportedPlayers; id++ {
		got, ok := Mark(id).PlayerID()
		assert.True(t, ok)
		assert.Equal(t, id, got)
	}
	for _, m := range []Mark{Empty, KingMark, BombMark, PowerupMark} {
		_, ok := m.PlayerID()
		assert.False(t, ok, "mark %v must not decode as a player", m)
	}
}
