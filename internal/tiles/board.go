package tiles

import "fmt"

// Mark is the value stored in a board cell. Player ids occupy the low
// range 1..MaxSupportedPlayers; the special tiles sit at the top of the
// byte so the two ranges can never collide. 0 is never a player id.
type Mark uint8

const (
	Empty       Mark = 0
	BombMark    Mark = 253
	PowerupMark Mark = 254
	KingMark    Mark = 255
)

// MaxSupportedPlayers is the capacity of the player table, matching the
// largest supported board mode (12x12 with 6 players).
const MaxSupportedPlayers = 6

// PowerupCharge is the charge granted by picking up a powerup tile. One
// charge pays for one power push.
const PowerupCharge = 4

// PushDistance is how many cells a power push displaces its target.
const PushDistance = 4

func (m Mark) IsPlayer() bool {
	return m >= 1 && m <= MaxSupportedPlayers
}

// PlayerID decodes a player mark into a 1-based player id. The second
// return is false for Empty and the special tiles.
func (m Mark) PlayerID() (uint8, bool) {
	if m.IsPlayer() {
		return uint8(m), true
	}
	return 0, false
}

func (m Mark) String() string {
	switch m {
	case Empty:
		return "."
	case KingMark:
		return "K"
	case BombMark:
		return "B"
	case PowerupMark:
		return "P"
	default:
		if m.IsPlayer() {
			return fmt.Sprintf("%d", uint8(m))
		}
		return "?"
	}
}

type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// ParseDirection accepts the wire names used by the HTTP and ws layers.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "?"
}

// Offset resolves a direction to a signed cell delta on a flat board of
// the given side length. Callers never pass raw deltas around; every
// offset in the engine originates here.
func (d Direction) Offset(side int) int {
	switch d {
	case Right:
		return 1
	case Left:
		return -1
	case Down:
		return side
	case Up:
		return -side
	}
	panic(AssertionError{fmt.Sprintf("invalid direction %d", d)})
}

// advance wraps position+delta onto the board with a floored modulo, so
// the result is always in [0, cells). The board is a torus: stepping off
// any edge re-enters on the opposite one.
func advance(position, delta, cells int) int {
	p := (position + delta) % cells
	if p < 0 {
		p += cells
	}
	return p
}

// assertIndex guards every computed cell index before it touches the
// board. An out-of-range index is an invariant violation, not a
// recoverable error.
func assertIndex(index, cells int) {
	if index < 0 || index >= cells {
		panic(AssertionError{fmt.Sprintf("cell index %d out of range [0, %d)", index, cells)})
	}
}

// isBasicStep reports whether offset is a single-cell step (one column
// or one row) as opposed to a longer power-push displacement.
func isBasicStep(offset, side int) bool {
	if offset < 0 {
		offset = -offset
	}
	return offset == 1 || offset == side
}

// unitStep reduces an offset to a single basic step with the same sign
// and axis: +-1 for horizontal offsets, +-side for vertical ones.
func unitStep(offset, side int) int {
	sign := 1
	if offset < 0 {
		sign = -1
	}
	if offset%side == 0 {
		return sign * side
	}
	return sign
}
