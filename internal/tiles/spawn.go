package tiles

import "fmt"

// TileKind selects which special tile a spawn operation concerns.
type TileKind uint8

const (
	KingTile TileKind = iota
	BombTile
	PowerupTile
)

func ParseTileKind(s string) (TileKind, error) {
	switch s {
	case "king":
		return KingTile, nil
	case "bomb":
		return BombTile, nil
	case "powerup":
		return PowerupTile, nil
	}
	return 0, fmt.Errorf("unknown tile kind %q", s)
}

func (k TileKind) String() string {
	switch k {
	case KingTile:
		return "king"
	case BombTile:
		return "bomb"
	case PowerupTile:
		return "powerup"
	}
	return "?"
}

func (k TileKind) mark() Mark {
	switch k {
	case KingTile:
		return KingMark
	case BombTile:
		return BombMark
	case PowerupTile:
		return PowerupMark
	}
	panic(AssertionError{fmt.Sprintf("invalid tile kind %d", k)})
}

// SpawnTile (re)places a special tile on a random empty cell. randByte
// comes from the host's randomness collaborator and seeds the candidate
// cell; from there the first empty cell is found by linear forward
// probing, wrapping at the end of the board.
//
// The tile's old cell is cleared only if it still carries the tile's
// own mark; if a player has since landed there, the tile was consumed
// and the player keeps the cell.
//
// Termination relies on at least one cell being empty. That holds for
// every supported mode: at most 6 players plus 3 special tiles on 64 or
// more cells. It is a liveness assumption, not a guarded condition.
func (g *Game) SpawnTile(kind TileKind, randByte uint8) int {
	cells := g.ActiveCells()
	mark := kind.mark()

	old := g.tilePos(kind)
	if g.Cells[old] == mark {
		g.Cells[old] = Empty
	}

	index := int(randByte) % cells
	for g.Cells[index] != Empty {
		index = advance(index, 1, cells)
	}
	g.Cells[index] = mark
	g.setTilePos(kind, index)
	return index
}

func (g *Game) tilePos(kind TileKind) int {
	switch kind {
	case KingTile:
		return g.KingPos
	case BombTile:
		return g.BombPos
	case PowerupTile:
		return g.PowerupPos
	}
	panic(AssertionError{fmt.Sprintf("invalid tile kind %d", kind)})
}

func (g *Game) setTilePos(kind TileKind, index int) {
	switch kind {
	case KingTile:
		g.KingPos = index
	case BombTile:
		g.BombPos = index
	case PowerupTile:
		g.PowerupPos = index
	}
}
