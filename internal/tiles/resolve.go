package tiles

import "time"

type EventKind uint8

const (
	// EventMoved: the acting player relocated to Cell.
	EventMoved EventKind = iota
	// EventDisplaced: Player was pushed out of the way to Cell.
	EventDisplaced
	// EventScoredKing: Player landed on the king tile.
	EventScoredKing
	// EventBombed: Player stepped on the bomb and was sent back to Cell.
	EventBombed
	// EventScoredPowerup: Player picked up the powerup charge.
	EventScoredPowerup
	// EventPowerBlocked: the power push found its target but the
	// nudge-aside cell was occupied; nothing moved.
	EventPowerBlocked
	// EventPowerMissed: the power push scan reached the board edge
	// without finding a target. The charge is spent regardless.
	EventPowerMissed
)

func (k EventKind) String() string {
	switch k {
	case EventMoved:
		return "moved"
	case EventDisplaced:
		return "displaced"
	case EventScoredKing:
		return "scored_king"
	case EventBombed:
		return "bombed"
	case EventScoredPowerup:
		return "scored_powerup"
	case EventPowerBlocked:
		return "power_blocked"
	case EventPowerMissed:
		return "power_missed"
	}
	return "?"
}

// Event describes one side effect of a move or power push, for the host
// to turn into notifications. Cell is the landing cell where that makes
// sense, -1 otherwise.
type Event struct {
	Kind   EventKind
	Player uint8
	Cell   int
}

// MoveResult collects the side effects of one resolved operation in the
// order they took place: displaced occupants first, the triggering
// player last.
type MoveResult struct {
	Events []Event
}

// Move resolves one basic step for the given player. All validation
// happens before the first board mutation; a rejected move leaves the
// session untouched.
func (g *Game) Move(playerID uint8, identity string, dir Direction, now time.Time) (*MoveResult, error) {
	if !g.Active {
		return nil, ErrSessionNotActive
	}
	if g.PlayerCount != g.MaxPlayers {
		return nil, ErrSessionNotFull
	}
	if !now.Before(g.EndsAt) {
		return nil, ErrSessionExpired
	}
	i, err := g.playerIndex(playerID)
	if err != nil {
		return nil, err
	}
	if g.Players[i].Identity != identity {
		return nil, ErrIdentityMismatch
	}
	offset := dir.Offset(g.SideLen)
	dest := advance(int(g.Players[i].Position), offset, g.ActiveCells())
	events, _ := g.resolve(i, dest, offset, true)
	return &MoveResult{Events: events}, nil
}

// UsePower spends the player's charge on a power push: scan outward in
// dir for the nearest occupant, then launch it PushDistance cells. The
// scan never wraps past a board edge, but the push destination does.
// The charge is consumed even when the scan finds nothing or the push
// is blocked.
func (g *Game) UsePower(playerID uint8, dir Direction) (*MoveResult, error) {
	i, err := g.playerIndex(playerID)
	if err != nil {
		return nil, err
	}
	if g.Players[i].PowerCharge == 0 {
		return nil, ErrNoCharge
	}
	g.Players[i].PowerCharge = 0

	offset := dir.Offset(g.SideLen)
	pos := int(g.Players[i].Position)
	target := -1
	for probe := pos + offset; g.onScanPath(pos, probe, dir); probe += offset {
		if g.Cells[probe].IsPlayer() {
			target = probe
			break
		}
	}
	if target == -1 {
		return &MoveResult{Events: []Event{
			{Kind: EventPowerMissed, Player: playerID, Cell: -1},
		}}, nil
	}

	targetID, _ := g.Cells[target].PlayerID()
	applied := PushDistance * offset
	dest := advance(int(g.Players[targetID-1].Position), applied, g.ActiveCells())
	events, ok := g.resolve(int(targetID)-1, dest, applied, false)
	if !ok {
		events = []Event{{Kind: EventPowerBlocked, Player: targetID, Cell: -1}}
	}
	return &MoveResult{Events: events}, nil
}

// onScanPath reports whether probe is still on the power-push scan path
// starting at pos: horizontal scans stop at the row boundary instead of
// wrapping onto a neighbor row, vertical scans stop at the top and
// bottom edges.
func (g *Game) onScanPath(pos, probe int, dir Direction) bool {
	if probe < 0 || probe >= g.ActiveCells() {
		return false
	}
	if dir == Left || dir == Right {
		return probe/g.SideLen == pos/g.SideLen
	}
	return true
}

// pendingStep is one deferred resolution: playerIdx wants to enter dest
// having moved by offset. Frames stack up as collisions chain.
type pendingStep struct {
	playerIdx int
	dest      int
	offset    int
	initiator bool
}

// resolve runs the move/collision engine for one attempted step. A
// displaced occupant is fully re-resolved before the pusher takes its
// cell; an explicit stack keeps that order without growing the call
// stack on long chains.
//
// The second return is false only when a power-magnitude push was
// blocked; the board is untouched in that case, since the power branch
// can only occur in the first frame, before any mutation.
//
// initiator marks whether the first frame is the player's own move (a
// Moved event) or a push landed on them (a Displaced event).
func (g *Game) resolve(playerIdx, dest, offset int, initiator bool) ([]Event, bool) {
	cells := g.ActiveCells()
	var events []Event
	stack := []pendingStep{{playerIdx, dest, offset, initiator}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		assertIndex(cur.dest, cells)
		mark := g.Cells[cur.dest]
		actor := &g.Players[cur.playerIdx]

		if id, ok := mark.PlayerID(); ok {
			other := &g.Players[id-1]
			if isBasicStep(cur.offset, g.SideLen) {
				// Basic push: the occupant is launched two steps
				// onward and fully re-resolved before cur lands.
				otherDest := advance(int(other.Position), 2*cur.offset, cells)
				stack = append(stack, pendingStep{int(id) - 1, otherDest, cur.offset, false})
				continue
			}
			// Power push: nudge the occupant one basic step aside,
			// or block the whole action if that cell is taken.
			aside := advance(int(other.Position), unitStep(cur.offset, g.SideLen), cells)
			if g.Cells[aside] != Empty {
				return nil, false
			}
			g.relocate(int(id)-1, aside)
			events = append(events, Event{Kind: EventDisplaced, Player: id, Cell: aside})
			continue // cur.dest is now empty
		}

		stack = stack[:len(stack)-1]
		switch mark {
		case Empty:
			g.relocate(cur.playerIdx, cur.dest)
			events = append(events, stepEvent(cur, actor.ID))
		case KingMark:
			g.relocate(cur.playerIdx, cur.dest)
			events = append(events,
				stepEvent(cur, actor.ID),
				Event{Kind: EventScoredKing, Player: actor.ID, Cell: cur.dest},
			)
		case PowerupMark:
			g.relocate(cur.playerIdx, cur.dest)
			actor.PowerCharge = PowerupCharge
			events = append(events,
				stepEvent(cur, actor.ID),
				Event{Kind: EventScoredPowerup, Player: actor.ID, Cell: cur.dest},
			)
		case BombMark:
			home := g.sendHome(cur.playerIdx, cur.dest)
			events = append(events, Event{Kind: EventBombed, Player: actor.ID, Cell: home})
		default:
			panic(AssertionError{"unknown mark " + mark.String()})
		}
	}
	return events, true
}

func stepEvent(cur pendingStep, id uint8) Event {
	kind := EventDisplaced
	if cur.initiator {
		kind = EventMoved
	}
	return Event{Kind: kind, Player: id, Cell: cur.dest}
}

// relocate moves a player onto dest, which must be empty or about to be
// overwritten (king/powerup pickup). The old cell is cleared after the
// new one is marked, mirroring the one-cell-one-occupant bookkeeping.
func (g *Game) relocate(playerIdx, dest int) {
	p := &g.Players[playerIdx]
	g.Cells[dest] = Mark(p.ID)
	g.Cells[p.Position] = Empty
	p.Position = int16(dest)
}

// sendHome handles a bomb landing: the bomb and the player's old cell
// are cleared, and the player returns to their home slot, probing
// forward to the first empty cell if the slot is taken. Returns the
// landing cell.
func (g *Game) sendHome(playerIdx, bombCell int) int {
	p := &g.Players[playerIdx]
	g.Cells[p.Position] = Empty
	g.Cells[bombCell] = Empty
	slot := p.HomeSlot()
	for g.Cells[slot] != Empty {
		slot = advance(slot, 1, g.ActiveCells())
	}
	g.Cells[slot] = Mark(p.ID)
	p.Position = int16(slot)
	return slot
}
