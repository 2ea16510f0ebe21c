package tiles

// Player is one registered occupant of the board. Identity is the
// opaque external identity the host registered the player under; ID is
// the 1-based sequential id doubling as the player's board mark.
type Player struct {
	Identity    string
	ID          uint8
	Position    int16
	Score       uint64
	PowerCharge uint64
}

// HomeSlot is the player's registration-order starting cell, used as the
// landing target when a bomb sends the player back.
func (p Player) HomeSlot() int {
	return int(p.ID) - 1
}
