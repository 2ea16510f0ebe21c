package tiles

import "errors"

var (
	ErrConfigInvalid    = errors.New("invalid game configuration")
	ErrCapacityExceeded = errors.New("maximum players already registered")
	ErrSessionActive    = errors.New("session already active")
	ErrSessionNotActive = errors.New("session is not active")
	ErrSessionNotFull   = errors.New("session is not full")
	ErrSessionExpired   = errors.New("session has ended")
	ErrSessionNotOver   = errors.New("session is not over yet")
	ErrIdentityMismatch = errors.New("caller does not own this player")
	ErrNoCharge         = errors.New("no power charge available")
	ErrIndexOutOfRange  = errors.New("cell index out of range")
	ErrCellNotEmpty     = errors.New("cell is not empty")
)

// AssertionError marks an arithmetic or board invariant violation. It is
// raised by panic, never returned: a broken invariant means the session
// state can no longer be trusted and the operation must abort.
type AssertionError struct {
	message string
}

// [AssertionError] implements [error]
func (e AssertionError) Error() string {
	return e.message
}
