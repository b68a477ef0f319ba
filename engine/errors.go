package engine

import "errors"

// Precondition violations. All are expected, recoverable conditions: the
// caller declined an action, nothing was mutated.
var (
	ErrWrongPhase    = errors.New("wrong phase for action")
	ErrGameFull      = errors.New("game is full")
	ErrAlreadyJoined = errors.New("player already joined")
	ErrDeparted      = errors.New("player already left this lobby")
	ErrUnknownPlayer = errors.New("unknown player")
	ErrNotHost       = errors.New("only the host may do that")
	ErrRosterSize    = errors.New("roster size does not match seat count")
	ErrDeadPlayer    = errors.New("player is not alive")
	ErrWrongRole     = errors.New("role cannot perform this action")
	ErrGameEnded     = errors.New("game has ended")
)

// ErrRoleTable indicates the configured role table does not cover the
// seat count. This is a caller-side configuration bug.
var ErrRoleTable = errors.New("role table does not match seat count")
