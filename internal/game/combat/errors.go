package combat

import (
	"errors"

	"github.com/cory-johannsen/skirmish/internal/game/move"
)

// Player input errors. Each is recovered by re-prompting; none mutates state.
var (
	// ErrInputRejected marks a malformed or illegal selection.
	ErrInputRejected = errors.New("input rejected")
	// ErrTargetUnresolved marks a targeted move with no opponent in its range band.
	ErrTargetUnresolved = errors.New("no target in range")
	// ErrInsufficientFatigue marks a move whose cost exceeds the user's fatigue.
	ErrInsufficientFatigue = errors.New("insufficient fatigue")
	// ErrMoveNotReady marks a move that is not in the READY stage.
	ErrMoveNotReady = move.ErrNotReady
)

// ErrSessionActive is returned by Engine.Start when the player is already in an encounter.
var ErrSessionActive = errors.New("session already active")

// recoverable reports whether err is a player input error that should re-prompt.
func recoverable(err error) bool {
	return errors.Is(err, ErrInputRejected) ||
		errors.Is(err, ErrTargetUnresolved) ||
		errors.Is(err, ErrInsufficientFatigue) ||
		errors.Is(err, ErrMoveNotReady)
}
