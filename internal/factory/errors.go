package factory

import "errors"

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrRoomStopped = errors.New("room stopped")
)

// GameError is a recoverable command failure. Message is meant for players;
// Cause is one of the sentinel errors and is what callers should match on.
type GameError struct {
	Cause   error
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func (e *GameError) Unwrap() error {
	return e.Cause
}

// NewGameError creates a player-facing error caused by cause.
func NewGameError(cause error, msg string) *GameError {
	return &GameError{Cause: cause, Message: msg}
}
