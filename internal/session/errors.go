package session

import (
	"errors"

	"github.com/pixil98/go-factory/internal/factory"
)

// UserError represents an error that should be displayed to the user.
// These are not system failures - just invalid input or usage.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError creates a user-facing error.
func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}

// userMessage returns the text to show the player for err, or false if err
// is a system failure that should end the session.
func userMessage(err error) (string, bool) {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Message, true
	}
	var gameErr *factory.GameError
	if errors.As(err, &gameErr) {
		return gameErr.Message, true
	}
	return "", false
}
