package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/undolog/internal/ir"
)

// DispatchError is returned synchronously from Dispatch when an action is
// refused before it reaches the reducer.
type DispatchError struct {
	// Code identifies the error category.
	Code DispatchErrorCode

	// Message is a human-readable description.
	Message string

	// ActionType is the offending action's type, possibly empty.
	ActionType string
}

// DispatchErrorCode categorizes dispatch errors.
type DispatchErrorCode string

const (
	// ErrCodeInvalidAction indicates the action is not a well-formed action
	// (missing or empty type).
	ErrCodeInvalidAction DispatchErrorCode = "INVALID_ACTION"
)

func (e *DispatchError) Error() string {
	if e.ActionType != "" {
		return fmt.Sprintf("%s: %s (type=%q)", e.Code, e.Message, e.ActionType)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidActionError creates a DispatchError for a malformed action.
func NewInvalidActionError(actionType, message string) *DispatchError {
	return &DispatchError{
		Code:       ErrCodeInvalidAction,
		Message:    message,
		ActionType: actionType,
	}
}

// IsInvalidAction reports whether err is, or wraps, an INVALID_ACTION error.
func IsInvalidAction(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeInvalidAction
	}
	return false
}

// ValidateAction checks the shape every dispatched action must have.
func ValidateAction(action ir.Action) error {
	if action.Type == "" {
		return NewInvalidActionError("", "action type must be a non-empty string")
	}
	return nil
}
