package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/undolog/internal/ir"
)

func TestDispatchError_Error(t *testing.T) {
	err := NewInvalidActionError("", "action type must be a non-empty string")
	assert.Equal(t, "INVALID_ACTION: action type must be a non-empty string", err.Error())

	err = NewInvalidActionError("history/load", "payload.key must be a string")
	assert.Equal(t, `INVALID_ACTION: payload.key must be a string (type="history/load")`, err.Error())
}

func TestIsInvalidAction(t *testing.T) {
	err := ValidateAction(ir.Action{})
	assert.True(t, IsInvalidAction(err))
	assert.True(t, IsInvalidAction(fmt.Errorf("dispatch: %w", err)))

	assert.NoError(t, ValidateAction(ir.Action{Type: "inc"}))
	assert.False(t, IsInvalidAction(nil))
	assert.False(t, IsInvalidAction(fmt.Errorf("other")))
}
