// Package counter is a small deterministic reducer used by the CLI and the
// scenario harness to exercise action histories end to end.
package counter

import "github.com/roach88/undolog/internal/ir"

// Action types handled by Reduce.
const (
	ActionIncrement = "inc"
	ActionDecrement = "dec"
	ActionSet       = "set"
	ActionLabel     = "label"
)

// State is the counter value plus a free-form label.
type State struct {
	Count int64  `json:"count"`
	Label string `json:"label,omitempty"`
}

// Reduce applies action to state. A nil state yields the zero State.
//
//   - inc / dec: payload {"by": int}, default 1
//   - set:       payload {"value": int}
//   - label:     payload {"text": string}
//
// Unknown actions return the state unchanged.
func Reduce(state *State, action ir.Action) State {
	var s State
	if state != nil {
		s = *state
	}

	switch action.Type {
	case ActionIncrement:
		s.Count += intField(action.Payload, "by", 1)
	case ActionDecrement:
		s.Count -= intField(action.Payload, "by", 1)
	case ActionSet:
		s.Count = intField(action.Payload, "value", s.Count)
	case ActionLabel:
		if obj, ok := action.Payload.(ir.Object); ok {
			if text, ok := obj["text"].(ir.String); ok {
				s.Label = string(text)
			}
		}
	}
	return s
}

// Increment returns an inc action. by == 1 carries no payload.
func Increment(by int64) ir.Action {
	if by == 1 {
		return ir.Action{Type: ActionIncrement}
	}
	return ir.Action{Type: ActionIncrement, Payload: ir.NewObject(ir.O("by", ir.Int(by)))}
}

// Decrement returns a dec action. by == 1 carries no payload.
func Decrement(by int64) ir.Action {
	if by == 1 {
		return ir.Action{Type: ActionDecrement}
	}
	return ir.Action{Type: ActionDecrement, Payload: ir.NewObject(ir.O("by", ir.Int(by)))}
}

// Set returns a set action.
func Set(value int64) ir.Action {
	return ir.Action{Type: ActionSet, Payload: ir.NewObject(ir.O("value", ir.Int(value)))}
}

// Label returns a label action.
func Label(text string) ir.Action {
	return ir.Action{Type: ActionLabel, Payload: ir.NewObject(ir.O("text", ir.String(text)))}
}

func intField(payload ir.Value, key string, fallback int64) int64 {
	obj, ok := payload.(ir.Object)
	if !ok {
		return fallback
	}
	n, ok := obj[key].(ir.Int)
	if !ok {
		return fallback
	}
	return int64(n)
}
