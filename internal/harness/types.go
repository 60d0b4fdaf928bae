package harness

import (
	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/history"
)

// TraceEvent is the observable state after one step.
type TraceEvent struct {
	Seq      int64  `json:"seq"`
	Op       string `json:"op"`
	Action   string `json:"action"`
	Count    int64  `json:"count"`
	Label    string `json:"label,omitempty"`
	CanUndo  bool   `json:"can_undo"`
	CanRedo  bool   `json:"can_redo"`
	Actions  int    `json:"actions"`
	Skipped  int    `json:"skipped"`
	Tracking bool   `json:"tracking"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the state after the last step.
	Final history.State[counter.State] `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records the state reached by a step.
func (r *Result) AddTrace(seq int64, op, actionType string, state history.State[counter.State]) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:      seq,
		Op:       op,
		Action:   actionType,
		Count:    state.Present.Count,
		Label:    state.Present.Label,
		CanUndo:  state.CanUndo,
		CanRedo:  state.CanRedo,
		Actions:  len(state.History.Actions),
		Skipped:  countSkipped(state),
		Tracking: state.History.Tracking,
	})
}

func countSkipped(state history.State[counter.State]) int {
	n := 0
	for _, entry := range state.History.Actions {
		if entry.Skipped {
			n++
		}
	}
	return n
}
