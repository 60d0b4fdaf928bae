package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/engine"
	"github.com/roach88/undolog/internal/equal"
	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/ir"
)

// Run executes a scenario against a fresh store and returns the result.
//
// Execution flow:
// 1. Build a history engine from the scenario config
// 2. Dispatch each step, recording a trace event
// 3. Check replay determinism and the step's expectations
// 4. Evaluate final assertions
//
// Run returns an error only when the scenario cannot be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	h, err := history.New[counter.State](counter.Reduce,
		history.WithConfig(scenario.Config),
		history.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build history engine: %w", err)
	}
	st := engine.New(h.Reduce, h.Initial())

	result := NewResult()
	drift := false
	for i, step := range scenario.Steps {
		action, err := buildAction(h, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}

		prev := st.State()
		if err := st.Dispatch(action); err != nil {
			return nil, fmt.Errorf("steps[%d]: dispatch: %w", i, err)
		}
		cur := st.State()
		result.AddTrace(st.Seq(), step.Op, action.Type, cur)

		drift = checkReplay(i, step, prev, cur, drift, result)

		if step.Expect != nil {
			for _, msg := range compareState(*step.Expect, cur) {
				result.AddError(fmt.Sprintf("steps[%d] (%s): %s", i, step.Op, msg))
			}
		}
	}
	result.Final = st.State()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

// checkReplay verifies that present equals the replay of the recorded
// actions. An ordinary dispatch that changes present without being recorded
// (untracked, or tracking off) legitimately breaks the equality until the
// next replaying transition; that drift is tolerated, any other divergence
// is an error. It returns the updated drift flag.
func checkReplay(index int, step Step, prev, cur history.State[counter.State], drift bool, result *Result) bool {
	replayed := history.Replay[counter.State](counter.Reduce, cur.History.Snapshot, cur.History.Actions)
	if replayed == cur.Present {
		return false
	}

	unrecorded := step.Op == OpDispatch &&
		prev.Present != cur.Present &&
		equal.Deep(prev.History.Actions, cur.History.Actions)
	if drift || unrecorded {
		return true
	}

	result.AddError(fmt.Sprintf("steps[%d] (%s): replay diverged: present count %d, replay count %d",
		index, step.Op, cur.Present.Count, replayed.Count))
	return false
}

// buildAction converts a step into the action to dispatch.
func buildAction(h *history.Engine[counter.State], step Step) (ir.Action, error) {
	switch step.Op {
	case OpDispatch:
		return newAction(step.Action, step.Payload)
	case OpUndo:
		return h.UndoAction(), nil
	case OpRedo:
		return h.RedoAction(), nil
	case OpReset:
		return h.ResetAction(), nil
	case OpTracking:
		return h.TrackingAction(step.Enabled == nil || *step.Enabled), nil
	case OpHydrate:
		if step.Hydrate == nil {
			return ir.Action{}, fmt.Errorf("hydrate is required for hydrate")
		}
		stored, err := step.Hydrate.exported()
		if err != nil {
			return ir.Action{}, err
		}
		return h.HydrateAction(stored), nil
	default:
		return ir.Action{}, fmt.Errorf("unknown op %q", step.Op)
	}
}

func newAction(actionType string, payload map[string]any) (ir.Action, error) {
	if payload == nil {
		return ir.Action{Type: actionType}, nil
	}
	v, err := ir.FromGo(payload)
	if err != nil {
		return ir.Action{}, fmt.Errorf("action %s payload: %w", actionType, err)
	}
	return ir.Action{Type: actionType, Payload: v}, nil
}

func (s *HydrateSpec) exported() (ir.ExportedHistory, error) {
	out := ir.ExportedHistory{
		Actions:  make([]ir.HistoryAction, 0, len(s.Actions)),
		Tracking: s.Tracking == nil || *s.Tracking,
	}
	for i, entry := range s.Actions {
		action, err := newAction(entry.Action, entry.Payload)
		if err != nil {
			return ir.ExportedHistory{}, fmt.Errorf("hydrate.actions[%d]: %w", i, err)
		}
		out.Actions = append(out.Actions, ir.HistoryAction{Action: action, Skipped: entry.Skipped})
	}
	return out, nil
}
