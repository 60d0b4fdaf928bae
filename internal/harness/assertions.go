package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/history"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s -> count=%d actions=%d skipped=%d\n",
			event.Seq, event.Op, event.Action, event.Count, event.Actions, event.Skipped)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks that the action type was dispatched.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Action == a.Action {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("action %s", a.Action),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the action types first appear in the given
// order. Intervening actions are allowed.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if _, seen := positions[event.Action]; !seen {
			positions[event.Action] = i + 1 // 1-indexed for readability
		}
	}

	for _, action := range a.Actions {
		if positions[action] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all actions present: %v", a.Actions),
				Actual:   fmt.Sprintf("missing action: %s", action),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Actions); i++ {
		prev, curr := a.Actions[i-1], a.Actions[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", a.Actions),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the action type was dispatched exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Action == a.Action {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s dispatched %d times", a.Action, a.Count),
			Actual:   fmt.Sprintf("dispatched %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState compares the final state with the expectation.
func assertFinalState(result *Result, a Assertion) error {
	mismatches := compareState(*a.Expect, result.Final)
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: "final state to match",
		Actual:   strings.Join(mismatches, "; "),
		Trace:    result.Trace,
	}
}

// compareState returns one message per mismatched field.
func compareState(expect StateExpect, state history.State[counter.State]) []string {
	var out []string
	check := func(field string, want, got any) {
		if want != got {
			out = append(out, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
		}
	}

	if expect.Count != nil {
		check("count", *expect.Count, state.Present.Count)
	}
	if expect.Label != nil {
		check("label", *expect.Label, state.Present.Label)
	}
	if expect.CanUndo != nil {
		check("can_undo", *expect.CanUndo, state.CanUndo)
	}
	if expect.CanRedo != nil {
		check("can_redo", *expect.CanRedo, state.CanRedo)
	}
	if expect.Actions != nil {
		check("actions", *expect.Actions, len(state.History.Actions))
	}
	if expect.Skipped != nil {
		check("skipped", *expect.Skipped, countSkipped(state))
	}
	if expect.Tracking != nil {
		check("tracking", *expect.Tracking, state.History.Tracking)
	}
	return out
}
