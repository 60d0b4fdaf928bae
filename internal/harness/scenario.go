package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/undolog/internal/history"
)

// Scenario is a scripted run of the counter reducer under an action
// history, with per-step expectations and final assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the history configuration the engine is built with.
	Config history.Config `yaml:"config,omitempty"`

	// Steps are executed in order against a fresh store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step operations.
const (
	OpDispatch = "dispatch"
	OpUndo     = "undo"
	OpRedo     = "redo"
	OpReset    = "reset"
	OpHydrate  = "hydrate"
	OpTracking = "tracking"
)

// Step is one dispatched action.
type Step struct {
	// Op selects the action: dispatch, undo, redo, reset, hydrate, tracking.
	Op string `yaml:"op"`

	// Action is the action type for dispatch.
	Action string `yaml:"action,omitempty"`

	// Payload is the action payload for dispatch.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Hydrate is the stored history for hydrate.
	Hydrate *HydrateSpec `yaml:"hydrate,omitempty"`

	// Enabled is the flag for tracking. Defaults to true.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Expect is checked against the state after this step.
	Expect *StateExpect `yaml:"expect,omitempty"`
}

// HydrateSpec is an exported history written in scenario form.
type HydrateSpec struct {
	Actions  []HydrateEntry `yaml:"actions"`
	Tracking *bool          `yaml:"tracking,omitempty"`
}

// HydrateEntry is one stored history entry.
type HydrateEntry struct {
	Action  string         `yaml:"action"`
	Payload map[string]any `yaml:"payload,omitempty"`
	Skipped bool           `yaml:"skipped,omitempty"`
}

// StateExpect lists expected values. Nil fields are not checked.
type StateExpect struct {
	Count    *int64  `yaml:"count,omitempty"`
	Label    *string `yaml:"label,omitempty"`
	CanUndo  *bool   `yaml:"can_undo,omitempty"`
	CanRedo  *bool   `yaml:"can_redo,omitempty"`
	Actions  *int    `yaml:"actions,omitempty"`
	Skipped  *int    `yaml:"skipped,omitempty"`
	Tracking *bool   `yaml:"tracking,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": action type was dispatched
	// - "trace_order": action types were dispatched in this order
	// - "trace_count": action type was dispatched exactly Count times
	// - "final_state": final state matches Expect
	Type string `yaml:"type"`

	// Action is the action type (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Expect is the expected final state (final_state).
	Expect *StateExpect `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "step:" vs "steps:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if err := history.Merge(history.DefaultConfig(), s.Config).Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch step.Op {
	case OpDispatch:
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required for dispatch", index)
		}
	case OpHydrate:
		if step.Hydrate == nil {
			return fmt.Errorf("steps[%d]: hydrate is required for hydrate", index)
		}
		for j, entry := range step.Hydrate.Actions {
			if entry.Action == "" {
				return fmt.Errorf("steps[%d].hydrate.actions[%d]: action is required", index, j)
			}
		}
	case OpUndo, OpRedo, OpReset, OpTracking:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	if step.Op != OpDispatch && (step.Action != "" || step.Payload != nil) {
		return fmt.Errorf("steps[%d]: action and payload are only valid for dispatch", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
