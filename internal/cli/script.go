package cli

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/ir"
)

// Script is a list of steps applied to a document by the run command.
type Script struct {
	Steps []ScriptStep `yaml:"steps"`
}

// ScriptStep is one dispatched action.
//
//	op: dispatch | undo | redo | reset | tracking
type ScriptStep struct {
	Op      string         `yaml:"op"`
	Action  string         `yaml:"action,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`
	Enabled *bool          `yaml:"enabled,omitempty"`
}

// LoadScript reads a script file, rejecting unknown fields.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var script Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	return &script, nil
}

// Actions converts the steps into the actions to dispatch, using the
// reserved action names configured on h.
func (s *Script) Actions(h *history.Engine[counter.State]) ([]ir.Action, error) {
	actions := make([]ir.Action, 0, len(s.Steps))
	for i, step := range s.Steps {
		var action ir.Action
		switch step.Op {
		case "dispatch":
			if step.Action == "" {
				return nil, fmt.Errorf("steps[%d]: action is required for dispatch", i)
			}
			action = ir.Action{Type: step.Action}
			if step.Payload != nil {
				payload, err := ir.FromGo(step.Payload)
				if err != nil {
					return nil, fmt.Errorf("steps[%d]: payload: %w", i, err)
				}
				action.Payload = payload
			}
		case "undo":
			action = h.UndoAction()
		case "redo":
			action = h.RedoAction()
		case "reset":
			action = h.ResetAction()
		case "tracking":
			action = h.TrackingAction(step.Enabled == nil || *step.Enabled)
		case "":
			return nil, fmt.Errorf("steps[%d]: op is required", i)
		default:
			return nil, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		actions = append(actions, action)
	}
	return actions, nil
}
