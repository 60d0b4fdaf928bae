package history

import "github.com/roach88/undolog/internal/ir"

// UndoAction returns this engine's undo action.
func (e *Engine[S]) UndoAction() ir.Action {
	return ir.Action{Type: e.rules.cfg.ActionTypes.Undo}
}

// RedoAction returns this engine's redo action.
func (e *Engine[S]) RedoAction() ir.Action {
	return ir.Action{Type: e.rules.cfg.ActionTypes.Redo}
}

// ResetAction returns this engine's reset action.
func (e *Engine[S]) ResetAction() ir.Action {
	return ir.Action{Type: e.rules.cfg.ActionTypes.Reset}
}

// HydrateAction returns an action that installs stored on top of the
// current present.
func (e *Engine[S]) HydrateAction(stored ir.ExportedHistory) ir.Action {
	return ir.Action{Type: e.rules.cfg.ActionTypes.Hydrate, Payload: stored.Value()}
}

// TrackingAction returns an action that turns recording on or off.
func (e *Engine[S]) TrackingAction(enabled bool) ir.Action {
	return ir.Action{Type: e.rules.cfg.ActionTypes.Tracking, Payload: ir.Bool(enabled)}
}
