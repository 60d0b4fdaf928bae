package history

import "github.com/roach88/undolog/internal/ir"

// IsTracked reports whether action may be recorded.
func (r Resolved) IsTracked(action ir.Action) bool {
	if len(r.tracked) == 0 {
		return true
	}
	_, ok := r.tracked[action.Type]
	return ok
}

// IsUndoable reports whether action may be undone and redone.
func (r Resolved) IsUndoable(action ir.Action) bool {
	if len(r.undoable) == 0 {
		return true
	}
	_, ok := r.undoable[action.Type]
	return ok
}

// CanUndo reports whether any applied entry can be undone.
func (r Resolved) CanUndo(actions []ir.HistoryAction) bool {
	for _, entry := range actions {
		if !entry.Skipped && r.IsUndoable(entry.Action) {
			return true
		}
	}
	return false
}

// CanRedo reports whether any entry is currently undone.
func CanRedo(actions []ir.HistoryAction) bool {
	for _, entry := range actions {
		if entry.Skipped {
			return true
		}
	}
	return false
}
