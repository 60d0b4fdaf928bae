// Package history adds undo/redo to a deterministic reducer by recording
// actions instead of state snapshots.
//
// An Engine wraps a base reducer. Every transition is a pure function of
// (state, action, configuration) that returns a freshly built State. The
// recorded actions plus the replay snapshot are enough to rebuild the
// present at any time:
//
//	present == fold(base, snapshot, non-skipped actions in order)
//
// Undo marks the newest undoable entry skipped and replays. Redo unmarks the
// oldest skipped entry. Entries are never reordered, so non-undoable actions
// recorded after an undone one keep their place in the replay.
//
// Reserved action types (undo, redo, reset, hydrate, tracking, and an optional
// track-after type) are resolved once per Engine from Config; nothing is
// shared between engines.
//
// Known quirk: an untracked action that changes state while tracking is on
// leaves no history entry. Its effect survives in present until the next
// replay (undo, redo with later entries, hydrate), which rebuilds from the
// snapshot and silently drops it.
package history
