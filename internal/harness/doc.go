// Package harness runs scripted undo/redo scenarios against the counter
// reducer and checks them.
//
// A scenario is YAML: a history config, a list of steps (dispatch, undo,
// redo, reset, hydrate, tracking), optional per-step expectations, and
// final assertions over the trace. Every step records a trace event, and
// after every step the harness rebuilds present by replaying the recorded
// actions from the snapshot and compares it with the live present.
//
// Traces serialize to canonical JSON, so they can be compared byte for byte
// against golden files with RunWithGolden.
package harness
