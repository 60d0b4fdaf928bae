package history

import (
	"log/slog"
	"slices"

	"github.com/roach88/undolog/internal/ir"
)

// Reducer is a base state-transition function. A nil state means "no state
// yet": the reducer must return its initial value. Reducers must be
// deterministic and must not mutate *state.
type Reducer[S any] func(state *S, action ir.Action) S

// History is the action log for one wrapped state.
type History[S any] struct {
	// Tracking is false while new actions update present without being recorded.
	Tracking bool
	// Started is set once the track-after boundary has been crossed, or the
	// log was hydrated. It is always set when no boundary is configured.
	Started bool
	// Actions is append-only apart from skip flags and redo-stack truncation.
	Actions []ir.HistoryAction
	// Snapshot is the replay baseline: present when tracking began, or at the
	// last reset or hydrate.
	Snapshot S
}

// State is what an Engine-wrapped reducer stores.
// CanUndo and CanRedo are recomputed from History.Actions on every
// transition and never set independently.
type State[S any] struct {
	Present S
	CanUndo bool
	CanRedo bool
	History History[S]
}

// Export returns the serializable projection of the history.
func (s State[S]) Export() ir.ExportedHistory {
	return Export(s.History)
}

// Export returns the serializable projection of h, without the snapshot.
func Export[S any](h History[S]) ir.ExportedHistory {
	actions := make([]ir.HistoryAction, len(h.Actions))
	copy(actions, h.Actions)
	return ir.ExportedHistory{Actions: actions, Tracking: h.Tracking}
}

// Replay folds base over snapshot using the non-skipped actions in order.
func Replay[S any](base Reducer[S], snapshot S, actions []ir.HistoryAction) S {
	present := snapshot
	for _, entry := range actions {
		if entry.Skipped {
			continue
		}
		present = base(&present, entry.Action)
	}
	return present
}

// Engine wraps a base reducer with action history.
// An Engine is immutable and safe for concurrent use; the states it
// returns are never modified after being returned.
type Engine[S any] struct {
	base    Reducer[S]
	rules   Resolved
	equal   func(a, b any) bool
	logger  *slog.Logger
	initial State[S]
}

// New builds an Engine around base. The base reducer is invoked once here,
// with a nil state and the init action, to obtain the initial present.
func New[S any](base Reducer[S], opts ...Option) (*Engine[S], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	rules, err := Resolve(o.cfg)
	if err != nil {
		return nil, err
	}

	e := &Engine[S]{
		base:   base,
		rules:  rules,
		equal:  o.equal,
		logger: o.logger,
	}

	present := base(nil, ir.Action{Type: rules.cfg.ActionTypes.Init})
	e.initial = State[S]{
		Present: present,
		History: History[S]{
			Tracking: rules.cfg.TrackAfterActionType == "",
			Started:  rules.cfg.TrackAfterActionType == "",
			Snapshot: present,
		},
	}
	return e, nil
}

// Rules returns the resolved configuration and predicates.
func (e *Engine[S]) Rules() Resolved {
	return e.rules
}

// Initial returns the state the engine starts from.
func (e *Engine[S]) Initial() State[S] {
	return e.initial
}

// Reduce computes the state that follows state when action is dispatched.
func (e *Engine[S]) Reduce(state State[S], action ir.Action) State[S] {
	cmd := e.rules.classify(action)

	var next State[S]
	switch c := cmd.(type) {
	case handleCmd:
		next = e.handle(state, c.action)
	case undoCmd:
		next = e.undo(state)
	case redoCmd:
		next = e.redo(state)
	case resetCmd:
		next = e.reset(state)
	case hydrateCmd:
		next = e.hydrate(state, c.history)
	case trackingCmd:
		next = e.setTracking(state, c.enabled)
	case trackAfterCmd:
		if state.History.Started {
			next = e.handle(state, c.action)
		} else {
			next = e.trackAfter(state, c.action)
		}
	default:
		panic("history: unhandled command")
	}

	e.logger.Debug("history transition",
		"action", action.Type,
		"command", commandName(cmd),
		"actions", len(next.History.Actions),
		"tracking", next.History.Tracking,
		"started", next.History.Started,
		"can_undo", next.CanUndo,
		"can_redo", next.CanRedo,
	)
	return next
}

// derive builds a State and recomputes the cached predicates.
func (e *Engine[S]) derive(present S, h History[S]) State[S] {
	return State[S]{
		Present: present,
		CanUndo: e.rules.CanUndo(h.Actions),
		CanRedo: CanRedo(h.Actions),
		History: h,
	}
}

// handle applies an ordinary action and records it when it is tracked,
// tracking is on, and it actually changed present. Untracked and no-op
// actions still update present; only bookkeeping is skipped.
func (e *Engine[S]) handle(state State[S], action ir.Action) State[S] {
	present := e.base(&state.Present, action)

	h := state.History
	if !h.Tracking || !e.rules.IsTracked(action) || e.equal(present, state.Present) {
		next := state
		next.Present = present
		return next
	}

	var actions []ir.HistoryAction
	if e.rules.IsUndoable(action) {
		// a new undoable action clears the redo stack
		actions = withoutSkipped(h.Actions)
	} else {
		actions = slices.Clone(h.Actions)
	}
	actions = append(actions, ir.HistoryAction{Action: action})

	return e.derive(present, History[S]{
		Tracking: h.Tracking,
		Started:  h.Started,
		Actions:  actions,
		Snapshot: h.Snapshot,
	})
}

// undo skips the newest applied undoable entry and replays.
func (e *Engine[S]) undo(state State[S]) State[S] {
	if !state.CanUndo {
		return state
	}

	h := state.History
	idx := -1
	for i := len(h.Actions) - 1; i >= 0; i-- {
		if !h.Actions[i].Skipped && e.rules.IsUndoable(h.Actions[i].Action) {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.logger.Warn("history: can_undo set without an undoable entry", "actions", len(h.Actions))
		return state
	}

	actions := slices.Clone(h.Actions)
	actions[idx].Skipped = true

	return e.derive(Replay(e.base, h.Snapshot, actions), History[S]{
		Tracking: h.Tracking,
		Started:  h.Started,
		Actions:  actions,
		Snapshot: h.Snapshot,
	})
}

// redo re-applies the oldest skipped entry.
func (e *Engine[S]) redo(state State[S]) State[S] {
	if !state.CanRedo {
		return state
	}

	h := state.History
	idx := slices.IndexFunc(h.Actions, func(entry ir.HistoryAction) bool {
		return entry.Skipped
	})
	if idx < 0 {
		return state
	}

	actions := slices.Clone(h.Actions)
	actions[idx].Skipped = false

	var present S
	if idx == len(actions)-1 {
		// Nothing after idx is skipped or unapplied, so one step from the
		// current present equals a full replay.
		present = e.base(&state.Present, actions[idx].Action)
	} else {
		present = Replay(e.base, h.Snapshot, actions)
	}

	return e.derive(present, History[S]{
		Tracking: h.Tracking,
		Started:  h.Started,
		Actions:  actions,
		Snapshot: h.Snapshot,
	})
}

// reset clears the action log. With a track-after boundary already crossed
// it rewinds to that boundary; otherwise it returns to the initial state.
// The tracking flag is kept either way.
func (e *Engine[S]) reset(state State[S]) State[S] {
	if e.rules.cfg.TrackAfterActionType != "" && state.History.Started {
		snapshot := state.History.Snapshot
		return e.derive(snapshot, History[S]{
			Tracking: state.History.Tracking,
			Started:  true,
			Snapshot: snapshot,
		})
	}

	next := e.initial
	next.History.Tracking = state.History.Tracking
	return next
}

// hydrate installs a stored action log on top of the current present.
// A hydrated log counts as having crossed the track-after boundary, so a
// later boundary action is recorded instead of discarding the log.
func (e *Engine[S]) hydrate(state State[S], stored ir.ExportedHistory) State[S] {
	snapshot := state.Present
	actions := slices.Clone(stored.Actions)

	return e.derive(Replay(e.base, snapshot, actions), History[S]{
		Tracking: stored.Tracking,
		Started:  true,
		Actions:  actions,
		Snapshot: snapshot,
	})
}

// trackAfter applies the boundary action, then starts recording from the
// resulting present. Anything recorded before the boundary is discarded.
// It fires once; later boundary actions go through handle.
func (e *Engine[S]) trackAfter(state State[S], action ir.Action) State[S] {
	applied := e.handle(state, action)
	return e.derive(applied.Present, History[S]{
		Tracking: true,
		Started:  true,
		Snapshot: applied.Present,
	})
}

// setTracking changes only whether future actions are recorded.
func (e *Engine[S]) setTracking(state State[S], enabled bool) State[S] {
	next := state
	next.History.Tracking = enabled
	return next
}

func withoutSkipped(actions []ir.HistoryAction) []ir.HistoryAction {
	out := make([]ir.HistoryAction, 0, len(actions)+1)
	for _, entry := range actions {
		if !entry.Skipped {
			out = append(out, entry)
		}
	}
	return out
}
