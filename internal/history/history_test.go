package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/ir"
)

func newCounterEngine(t *testing.T, opts ...Option) *Engine[counter.State] {
	t.Helper()
	e, err := New[counter.State](counter.Reduce, opts...)
	require.NoError(t, err)
	return e
}

func dispatchAll(e *Engine[counter.State], s State[counter.State], actions ...ir.Action) State[counter.State] {
	for _, a := range actions {
		s = e.Reduce(s, a)
	}
	return s
}

func assertReplayed(t *testing.T, s State[counter.State]) {
	t.Helper()
	replayed := Replay[counter.State](counter.Reduce, s.History.Snapshot, s.History.Actions)
	assert.Equal(t, replayed, s.Present, "present must equal replay of non-skipped actions")
}

func skipFlags(s State[counter.State]) []bool {
	flags := make([]bool, len(s.History.Actions))
	for i, entry := range s.History.Actions {
		flags[i] = entry.Skipped
	}
	return flags
}

func TestInitialState(t *testing.T) {
	e := newCounterEngine(t)
	s := e.Initial()

	assert.Equal(t, counter.State{}, s.Present)
	assert.Equal(t, counter.State{}, s.History.Snapshot)
	assert.True(t, s.History.Tracking)
	assert.Empty(t, s.History.Actions)
	assert.False(t, s.CanUndo)
	assert.False(t, s.CanRedo)
}

func TestInitialStateWithTrackAfter(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter("loaded"))
	assert.False(t, e.Initial().History.Tracking)
	assert.False(t, e.Initial().History.Started)
}

func TestNewCallsBaseWithInitAction(t *testing.T) {
	var seen []ir.Action
	base := func(state *counter.State, action ir.Action) counter.State {
		seen = append(seen, action)
		assert.Nil(t, state)
		return counter.State{Count: 7}
	}

	e, err := New[counter.State](base)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, DefaultInitActionType, seen[0].Type)
	assert.Equal(t, int64(7), e.Initial().Present.Count)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New[counter.State](counter.Reduce, WithActionTypes(ActionTypes{Undo: "redo"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve history config")
}

func TestUndoRedoThreeIncrements(t *testing.T) {
	e := newCounterEngine(t)
	inc := counter.Increment(1)

	s := dispatchAll(e, e.Initial(), inc, inc, inc)
	require.Equal(t, int64(3), s.Present.Count)
	assert.True(t, s.CanUndo)
	assert.False(t, s.CanRedo)

	for _, want := range []int64{2, 1, 0} {
		s = e.Reduce(s, e.UndoAction())
		assert.Equal(t, want, s.Present.Count)
		assertReplayed(t, s)
	}
	assert.False(t, s.CanUndo)
	assert.True(t, s.CanRedo)

	again := e.Reduce(s, e.UndoAction())
	assert.Equal(t, s, again)

	for _, want := range []int64{1, 2, 3} {
		s = e.Reduce(s, e.RedoAction())
		assert.Equal(t, want, s.Present.Count)
		assertReplayed(t, s)
	}
	assert.False(t, s.CanRedo)
	assert.True(t, s.CanUndo)

	again = e.Reduce(s, e.RedoAction())
	assert.Equal(t, s, again)
}

func TestUndoKeepsEntriesInPlace(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(2), e.UndoAction())
	require.Len(t, s.History.Actions, 2)
	assert.Equal(t, []bool{false, true}, skipFlags(s))
	assert.Equal(t, int64(1), s.Present.Count)
}

func TestUntrackedActionsAreNotRecorded(t *testing.T) {
	e := newCounterEngine(t, WithTrackedActionTypes(counter.ActionIncrement))

	s := dispatchAll(e, e.Initial(), counter.Decrement(1), counter.Increment(1))
	assert.Equal(t, int64(0), s.Present.Count)
	require.Len(t, s.History.Actions, 1)
	assert.Equal(t, counter.ActionIncrement, s.History.Actions[0].Action.Type)

	// Undo replays from the snapshot with only recorded actions, so the
	// untracked decrement does not survive the replay.
	s = e.Reduce(s, e.UndoAction())
	assert.Equal(t, int64(0), s.Present.Count)
	assert.False(t, s.CanUndo)
	assert.True(t, s.CanRedo)
}

func TestUntrackedActionKeepsPredicates(t *testing.T) {
	e := newCounterEngine(t, WithTrackedActionTypes(counter.ActionIncrement))

	s := dispatchAll(e, e.Initial(), counter.Increment(1), e.UndoAction())
	before := s

	s = e.Reduce(s, counter.Decrement(5))
	assert.Equal(t, int64(-5), s.Present.Count)
	assert.Equal(t, before.History, s.History)
	assert.Equal(t, before.CanUndo, s.CanUndo)
	assert.Equal(t, before.CanRedo, s.CanRedo)
}

func TestNoOpActionsAreNotRecorded(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"defaults", nil},
		{"tracked filter", []Option{WithTrackedActionTypes(counter.ActionSet, counter.ActionIncrement)}},
		{"undoable filter", []Option{WithUndoableActionTypes(counter.ActionSet)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newCounterEngine(t, tt.opts...)

			s := dispatchAll(e, e.Initial(), counter.Set(0), counter.Increment(0), ir.Action{Type: "unknown"})
			assert.Empty(t, s.History.Actions)
			assert.False(t, s.CanUndo)
		})
	}
}

func TestCustomEqualRecordsNoOps(t *testing.T) {
	e := newCounterEngine(t, WithEqual(func(a, b any) bool { return false }))

	s := e.Reduce(e.Initial(), counter.Set(0))
	assert.Len(t, s.History.Actions, 1)
}

func TestNewUndoableActionClearsRedoStack(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(1), e.UndoAction())
	require.True(t, s.CanRedo)

	s = e.Reduce(s, counter.Increment(5))
	assert.False(t, s.CanRedo)
	assert.Equal(t, []bool{false, false}, skipFlags(s))
	assert.Equal(t, int64(6), s.Present.Count)
}

func TestNonUndoableActionKeepsRedoStack(t *testing.T) {
	e := newCounterEngine(t, WithUndoableActionTypes(counter.ActionIncrement))

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(1), e.UndoAction())
	require.Equal(t, int64(1), s.Present.Count)
	require.Equal(t, []bool{false, true}, skipFlags(s))

	s = e.Reduce(s, counter.Set(5))
	assert.True(t, s.CanRedo)
	assert.Equal(t, []bool{false, true, false}, skipFlags(s))
	assert.Equal(t, int64(5), s.Present.Count)

	// undoable action now clears the skipped entry
	cleared := e.Reduce(s, counter.Increment(1))
	assert.False(t, cleared.CanRedo)
	assert.Equal(t, []bool{false, false, false}, skipFlags(cleared))
	assert.Equal(t, int64(6), cleared.Present.Count)
	assertReplayed(t, cleared)
}

func TestUndoSkipsNonUndoableEntries(t *testing.T) {
	e := newCounterEngine(t, WithUndoableActionTypes(counter.ActionIncrement))

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(1), e.UndoAction(), counter.Set(5))
	require.Equal(t, []bool{false, true, false}, skipFlags(s))

	s = e.Reduce(s, e.UndoAction())
	assert.Equal(t, []bool{true, true, false}, skipFlags(s))
	assert.Equal(t, int64(5), s.Present.Count)
	assert.False(t, s.CanUndo, "only the non-undoable set remains applied")
	assert.True(t, s.CanRedo)
	assertReplayed(t, s)

	// redo replays in original order: inc then the later set
	s = e.Reduce(s, e.RedoAction())
	assert.Equal(t, []bool{false, true, false}, skipFlags(s))
	assert.Equal(t, int64(5), s.Present.Count)
	assertReplayed(t, s)
}

func TestRedoPicksOldestSkippedEntry(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(),
		counter.Increment(1), counter.Increment(10), counter.Increment(100),
		e.UndoAction(), e.UndoAction(),
	)
	require.Equal(t, []bool{false, true, true}, skipFlags(s))

	s = e.Reduce(s, e.RedoAction())
	assert.Equal(t, []bool{false, false, true}, skipFlags(s))
	assert.Equal(t, int64(11), s.Present.Count)
}

func TestRedoSingleStepMatchesReplay(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Set(4), counter.Increment(3), e.UndoAction())
	s = e.Reduce(s, e.RedoAction())

	assert.Equal(t, int64(7), s.Present.Count)
	assertReplayed(t, s)
}

func TestHydrateScenario(t *testing.T) {
	e := newCounterEngine(t)

	stored := ir.ExportedHistory{
		Actions: []ir.HistoryAction{
			{Action: counter.Increment(1)},
			{Action: counter.Increment(1)},
			{Action: counter.Increment(10), Skipped: true},
		},
		Tracking: true,
	}

	hydrated := e.Reduce(e.Initial(), e.HydrateAction(stored))
	assert.Equal(t, int64(2), hydrated.Present.Count)
	assert.Equal(t, int64(0), hydrated.History.Snapshot.Count)
	assert.True(t, hydrated.CanRedo)
	assert.True(t, hydrated.CanUndo)

	t.Run("redo applies the skipped entry", func(t *testing.T) {
		s := e.Reduce(hydrated, e.RedoAction())
		assert.Equal(t, int64(12), s.Present.Count)
		assert.False(t, s.CanRedo)
		assertReplayed(t, s)
	})

	t.Run("undo twice returns to the snapshot", func(t *testing.T) {
		s := dispatchAll(e, hydrated, e.UndoAction(), e.UndoAction())
		assert.Equal(t, int64(0), s.Present.Count)
		assert.False(t, s.CanUndo)
		assert.True(t, s.CanRedo)
	})
}

func TestHydrateBuildsOnCurrentPresent(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Set(100))
	s = e.Reduce(s, e.HydrateAction(ir.ExportedHistory{
		Actions:  []ir.HistoryAction{{Action: counter.Increment(5)}},
		Tracking: false,
	}))

	assert.Equal(t, int64(100), s.History.Snapshot.Count)
	assert.Equal(t, int64(105), s.Present.Count)
	assert.False(t, s.History.Tracking)
	require.Len(t, s.History.Actions, 1)
}

func TestHydrateDefaultsMissingPayload(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), e.TrackingAction(false))
	s = e.Reduce(s, ir.Action{Type: DefaultHydrateActionType})

	assert.Empty(t, s.History.Actions)
	assert.True(t, s.History.Tracking)
	assert.Equal(t, int64(1), s.History.Snapshot.Count)
	assert.Equal(t, int64(1), s.Present.Count)
	assert.False(t, s.CanUndo)
}

func TestResetWithoutTrackAfterReturnsToInitial(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(1), e.ResetAction())
	assert.Equal(t, e.Initial(), s)
}

func TestResetPreservesTrackingFlag(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), e.TrackingAction(false), e.ResetAction())
	assert.Equal(t, int64(0), s.Present.Count)
	assert.Empty(t, s.History.Actions)
	assert.False(t, s.History.Tracking)
}

func TestResetRewindsToTrackAfterBoundary(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter("loaded"))

	s := dispatchAll(e, e.Initial(),
		counter.Increment(1),
		ir.Action{Type: "loaded"},
		counter.Increment(1), counter.Increment(1),
	)
	require.Equal(t, int64(3), s.Present.Count)

	s = e.Reduce(s, e.ResetAction())
	assert.Equal(t, int64(1), s.Present.Count)
	assert.Equal(t, int64(1), s.History.Snapshot.Count)
	assert.Empty(t, s.History.Actions)
	assert.True(t, s.History.Tracking)
	assert.False(t, s.CanUndo)
	assert.False(t, s.CanRedo)
}

func TestResetBeforeTrackAfterBoundary(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter("loaded"))

	s := dispatchAll(e, e.Initial(), counter.Increment(1), e.ResetAction())
	assert.Equal(t, e.Initial(), s)
}

func TestResetRewindsToBoundaryWhileTrackingPaused(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter("loaded"))

	s := dispatchAll(e, e.Initial(),
		counter.Increment(5),
		ir.Action{Type: "loaded"},
		counter.Increment(1),
		e.TrackingAction(false),
		e.ResetAction(),
	)
	assert.Equal(t, int64(5), s.Present.Count)
	assert.Equal(t, int64(5), s.History.Snapshot.Count)
	assert.Empty(t, s.History.Actions)
	assert.False(t, s.History.Tracking)
	assert.True(t, s.History.Started)
}

func TestTrackAfterStartsRecording(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter(counter.ActionSet))

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(1))
	assert.Empty(t, s.History.Actions)
	assert.False(t, s.CanUndo)
	assert.Equal(t, int64(2), s.Present.Count)

	s = e.Reduce(s, counter.Set(10))
	assert.True(t, s.History.Tracking)
	assert.Equal(t, int64(10), s.History.Snapshot.Count)
	assert.Empty(t, s.History.Actions)

	s = dispatchAll(e, s, counter.Increment(1), e.UndoAction(), e.UndoAction())
	assert.Equal(t, int64(10), s.Present.Count, "nothing before the boundary is undoable")
	assert.False(t, s.CanUndo)
}

func TestTrackAfterTypeIsOrdinaryOnceTracking(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter(counter.ActionSet))

	s := dispatchAll(e, e.Initial(), counter.Set(1), counter.Set(2))
	require.Len(t, s.History.Actions, 1)
	assert.Equal(t, int64(1), s.History.Snapshot.Count)

	s = e.Reduce(s, e.UndoAction())
	assert.Equal(t, int64(1), s.Present.Count)
}

func TestTrackAfterFiresOnce(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter("loaded"))

	s := dispatchAll(e, e.Initial(),
		counter.Increment(1),
		ir.Action{Type: "loaded"},
		counter.Increment(1), counter.Increment(1),
		e.TrackingAction(false),
		ir.Action{Type: "loaded"},
		e.TrackingAction(true),
	)
	assert.Equal(t, int64(3), s.Present.Count)
	assert.Equal(t, int64(1), s.History.Snapshot.Count)
	assert.Len(t, s.History.Actions, 2)
	assert.True(t, s.CanUndo)

	s = dispatchAll(e, s, e.UndoAction(), e.UndoAction())
	assert.Equal(t, int64(1), s.Present.Count)
}

func TestHydrateCrossesTrackAfterBoundary(t *testing.T) {
	e := newCounterEngine(t, WithTrackAfter("loaded"))

	s := e.Reduce(e.Initial(), e.HydrateAction(ir.ExportedHistory{
		Actions:  []ir.HistoryAction{{Action: counter.Increment(2)}},
		Tracking: true,
	}))
	require.True(t, s.History.Started)

	s = e.Reduce(s, ir.Action{Type: "loaded"})
	assert.Len(t, s.History.Actions, 1)
	assert.Equal(t, int64(2), s.Present.Count)
	assert.True(t, s.CanUndo)
}

func TestSetTrackingOnlyTogglesFlag(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1))
	before := s

	s = e.Reduce(s, e.TrackingAction(false))
	assert.False(t, s.History.Tracking)
	assert.Equal(t, before.Present, s.Present)
	assert.Equal(t, before.History.Actions, s.History.Actions)
	assert.Equal(t, before.CanUndo, s.CanUndo)
	assert.Equal(t, before.CanRedo, s.CanRedo)

	s = e.Reduce(s, counter.Increment(1))
	assert.Equal(t, int64(2), s.Present.Count)
	assert.Len(t, s.History.Actions, 1)

	s = dispatchAll(e, s, e.TrackingAction(true), counter.Increment(1))
	assert.Len(t, s.History.Actions, 2)
}

func TestTrackingPayloadDefaultsToTrue(t *testing.T) {
	e := newCounterEngine(t)

	s := e.Reduce(e.Initial(), e.TrackingAction(false))
	s = e.Reduce(s, ir.Action{Type: DefaultTrackingActionType, Payload: ir.String("yes")})
	assert.True(t, s.History.Tracking)
}

func TestTransitionsDoNotMutatePreviousState(t *testing.T) {
	e := newCounterEngine(t)

	s1 := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(1))
	flags := skipFlags(s1)

	s2 := e.Reduce(s1, e.UndoAction())
	s3 := e.Reduce(s2, e.RedoAction())
	_ = e.Reduce(s2, counter.Increment(3))
	_ = e.Reduce(s1, e.HydrateAction(ir.ExportedHistory{Tracking: true}))

	assert.Equal(t, flags, skipFlags(s1))
	assert.Equal(t, []bool{false, true}, skipFlags(s2))
	assert.Equal(t, []bool{false, false}, skipFlags(s3))
}

func TestUndoRedoInverse(t *testing.T) {
	e := newCounterEngine(t, WithUndoableActionTypes(counter.ActionIncrement, counter.ActionDecrement))

	steps := []ir.Action{
		counter.Increment(1), counter.Set(4), counter.Decrement(2), counter.Increment(7),
		e.UndoAction(), counter.Increment(3), e.UndoAction(), e.UndoAction(),
	}

	s := e.Initial()
	for i, step := range steps {
		s = e.Reduce(s, step)
		if !s.CanUndo {
			continue
		}
		roundTrip := dispatchAll(e, s, e.UndoAction(), e.RedoAction())
		assert.Equal(t, s.Present, roundTrip.Present, "step %d", i)
		assert.Equal(t, skipFlags(s), skipFlags(roundTrip), "step %d", i)
	}
}

func TestReplayDeterminism(t *testing.T) {
	e := newCounterEngine(t, WithUndoableActionTypes(counter.ActionIncrement, counter.ActionSet))

	steps := []ir.Action{
		counter.Increment(1), counter.Increment(2), counter.Decrement(1), e.UndoAction(),
		counter.Set(9), e.UndoAction(), e.UndoAction(), counter.Decrement(4), e.RedoAction(),
		e.RedoAction(), e.RedoAction(), counter.Increment(5), e.UndoAction(), counter.Set(9),
		e.UndoAction(), e.RedoAction(),
	}

	s := e.Initial()
	for _, step := range steps {
		s = e.Reduce(s, step)
		assertReplayed(t, s)
		assert.Equal(t, e.Rules().CanUndo(s.History.Actions), s.CanUndo)
		assert.Equal(t, CanRedo(s.History.Actions), s.CanRedo)
	}
}

func TestCustomActionTypes(t *testing.T) {
	e := newCounterEngine(t, WithActionTypes(ActionTypes{Undo: "history/undo", Redo: "history/redo"}))

	assert.Equal(t, "history/undo", e.UndoAction().Type)
	assert.Equal(t, "history/redo", e.RedoAction().Type)
	assert.Equal(t, DefaultResetActionType, e.ResetAction().Type)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), ir.Action{Type: "undo"})
	assert.Equal(t, int64(1), s.Present.Count, "plain undo is an ordinary action here")

	s = e.Reduce(s, e.UndoAction())
	assert.Equal(t, int64(0), s.Present.Count)
}

func TestIndependentEnginesDoNotShareNames(t *testing.T) {
	a := newCounterEngine(t, WithActionTypes(ActionTypes{Undo: "a/undo"}))
	b := newCounterEngine(t)

	assert.Equal(t, "a/undo", a.UndoAction().Type)
	assert.Equal(t, DefaultUndoActionType, b.UndoAction().Type)
}

func TestExport(t *testing.T) {
	e := newCounterEngine(t)

	s := dispatchAll(e, e.Initial(), counter.Increment(1), counter.Increment(10), e.UndoAction())
	exported := s.Export()

	assert.True(t, exported.Tracking)
	require.Len(t, exported.Actions, 2)
	assert.True(t, exported.Actions[1].Skipped)

	exported.Actions[0].Skipped = true
	assert.False(t, s.History.Actions[0].Skipped, "export must copy entries")

	empty := e.Initial().Export()
	assert.NotNil(t, empty.Actions)
	assert.Empty(t, empty.Actions)
}
