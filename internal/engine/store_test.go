package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/undolog/internal/counter"
	"github.com/roach88/undolog/internal/history"
	"github.com/roach88/undolog/internal/ir"
)

func reduceCounter(s counter.State, a ir.Action) counter.State {
	return counter.Reduce(&s, a)
}

// recorder is middleware that logs the order actions pass through it.
func recorder[S any](name string, log *[]string) Middleware[S] {
	return func(api API[S]) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(action ir.Action) error {
				*log = append(*log, name+":"+action.Type)
				return next(action)
			}
		}
	}
}

func TestStore_DispatchAppliesReducer(t *testing.T) {
	s := New(reduceCounter, counter.State{})

	require.NoError(t, s.Dispatch(counter.Increment(1)))
	require.NoError(t, s.Dispatch(counter.Increment(4)))

	assert.Equal(t, int64(5), s.State().Count)
	assert.Equal(t, int64(2), s.Seq())
}

func TestStore_RejectsEmptyActionType(t *testing.T) {
	var log []string
	s := New(reduceCounter, counter.State{Count: 3}, recorder[counter.State]("mw", &log))

	err := s.Dispatch(ir.Action{})
	require.Error(t, err)
	assert.True(t, IsInvalidAction(err))
	assert.Empty(t, log, "middleware must not see malformed actions")
	assert.Equal(t, int64(3), s.State().Count)
	assert.Equal(t, int64(0), s.Seq())
}

func TestStore_MiddlewareOrder(t *testing.T) {
	var log []string
	s := New(reduceCounter, counter.State{},
		recorder[counter.State]("first", &log),
		recorder[counter.State]("second", &log),
	)

	require.NoError(t, s.Dispatch(counter.Increment(1)))
	assert.Equal(t, []string{"first:inc", "second:inc"}, log)
}

func TestStore_MiddlewareCanRedispatch(t *testing.T) {
	double := func(api API[counter.State]) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(action ir.Action) error {
				if err := next(action); err != nil {
					return err
				}
				if action.Type == "twice" {
					if err := api.Dispatch(counter.Increment(1)); err != nil {
						return err
					}
					return api.Dispatch(counter.Increment(1))
				}
				return nil
			}
		}
	}

	s := New(reduceCounter, counter.State{}, double)
	require.NoError(t, s.Dispatch(ir.Action{Type: "twice"}))

	assert.Equal(t, int64(2), s.State().Count)
	assert.Equal(t, int64(3), s.Seq())
}

func TestStore_MiddlewareCanSwallowAction(t *testing.T) {
	block := func(api API[counter.State]) func(next DispatchFunc) DispatchFunc {
		return func(next DispatchFunc) DispatchFunc {
			return func(action ir.Action) error {
				if action.Type == counter.ActionDecrement {
					return nil
				}
				return next(action)
			}
		}
	}

	s := New(reduceCounter, counter.State{}, block)
	require.NoError(t, s.Dispatch(counter.Decrement(1)))
	assert.Equal(t, int64(0), s.State().Count)
	assert.Equal(t, int64(0), s.Seq())
}

func TestStore_Subscribe(t *testing.T) {
	s := New(reduceCounter, counter.State{})

	var first, second []Commit[counter.State]
	unsubscribe := s.Subscribe(func(c Commit[counter.State]) { first = append(first, c) })
	s.Subscribe(func(c Commit[counter.State]) { second = append(second, c) })

	require.NoError(t, s.Dispatch(counter.Set(10)))
	unsubscribe()
	require.NoError(t, s.Dispatch(counter.Increment(1)))

	require.Len(t, first, 1)
	assert.Equal(t, int64(1), first[0].Seq)
	assert.Equal(t, counter.ActionSet, first[0].Action.Type)
	assert.Equal(t, int64(0), first[0].Prev.Count)
	assert.Equal(t, int64(10), first[0].Next.Count)

	require.Len(t, second, 2)
	assert.Equal(t, int64(2), second[1].Seq)
	assert.Equal(t, int64(11), second[1].Next.Count)
}

func TestStore_ConcurrentDispatchIsSerialized(t *testing.T) {
	s := New(reduceCounter, counter.State{})
	const goroutines = 20
	const perGoroutine = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				assert.NoError(t, s.Dispatch(counter.Increment(1)))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(goroutines*perGoroutine), s.State().Count)
	assert.Equal(t, int64(goroutines*perGoroutine), s.Seq())
}

func TestStore_HostsHistoryEngine(t *testing.T) {
	h, err := history.New[counter.State](counter.Reduce)
	require.NoError(t, err)

	s := New(h.Reduce, h.Initial())
	for _, a := range []ir.Action{counter.Increment(1), counter.Increment(1), h.UndoAction()} {
		require.NoError(t, s.Dispatch(a))
	}

	state := s.State()
	assert.Equal(t, int64(1), state.Present.Count)
	assert.True(t, state.CanUndo)
	assert.True(t, state.CanRedo)
}
