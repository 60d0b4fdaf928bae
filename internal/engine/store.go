package engine

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/undolog/internal/ir"
)

// DispatchFunc sends an action towards the reducer.
type DispatchFunc func(action ir.Action) error

// API is the view of a Store handed to middleware.
type API[S any] interface {
	// State returns the current state.
	State() S
	// Dispatch sends an action through the full middleware chain.
	Dispatch(action ir.Action) error
}

// Middleware wraps the dispatch chain. The returned DispatchFunc receives
// every action before next does and decides whether, and when, to call next.
type Middleware[S any] func(api API[S]) func(next DispatchFunc) DispatchFunc

// Commit describes one applied transition.
type Commit[S any] struct {
	Seq    int64
	Action ir.Action
	Prev   S
	Next   S
}

// Store serializes dispatches into a single reducer-owned state.
//
// Thread-safety: every method is safe for concurrent use. Reduce calls never
// overlap.
type Store[S any] struct {
	reduce func(S, ir.Action) S

	mu    sync.Mutex
	state S
	clock *Clock

	subMu   sync.Mutex
	subs    []subscriber[S]
	nextSub int

	dispatch DispatchFunc
}

// New creates a Store holding initial. Middleware is applied in order: the
// first middleware sees an action first.
func New[S any](reduce func(S, ir.Action) S, initial S, mws ...Middleware[S]) *Store[S] {
	s := &Store[S]{
		reduce: reduce,
		state:  initial,
		clock:  NewClock(),
	}

	chain := DispatchFunc(s.commit)
	for i := len(mws) - 1; i >= 0; i-- {
		chain = mws[i](s)(chain)
	}
	s.dispatch = chain
	return s
}

// State returns the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Seq returns the sequence number of the last commit, 0 before any.
func (s *Store[S]) Seq() int64 {
	return s.clock.Current()
}

// Dispatch validates action and sends it through the middleware chain.
// Malformed actions are refused with a *DispatchError and never reach
// middleware or the reducer.
func (s *Store[S]) Dispatch(action ir.Action) error {
	if err := ValidateAction(action); err != nil {
		return err
	}
	if s.dispatch == nil {
		// middleware dispatching while the chain is being built
		return s.commit(action)
	}
	return s.dispatch(action)
}

type subscriber[S any] struct {
	id int
	fn func(Commit[S])
}

// Subscribe registers fn to be called after every commit, in subscription
// order. The returned function removes the subscription.
func (s *Store[S]) Subscribe(fn func(Commit[S])) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber[S]{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber[S]) bool {
			return sub.id == id
		})
	}
}

// commit is the end of the chain: one reducer step under the lock.
func (s *Store[S]) commit(action ir.Action) error {
	s.mu.Lock()
	prev := s.state
	next := s.reduce(prev, action)
	s.state = next
	seq := s.clock.Next()
	s.mu.Unlock()

	slog.Debug("dispatch committed", "seq", seq, "action", action.Type)

	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	c := Commit[S]{Seq: seq, Action: action, Prev: prev, Next: next}
	for _, sub := range subs {
		sub.fn(c)
	}
	return nil
}
