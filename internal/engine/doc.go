// Package engine hosts a reducer behind a serialized dispatch loop.
//
// A Store holds one state value. Dispatch runs the action through the
// middleware chain and then through the reducer:
//
//	Dispatch(action)
//	  -> middleware[0] -> middleware[1] -> ... -> commit
//
// commit is the only place the state changes. It holds the store mutex for
// exactly one reduce call, stamps the transition with the next value of the
// logical Clock, and notifies subscribers after the lock is released.
// Middleware may dispatch further actions (for example a persistence adapter
// that hydrates after a load) because the lock is never held across the
// chain.
//
// Ordering uses Clock sequence numbers, never wall-clock time. Under
// concurrent dispatch subscribers may observe commits out of order; Commit.Seq
// gives the order the reducer applied them in.
package engine
