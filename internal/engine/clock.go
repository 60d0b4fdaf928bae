package engine

import "sync/atomic"

// Clock is a monotonic logical clock. Every committed transition takes the
// next value, so sequence numbers are unique and strictly increasing for the
// lifetime of a Store.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
