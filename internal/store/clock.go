package store

import "sync/atomic"

// Clock hands out strictly increasing last_modified stamps. A stamp follows
// the wall clock in milliseconds when it is ahead, and the previous stamp
// plus one otherwise, so stamps never repeat even if the wall clock steps
// back.
//
// Safe for concurrent use.
type Clock struct {
	last atomic.Int64
}

// NewClockAt returns a clock whose next stamp is greater than start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.last.Store(start)
	return c
}

// Next returns a stamp greater than every previous one and not below
// nowMillis.
func (c *Clock) Next(nowMillis int64) int64 {
	for {
		prev := c.last.Load()
		next := max(prev+1, nowMillis)
		if c.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Current returns the last stamp handed out.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
