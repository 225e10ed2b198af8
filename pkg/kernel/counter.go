package kernel

import "sync/atomic"

// Counter is an append counter shared by the items of a dispatch. Each
// producer reserves consecutive slots and writes at the returned offset.
type Counter struct {
	v atomic.Uint32
}

// Reset sets the counter to zero.
func (c *Counter) Reset() {
	c.v.Store(0)
}

// Load returns the current value.
func (c *Counter) Load() uint32 {
	return c.v.Load()
}

// Add increments the counter by n and returns the value before the
// increment.
func (c *Counter) Add(n uint32) uint32 {
	return c.v.Add(n) - n
}

// Reserve claims n slots below limit. It returns the first slot and true,
// or false without changing the counter when the slots would not fit.
func (c *Counter) Reserve(n, limit uint32) (uint32, bool) {
	for {
		old := c.v.Load()
		if old+n > limit {
			return old, false
		}
		if c.v.CompareAndSwap(old, old+n) {
			return old, true
		}
	}
}
