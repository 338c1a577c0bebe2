package testutil

import "sync"

// FixedClock is a deterministic lifecycle.Clock for tests.
//
// The first call to Now returns start; each later call advances by step.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu    sync.Mutex
	start int64
	step  int64
	calls int64
}

// NewFixedClock creates a clock that starts at start and advances by step.
func NewFixedClock(start, step int64) *FixedClock {
	return &FixedClock{start: start, step: step}
}

// Now returns the next timestamp.
func (c *FixedClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.start + c.calls*c.step
	c.calls++
	return ts
}

// Reset rewinds the clock so the next Now returns start again.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
