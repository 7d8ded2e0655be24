package testutil

import "sync"

// TickCounter emulates a device tick counter that wraps at rawMax.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type TickCounter struct {
	mu     sync.Mutex
	rawMax uint64
	total  uint64
}

// NewTickCounter creates a counter starting at start ticks.
func NewTickCounter(rawMax, start uint64) *TickCounter {
	return &TickCounter{rawMax: rawMax, total: start}
}

// Advance moves the counter forward by step ticks and returns the raw
// (wrapped) value the device would report.
func (c *TickCounter) Advance(step uint64) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += step
	return uint32(c.total % c.rawMax)
}

// Raw returns the current wrapped value without advancing.
func (c *TickCounter) Raw() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint32(c.total % c.rawMax)
}

// Total returns the unwrapped tick count.
func (c *TickCounter) Total() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}
