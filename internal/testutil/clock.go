// Package testutil provides shared helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic time source for tests.
//
// Each call to Now advances the clock by a fixed step, so successive
// lifecycle timestamps are distinct and strictly increasing without any
// wall-clock dependence. Reset allows the same scenario to run repeatedly
// with identical timestamps.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu      sync.Mutex
	start   time.Time
	step    time.Duration
	current time.Time
}

// NewClock creates a clock starting at start, advancing by step per call.
//
// The first call to Now returns start plus one step.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start.UTC(), step: step, current: start.UTC()}
}

// Now advances the clock by one step and returns the new time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(c.step)
	return c.current
}

// Current returns the last returned time without advancing.
func (c *Clock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Reset rewinds the clock to its start time.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.start
}
