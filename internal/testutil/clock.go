// Package testutil provides deterministic collaborators for engine, harness
// and CLI tests.
package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first timestamp a StepClock returns unless configured
// otherwise: 2023-11-14T22:13:20Z, 1700000000000000000 ns.
var DefaultEpoch = time.Unix(0, 1700000000000000000).UTC()

// StepClock is a thread-safe wall-clock stand-in for tests.
//
// The first call to Now returns the epoch; each later call advances by step.
// A zero step returns the epoch forever.
type StepClock struct {
	mu    sync.Mutex
	epoch time.Time
	step  time.Duration
	calls int64
}

// NewStepClock creates a clock starting at epoch and advancing by step.
func NewStepClock(epoch time.Time, step time.Duration) *StepClock {
	return &StepClock{epoch: epoch, step: step}
}

// NewFixedClock creates a clock that always returns DefaultEpoch.
func NewFixedClock() *StepClock {
	return NewStepClock(DefaultEpoch, 0)
}

// Now returns the next timestamp. Suitable for engine.WithNow.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.epoch.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many timestamps have been handed out.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
