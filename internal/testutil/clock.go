// Package testutil holds deterministic helpers shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// ManualClock is a wall clock that only moves when told to.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// NewManualClockAt parses an RFC 3339 timestamp and freezes the clock there.
// The zone offset in the string becomes the device location.
//
// Panics on a malformed timestamp; it is meant for literals in tests.
func NewManualClockAt(rfc3339 string) *ManualClock {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		panic("testutil: bad timestamp " + rfc3339 + ": " + err.Error())
	}
	return NewManualClock(t)
}

// Now returns the current frozen time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d (backwards for negative d).
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
