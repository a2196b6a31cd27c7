// Package clock provides the wall clock used for every time rule in the
// reconciliation layer.
//
// Favorites are stamped with Now() on every mutation, the daily rollover
// compares calendar dates in the device location, and the recent-visit window
// is measured in elapsed milliseconds. Those rules never call time.Now
// directly; they take a Clock so tests can drive time explicitly.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// System is the production clock.
//
// Location is the device location used for calendar-date computations. A nil
// Location means time.Local.
type System struct {
	Location *time.Location
}

// Now returns the current time in the configured location.
func (s System) Now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time {
	return f()
}

// OrSystem returns c, or a System clock in the local zone when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}
