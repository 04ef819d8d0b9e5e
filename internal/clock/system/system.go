// Package system provides the wall clock used for run timestamps.
package system

import "time"

// Clock implements insights.Clock on time.Now.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC, so run records and metrics carry a
// single zone regardless of where the service runs.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
