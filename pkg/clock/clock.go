// Package clock abstracts timers so time-driven behaviour can run against a fake clock in tests.
package clock

import "time"

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once d has elapsed. f runs without any clock lock held.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the timer was still pending.
	Stop() bool
}

// Real is the wall clock.
type Real struct{}

// New returns the wall clock.
func New() Clock { return Real{} }

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
