// Package clock is the time source used by the countdown, the escalation engine and the
// event loop. Production code uses Real; tests drive a Fake by hand.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer (false when it already fired or was stopped).
	Stop() bool
}

// Clock wraps wall-clock "now" and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
