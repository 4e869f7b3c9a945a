package engine

import "time"

// Clock is the time source of the tick driver
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is a one-shot timer created by a Clock
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// RealClock reads the system monotonic clock
type RealClock struct{}

// NewRealClock creates a wall clock
func NewRealClock() RealClock { return RealClock{} }

// Now returns the current time with monotonic clock reading
func (RealClock) Now() time.Time { return time.Now() }

// NewTimer wraps time.NewTimer
func (RealClock) NewTimer(d time.Duration) Timer {
	return realTimer{t: time.NewTimer(d)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }
