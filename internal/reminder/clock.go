package reminder

import "time"

type Timer interface {
	// Stop reports whether the call stopped the timer before it fired.
	Stop() bool
}

// Clock is the scheduler's view of time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
