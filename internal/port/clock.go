package port

import "time"

type Timer interface {
	// Stop prevents the timer from firing, returns false if it already fired or was stopped
	Stop() bool
}

type Clock interface {
	Now() time.Time

	// AfterFunc runs f in its own goroutine once d has elapsed
	AfterFunc(d time.Duration, f func()) Timer
}
