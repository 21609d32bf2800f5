package ports

import "time"

// Timer is a cancellable pending callback. Stop reports whether the call
// was prevented from firing.
type Timer interface {
	Stop() bool
}

// Scheduler abstracts timer scheduling and the clock so that tick and
// debounce behavior can run against a simulated clock in tests.
type Scheduler interface {
	After(d time.Duration, fn func()) Timer
	Now() time.Time
}
