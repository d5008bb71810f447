package core

import "time"

// TimerHandle is a revocable scheduled task. Stop reports whether the
// firing was prevented; a false return means the callback already ran
// or is running.
type TimerHandle interface {
	Stop() bool
}

// Scheduler arms one-shot timers. The production implementation routes
// callbacks back into the dispatch loop; tests substitute their own.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler { return realScheduler{} }

func (realScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return time.AfterFunc(d, fn)
}
