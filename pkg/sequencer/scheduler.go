// Package sequencer drives timed playback of an assembled note list.
//
// The Player schedules one deferred callback per remaining note against a
// wall clock and supports play, pause, resume, stop and live tempo scaling.
// Timing is abstracted behind the Clock and Scheduler interfaces so the
// state machine is testable without real sleeps.
package sequencer

import "time"

// Clock supplies the current time. Production code uses SystemClock; tests
// substitute a manual clock.
type Clock interface {
	Now() time.Time
}

// Timer is the handle for one scheduled callback. Stop reports whether the
// callback was cancelled before it fired. Stopping an already-fired timer is
// a no-op.
type Timer interface {
	Stop() bool
}

// Scheduler defers callbacks by a wall-clock delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock reads the system wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SystemScheduler schedules callbacks with time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
