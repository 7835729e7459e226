package sequencer

import (
	"sync"
	"time"
)

// manualScheduler is a deterministic Clock and Scheduler for tests: time
// only moves when Advance is called, and due callbacks run synchronously in
// due order.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	sched   *manualScheduler
	due     time.Time
	f       func()
	fired   bool
	stopped bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Unix(0, 0)}
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{sched: s, due: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, running every due callback at its
// due time. Callbacks run outside the scheduler lock so they may schedule
// further timers or stop existing ones.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	for {
		var next *manualTimer
		for _, t := range s.timers {
			if t.fired || t.stopped || t.due.After(target) {
				continue
			}
			if next == nil || t.due.Before(next.due) {
				next = t
			}
		}
		if next == nil {
			break
		}
		if next.due.After(s.now) {
			s.now = next.due
		}
		next.fired = true
		f := next.f
		s.mu.Unlock()
		f()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

func (t *manualTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
