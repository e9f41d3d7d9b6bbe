package trips

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler decides when deferred work may start.
type Scheduler interface {
	Schedule(fn func())
}

// IdleScheduler runs work once the process is otherwise idle: when the idle
// channel closes (for example after dataset warm-up) or when the fallback
// delay elapses, whichever comes first. With no idle channel and no delay it
// runs the work on a fresh goroutine.
type IdleScheduler struct {
	clock clockwork.Clock
	delay time.Duration
	idle  <-chan struct{}
}

// NewIdleScheduler creates an IdleScheduler. idle may be nil; delay <= 0
// disables the fallback timer.
func NewIdleScheduler(clock clockwork.Clock, delay time.Duration, idle <-chan struct{}) *IdleScheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IdleScheduler{clock: clock, delay: delay, idle: idle}
}

// Schedule runs fn exactly once, asynchronously.
func (s *IdleScheduler) Schedule(fn func()) {
	switch {
	case s.idle == nil && s.delay <= 0:
		go fn()
	case s.idle == nil:
		s.clock.AfterFunc(s.delay, fn)
	case s.delay <= 0:
		go func() {
			<-s.idle
			fn()
		}()
	default:
		timer := s.clock.NewTimer(s.delay)
		go func() {
			defer timer.Stop()
			select {
			case <-s.idle:
			case <-timer.Chan():
			}
			fn()
		}()
	}
}

// ImmediateScheduler runs work inline, for environments with nothing to defer to.
type ImmediateScheduler struct{}

// Schedule calls fn before returning.
func (ImmediateScheduler) Schedule(fn func()) { fn() }
