package testutil

import (
	"sync"
	"time"

	"yd-go/internal/yd"
)

// FakeTimers records AfterFunc calls so tests fire them by hand.
type FakeTimers struct {
	mu     sync.Mutex
	timers []*FakeTimer
}

// FakeTimer is one scheduled callback.
type FakeTimer struct {
	Delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func NewFakeTimers() *FakeTimers {
	return &FakeTimers{}
}

// AfterFunc satisfies yd.AfterFunc.
func (ft *FakeTimers) AfterFunc(d time.Duration, f func()) yd.Stopper {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &FakeTimer{Delay: d, fn: f}
	ft.timers = append(ft.timers, t)
	return &fakeStopper{owner: ft, timer: t}
}

// Scheduled returns how many timers were ever created.
func (ft *FakeTimers) Scheduled() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.timers)
}

// Active returns how many timers are neither stopped nor fired.
func (ft *FakeTimers) Active() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	n := 0
	for _, t := range ft.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// FireAll runs every active timer and returns how many ran.
func (ft *FakeTimers) FireAll() int {
	ft.mu.Lock()
	var due []func()
	for _, t := range ft.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	ft.mu.Unlock()

	for _, fn := range due {
		fn()
	}
	return len(due)
}

// RunLate runs the callback of the i-th timer even if it was stopped, like
// a runtime timer whose goroutine started just before Stop.
func (ft *FakeTimers) RunLate(i int) {
	ft.mu.Lock()
	t := ft.timers[i]
	t.fired = true
	ft.mu.Unlock()
	t.fn()
}

type fakeStopper struct {
	owner *FakeTimers
	timer *FakeTimer
}

func (s *fakeStopper) Stop() bool {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	if s.timer.stopped || s.timer.fired {
		return false
	}
	s.timer.stopped = true
	return true
}
