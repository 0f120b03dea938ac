package core

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler is a Scheduler driven by Advance, for testing.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

// NewManualScheduler creates a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &manualTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.pending = append(s.pending, t)
	return t
}

// Advance moves the clock forward, running due callbacks in time order.
// Callbacks run without the scheduler lock and may schedule more timers.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.pending, func(i, j int) bool {
			if s.pending[i].at != s.pending[j].at {
				return s.pending[i].at < s.pending[j].at
			}
			return s.pending[i].seq < s.pending[j].seq
		})
		if len(s.pending) == 0 || s.pending[0].at > target {
			s.now = target
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Now returns the elapsed manual time.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for i, p := range t.s.pending {
		if p == t {
			t.s.pending = append(t.s.pending[:i], t.s.pending[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}
