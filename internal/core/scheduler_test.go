package core

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualScheduler_FiresInOrder(t *testing.T) {
	s := NewManualScheduler()
	var order []string

	s.AfterFunc(300*time.Millisecond, func() { order = append(order, "c") })
	s.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	s.AfterFunc(200*time.Millisecond, func() { order = append(order, "b") })

	s.Advance(150 * time.Millisecond)
	assert.Equal(t, []string{"a"}, order)
	assert.Equal(t, 2, s.Pending())

	s.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 1150*time.Millisecond, s.Now())
}

func TestManualScheduler_SameDeadlineFIFO(t *testing.T) {
	s := NewManualScheduler()
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		s.AfterFunc(time.Second, func() { order = append(order, i) })
	}
	s.Advance(time.Second)

	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestManualScheduler_Stop(t *testing.T) {
	s := NewManualScheduler()
	fired := false

	timer := s.AfterFunc(time.Second, func() { fired = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	s.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManualScheduler_NestedScheduling(t *testing.T) {
	s := NewManualScheduler()
	var fired []time.Duration

	s.AfterFunc(100*time.Millisecond, func() {
		fired = append(fired, s.Now())
		s.AfterFunc(100*time.Millisecond, func() { fired = append(fired, s.Now()) })
	})

	s.Advance(time.Second)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, fired)
}

func TestRealScheduler(t *testing.T) {
	var fired atomic.Bool
	timer := NewScheduler().AfterFunc(time.Millisecond, func() { fired.Store(true) })
	defer timer.Stop()

	assert.Eventually(t, fired.Load, time.Second, time.Millisecond)
}
