package sync

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerCollapsesBurstIntoOneFire(t *testing.T) {
	var fired atomic.Int32
	s := NewReloadScheduler(40*time.Millisecond, func() { fired.Add(1) })
	defer s.Stop()

	for i := 0; i < 5; i++ {
		s.Notify()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestSchedulerRearmsAfterFiring(t *testing.T) {
	ch := make(chan struct{}, 2)
	s := NewReloadScheduler(20*time.Millisecond, func() { ch <- struct{}{} })
	defer s.Stop()

	s.Notify()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("first fire never happened")
	}

	s.Notify()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("second fire never happened")
	}
}

func TestSchedulerStopCancelsPending(t *testing.T) {
	var fired atomic.Int32
	s := NewReloadScheduler(30*time.Millisecond, func() { fired.Add(1) })

	s.Notify()
	s.Stop()
	s.Notify() // ignored after Stop

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
