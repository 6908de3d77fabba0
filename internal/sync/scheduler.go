package sync

import (
	"sync"
	"time"
)

// ReloadScheduler owns the single pending reload timer. Every Notify cancels
// and rearms it (trailing debounce), so a burst of filter changes collapses
// into one reload fired after the interval of quiet.
type ReloadScheduler struct {
	mu       sync.Mutex
	interval time.Duration
	fire     func()
	timer    *time.Timer
	stopped  bool
}

// NewReloadScheduler builds a scheduler invoking fire after interval.
func NewReloadScheduler(interval time.Duration, fire func()) *ReloadScheduler {
	if interval <= 0 {
		interval = 300 * time.Millisecond
	}
	return &ReloadScheduler{interval: interval, fire: fire}
}

// Notify rearms the debounce timer.
func (s *ReloadScheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, s.fire)
}

// Stop cancels any pending timer. Further Notify calls are ignored.
func (s *ReloadScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
