package lobby

import (
	"sync"
	"time"
)

// windowTimer fires a callback once after a duration unless stopped first.
// It is safe for concurrent use.
type windowTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// newWindowTimer starts a timer that calls onExpire after d in its own goroutine.
//
// Precondition: d > 0; onExpire must not be nil.
func newWindowTimer(d time.Duration, onExpire func()) *windowTimer {
	wt := &windowTimer{}
	wt.mu.Lock()
	defer wt.mu.Unlock()
	wt.timer = time.AfterFunc(d, func() {
		wt.mu.Lock()
		stopped := wt.stopped
		wt.mu.Unlock()
		if !stopped {
			onExpire()
		}
	})
	return wt
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: reports whether this call stopped a still-pending timer.
func (wt *windowTimer) Stop() bool {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	if wt.stopped {
		return false
	}
	wt.stopped = true
	return wt.timer.Stop()
}
