// Package wakeup implements the per-tree WakeUpSignal: a
// condition-variable-backed latch any node can raise to abort the tree
// driver's sleep between ticks.
package wakeup

import (
	"sync"
	"time"
)

// Signal is a single-producer-many-consumer latch. Raise marks it pending;
// WaitFor consumes a pending raise (or blocks until one arrives, or the
// timeout elapses).
type Signal struct {
	mutex   sync.Mutex
	cond    *sync.Cond
	pending bool
}

// New constructs a ready-to-use Signal.
func New() *Signal {
	s := &Signal{}
	s.cond = sync.NewCond(&s.mutex)
	return s
}

// Raise marks the signal pending and wakes any waiter. Raising an
// already-pending signal is a no-op (the latch coalesces raises, like a
// single-slot semaphore).
func (s *Signal) Raise() {
	s.mutex.Lock()
	s.pending = true
	s.mutex.Unlock()
	s.cond.Broadcast()
}

// Poll consumes a pending raise without blocking, reporting whether one
// was pending. Used by tick_once's non-blocking re-tick check.
func (s *Signal) Poll() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.pending {
		s.pending = false
		return true
	}
	return false
}

// WaitFor blocks until the signal is raised or timeout elapses, returning
// true if it consumed a raise and false on timeout. A timeout of zero or
// less waits indefinitely.
func (s *Signal) WaitFor(timeout time.Duration) bool {
	if s.Poll() {
		return true
	}

	woken := make(chan struct{})
	go func() {
		s.mutex.Lock()
		for !s.pending {
			s.cond.Wait()
		}
		s.mutex.Unlock()
		close(woken)
	}()

	if timeout <= 0 {
		<-woken
		return s.Poll()
	}

	select {
	case <-woken:
		return s.Poll()
	case <-time.After(timeout):
		// The waiter goroutine may still be parked in cond.Wait; a
		// subsequent Raise will wake and drain it harmlessly.
		return false
	}
}
