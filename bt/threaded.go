package bt

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ThreadedFunc is a worker body run on a background goroutine. It polls
// haltRequested and returns promptly once that reports true; Halt sets
// the flag and joins the worker.
type ThreadedFunc func(haltRequested func() bool) (Status, error)

// ThreadedAction spawns fn on a worker goroutine the first time it's
// ticked, and polls the worker's completion on every following tick
// without blocking the caller's tick thread. Any error the worker returns
// is captured and rethrown from the tick that observes completion.
type ThreadedAction struct {
	fn ThreadedFunc

	mu      sync.Mutex
	started bool
	done    chan struct{}
	halt    atomic.Bool
	group   *errgroup.Group
	result  Status
	runErr  error
}

// NewThreadedAction builds a ThreadedAction around fn.
func NewThreadedAction(fn ThreadedFunc) *ThreadedAction {
	return &ThreadedAction{fn: fn}
}

func (a *ThreadedAction) Tick() (Status, error) {
	a.mu.Lock()
	if !a.started {
		a.started = true
		a.halt.Store(false)
		a.done = make(chan struct{})
		done := a.done
		a.group = new(errgroup.Group)
		a.group.Go(func() error {
			status, err := a.fn(a.halt.Load)
			a.mu.Lock()
			a.result, a.runErr = status, err
			a.mu.Unlock()
			close(done)
			return err
		})
		a.mu.Unlock()
		return Running, nil
	}
	done := a.done
	a.mu.Unlock()

	select {
	case <-done:
		a.mu.Lock()
		status, err := a.result, a.runErr
		a.started = false
		a.mu.Unlock()
		if err != nil {
			return Idle, err
		}
		return status, nil
	default:
		return Running, nil
	}
}

// Halt requests the worker stop and joins it. It blocks until the worker
// observes the halt request and returns, keeping halt synchronous from
// the caller's perspective.
func (a *ThreadedAction) Halt() {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return
	}
	a.halt.Store(true)
	group := a.group
	a.mu.Unlock()

	_ = group.Wait()

	a.mu.Lock()
	a.started = false
	a.mu.Unlock()
}
