// Package timer implements a deadline-ordered timer queue: a single
// background goroutine servicing a min-heap of (deadline, id,
// callback) entries for the Timeout and Delay decorators and the Sleep
// leaf. Cancellation clears an entry's callback in place rather than
// removing it from the heap, avoiding a heap mutation concurrent with
// the goroutine that may be mid-pop on the same entry.
package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/thicketbt/thicket/heap"
)

type entry struct {
	deadline time.Time
	id       uint64
	callback func(aborted bool)
}

func less(a, b *entry) bool {
	return a.deadline.Before(b.deadline)
}

// Queue is a single-background-goroutine min-heap of scheduled callbacks.
type Queue struct {
	mu      sync.Mutex
	heap    *heap.Heap[*entry]
	byID    map[uint64]*entry
	nextID  uint64
	wake    chan struct{}
	closing chan struct{}
	done    chan struct{}
}

// New starts a Queue's background worker and returns it running.
func New() *Queue {
	q := &Queue{
		heap:    heap.New(less),
		byID:    map[uint64]*entry{},
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

// Schedule arranges for callback(false) to run after delay elapses,
// unless cancelled first. It returns an id usable with Cancel.
func (q *Queue) Schedule(delay time.Duration, callback func(aborted bool)) uint64 {
	id := atomic.AddUint64(&q.nextID, 1)
	e := &entry{deadline: time.Now().Add(delay), id: id, callback: callback}

	q.mu.Lock()
	q.heap.Push(e)
	q.byID[id] = e
	q.mu.Unlock()

	q.signal()
	return id
}

// Cancel clears the callback registered for id, if still pending, and
// invokes it promptly with aborted=true. The heap entry itself is left in
// place (not removed) so the worker's sift operations never need to
// locate and extract an arbitrary interior node.
func (q *Queue) Cancel(id uint64) {
	q.mu.Lock()
	e, found := q.byID[id]
	if !found {
		q.mu.Unlock()
		return
	}
	delete(q.byID, id)
	cb := e.callback
	e.callback = nil
	q.mu.Unlock()

	if cb != nil {
		cb(true)
	}
}

// CancelAll clears every pending callback, invoking each with
// aborted=true.
func (q *Queue) CancelAll() {
	q.mu.Lock()
	ids := make([]uint64, 0, len(q.byID))
	for id := range q.byID {
		ids = append(ids, id)
	}
	q.mu.Unlock()
	for _, id := range ids {
		q.Cancel(id)
	}
}

// Close cancels all pending callbacks and stops the background worker,
// joining it before returning.
func (q *Queue) Close() {
	q.CancelAll()
	close(q.closing)
	<-q.done
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) run() {
	defer close(q.done)

	timerT := time.NewTimer(time.Hour)
	timerT.Stop()
	defer timerT.Stop()

	for {
		q.mu.Lock()
		for {
			top, ok := q.heap.Peek()
			if !ok || top.callback != nil {
				break
			}
			q.heap.Pop() // discard already-cancelled head entries
		}
		top, ok := q.heap.Peek()
		q.mu.Unlock()

		select {
		case <-q.closing:
			return
		default:
		}

		if ok && !top.deadline.After(time.Now()) {
			q.fireDue()
			continue
		}

		var timerC <-chan time.Time
		if ok {
			timerT.Reset(time.Until(top.deadline))
			timerC = timerT.C
		}

		select {
		case <-timerC:
		case <-q.wake:
			if timerC != nil && !timerT.Stop() {
				select {
				case <-timerT.C:
				default:
				}
			}
		case <-q.closing:
			return
		}
	}
}

// fireDue pops and invokes every entry whose deadline has passed.
func (q *Queue) fireDue() {
	for {
		q.mu.Lock()
		top, ok := q.heap.Peek()
		if !ok || top.deadline.After(time.Now()) {
			q.mu.Unlock()
			return
		}
		q.heap.Pop()
		delete(q.byID, top.id)
		cb := top.callback
		q.mu.Unlock()

		if cb != nil {
			cb(false)
		}
	}
}
