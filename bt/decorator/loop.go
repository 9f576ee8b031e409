package decorator

import (
	"sync"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/port"
)

// ItemQueue is a mutex-guarded FIFO of items consumed one per Loop tick.
// Loop owns its queue exclusively, but the guard keeps it safe if a
// caller seeds or inspects the queue from another goroutine between
// ticks.
type ItemQueue[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewItemQueue builds a queue already populated with items, in order.
func NewItemQueue[T any](items ...T) *ItemQueue[T] {
	return &ItemQueue[T]{items: append([]T(nil), items...)}
}

// Push appends an item to the back of the queue.
func (q *ItemQueue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// PopFront removes and returns the first item, reporting false if empty.
func (q *ItemQueue[T]) PopFront() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len reports the number of items remaining.
func (q *ItemQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Loop pops one item per iteration from queue into the output port
// "value", ticking child once per popped item; it re-ticks child across
// Running returns before popping the next item. An empty queue returns
// ifEmpty.
type Loop[T any] struct {
	cfg      bt.NodeConfig
	queue    *ItemQueue[T]
	child    *bt.Node
	ifEmpty  bt.Status
	current  T
	haveItem bool
}

// NewLoop wraps child, popping from queue and writing into the
// output port "value" declared on cfg.
func NewLoop[T any](cfg bt.NodeConfig, queue *ItemQueue[T], child *bt.Node, ifEmpty bt.Status) *Loop[T] {
	return &Loop[T]{cfg: cfg, queue: queue, child: child, ifEmpty: ifEmpty}
}

func (d *Loop[T]) Tick() (bt.Status, error) {
	if !d.haveItem {
		item, ok := d.queue.PopFront()
		if !ok {
			return d.ifEmpty, nil
		}
		d.current = item
		d.haveItem = true
		raw, hasRaw := d.cfg.OutputPorts["value"]
		if err := port.WriteOutput(d.cfg.Blackboard, "value", raw, hasRaw, anyvalue.New(item)); err != nil {
			d.haveItem = false
			return bt.Idle, bt.WrapRuntimeError(err, "Loop: writing value port")
		}
	}

	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status == bt.Running {
		return bt.Running, nil
	}
	d.haveItem = false
	if status == bt.Failure {
		return bt.Failure, nil
	}
	return bt.Running, nil
}

func (d *Loop[T]) Halt() {
	haltIfRunning(d.child)
	d.haveItem = false
}
