package decorator

import (
	"sync/atomic"
	"time"

	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/timer"
)

// Timeout schedules a timer from its msec port on first tick; if the
// child completes before the timer fires, the timer is cancelled and the
// child's status passes through; if the timer fires first, the child is
// halted and the decorator returns Failure.
//
// The timer callback only sets an atomic flag; the actual Halt() call on
// child happens on the next Tick, keeping every Node method call on the
// single cooperative tick thread.
type Timeout struct {
	cfg       bt.NodeConfig
	child     *bt.Node
	queue     *timer.Queue
	timerID   uint64
	scheduled bool
	fired     atomic.Bool
}

// NewTimeout wraps child, reading msec from cfg on each new timer arm.
func NewTimeout(cfg bt.NodeConfig, child *bt.Node, queue *timer.Queue) *Timeout {
	return &Timeout{cfg: cfg, child: child, queue: queue}
}

func (d *Timeout) Tick() (bt.Status, error) {
	if !d.scheduled {
		ms, err := intPort(&d.cfg, "msec", 0)
		if err != nil {
			return bt.Idle, bt.WrapRuntimeError(err, "Timeout: resolving msec port")
		}
		d.fired.Store(false)
		d.scheduled = true
		d.timerID = d.queue.Schedule(time.Duration(ms)*time.Millisecond, func(aborted bool) {
			if !aborted {
				d.fired.Store(true)
			}
		})
	}

	if d.fired.Load() {
		d.scheduled = false
		d.child.Halt()
		return bt.Failure, nil
	}

	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status == bt.Running {
		return bt.Running, nil
	}
	d.queue.Cancel(d.timerID)
	d.scheduled = false
	return status, nil
}

func (d *Timeout) Halt() {
	if d.scheduled {
		d.queue.Cancel(d.timerID)
		d.scheduled = false
	}
	haltIfRunning(d.child)
}

// Delay schedules a timer from its delay_msec port on first tick and
// stays Running until it fires, then ticks child once and passes its
// status through.
type Delay struct {
	cfg       bt.NodeConfig
	child     *bt.Node
	queue     *timer.Queue
	timerID   uint64
	scheduled bool
	fired     atomic.Bool
}

// NewDelay wraps child, reading delay_msec from cfg on each new timer arm.
func NewDelay(cfg bt.NodeConfig, child *bt.Node, queue *timer.Queue) *Delay {
	return &Delay{cfg: cfg, child: child, queue: queue}
}

func (d *Delay) Tick() (bt.Status, error) {
	if !d.scheduled {
		ms, err := intPort(&d.cfg, "delay_msec", 0)
		if err != nil {
			return bt.Idle, bt.WrapRuntimeError(err, "Delay: resolving delay_msec port")
		}
		d.fired.Store(false)
		d.scheduled = true
		d.timerID = d.queue.Schedule(time.Duration(ms)*time.Millisecond, func(aborted bool) {
			if !aborted {
				d.fired.Store(true)
			}
		})
	}

	if !d.fired.Load() {
		return bt.Running, nil
	}
	d.scheduled = false
	return d.child.ExecuteTick()
}

func (d *Delay) Halt() {
	if d.scheduled {
		d.queue.Cancel(d.timerID)
		d.scheduled = false
	}
	haltIfRunning(d.child)
}
