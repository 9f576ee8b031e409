package decorator

import "github.com/thicketbt/thicket/bt"

// Repeat re-ticks child until it has succeeded num_cycles times (-1 means
// infinite), then returns Success; a child Failure fails the whole
// decorator and resets the success count; Skipped passes through.
type Repeat struct {
	cfg       bt.NodeConfig
	child     *bt.Node
	successes int64
}

// NewRepeat wraps child, reading num_cycles from cfg on each tick.
func NewRepeat(cfg bt.NodeConfig, child *bt.Node) *Repeat {
	return &Repeat{cfg: cfg, child: child}
}

func (d *Repeat) Tick() (bt.Status, error) {
	numCycles, err := intPort(&d.cfg, "num_cycles", -1)
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Repeat: resolving num_cycles port")
	}
	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	switch status {
	case bt.Running:
		return bt.Running, nil
	case bt.Skipped:
		return bt.Skipped, nil
	case bt.Failure:
		d.successes = 0
		return bt.Failure, nil
	case bt.Success:
		d.successes++
		if numCycles >= 0 && d.successes >= numCycles {
			d.successes = 0
			return bt.Success, nil
		}
		return bt.Running, nil
	default:
		return bt.Idle, bt.NewRuntimeError("Repeat: child returned Idle")
	}
}

func (d *Repeat) Halt() {
	haltIfRunning(d.child)
	d.successes = 0
}

// Retry re-ticks child on Failure up to num_attempts times (-1 means
// infinite); Success or Skipped pass straight through and reset the
// attempt counter.
type Retry struct {
	cfg      bt.NodeConfig
	child    *bt.Node
	attempts int64
}

// NewRetry wraps child, reading num_attempts from cfg on each tick.
func NewRetry(cfg bt.NodeConfig, child *bt.Node) *Retry {
	return &Retry{cfg: cfg, child: child}
}

func (d *Retry) Tick() (bt.Status, error) {
	numAttempts, err := intPort(&d.cfg, "num_attempts", -1)
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Retry: resolving num_attempts port")
	}
	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	switch status {
	case bt.Running:
		return bt.Running, nil
	case bt.Success:
		d.attempts = 0
		return bt.Success, nil
	case bt.Skipped:
		d.attempts = 0
		return bt.Skipped, nil
	case bt.Failure:
		d.attempts++
		if numAttempts >= 0 && d.attempts >= numAttempts {
			d.attempts = 0
			return bt.Failure, nil
		}
		return bt.Running, nil
	default:
		return bt.Idle, bt.NewRuntimeError("Retry: child returned Idle")
	}
}

// Halt resets the attempt counter so a later retry starts fresh.
func (d *Retry) Halt() {
	haltIfRunning(d.child)
	d.attempts = 0
}
