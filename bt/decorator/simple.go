package decorator

import "github.com/thicketbt/thicket/bt"

// Inverter swaps a completed child's Success and Failure, passing Running
// through unchanged.
type Inverter struct {
	child *bt.Node
}

// NewInverter wraps child in an Inverter.
func NewInverter(child *bt.Node) *Inverter { return &Inverter{child: child} }

func (d *Inverter) Tick() (bt.Status, error) {
	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	switch status {
	case bt.Success:
		return bt.Failure, nil
	case bt.Failure:
		return bt.Success, nil
	default:
		return status, nil
	}
}

func (d *Inverter) Halt() { haltIfRunning(d.child) }

// forcedOutcome is shared by ForceSuccess/ForceFailure: Running passes
// through, any completion is overridden to a fixed outcome.
type forcedOutcome struct {
	child   *bt.Node
	outcome bt.Status
}

func (d *forcedOutcome) Tick() (bt.Status, error) {
	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status == bt.Running || status == bt.Skipped {
		return status, nil
	}
	return d.outcome, nil
}

func (d *forcedOutcome) Halt() { haltIfRunning(d.child) }

// ForceSuccess overrides any child completion to Success.
type ForceSuccess struct{ forcedOutcome }

// NewForceSuccess wraps child in a ForceSuccess.
func NewForceSuccess(child *bt.Node) *ForceSuccess {
	return &ForceSuccess{forcedOutcome{child: child, outcome: bt.Success}}
}

// ForceFailure overrides any child completion to Failure.
type ForceFailure struct{ forcedOutcome }

// NewForceFailure wraps child in a ForceFailure.
func NewForceFailure(child *bt.Node) *ForceFailure {
	return &ForceFailure{forcedOutcome{child: child, outcome: bt.Failure}}
}

// KeepRunningUntilFailure re-ticks child on every Success, only completing
// once child returns Failure.
type KeepRunningUntilFailure struct {
	child *bt.Node
}

// NewKeepRunningUntilFailure wraps child.
func NewKeepRunningUntilFailure(child *bt.Node) *KeepRunningUntilFailure {
	return &KeepRunningUntilFailure{child: child}
}

func (d *KeepRunningUntilFailure) Tick() (bt.Status, error) {
	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	switch status {
	case bt.Failure:
		return bt.Failure, nil
	case bt.Skipped:
		return bt.Skipped, nil
	default:
		return bt.Running, nil
	}
}

func (d *KeepRunningUntilFailure) Halt() { haltIfRunning(d.child) }

// RunOnce runs child to completion on its first tick, then forever returns
// the remembered result without re-ticking; optionally it can instead
// return Skipped on every tick after the first.
type RunOnce struct {
	child      *bt.Node
	skipAfter  bool
	done       bool
	remembered bt.Status
}

// NewRunOnce wraps child. When skipAfter is true, ticks after the first
// return Skipped instead of the remembered result.
func NewRunOnce(child *bt.Node, skipAfter bool) *RunOnce {
	return &RunOnce{child: child, skipAfter: skipAfter}
}

func (d *RunOnce) Tick() (bt.Status, error) {
	if d.done {
		if d.skipAfter {
			return bt.Skipped, nil
		}
		return d.remembered, nil
	}
	status, err := d.child.ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status == bt.Running {
		return bt.Running, nil
	}
	d.done = true
	d.remembered = status
	return status, nil
}

func (d *RunOnce) Halt() { haltIfRunning(d.child) }
