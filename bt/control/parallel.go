package control

import "github.com/thicketbt/thicket/bt"

// Parallel ticks every not-yet-completed child every tick, completing as
// soon as either the success or failure threshold is crossed and halting
// any children still Running. Thresholds read
// the success_count/failure_count ports (defaults -1/1) resolved through
// resolveThreshold.
type Parallel struct {
	cfg       bt.NodeConfig
	children  []*bt.Node
	completed map[int]bt.Status
}

// NewParallel builds a Parallel over children, reading thresholds from
// cfg's success_count/failure_count ports on each tick.
func NewParallel(cfg bt.NodeConfig, children []*bt.Node) *Parallel {
	return &Parallel{cfg: cfg, children: children, completed: map[int]bt.Status{}}
}

func (p *Parallel) Tick() (bt.Status, error) {
	successRaw, err := intPort(&p.cfg, "success_count", -1)
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Parallel: resolving success_count port")
	}
	failureRaw, err := intPort(&p.cfg, "failure_count", 1)
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Parallel: resolving failure_count port")
	}
	n := len(p.children)
	successThreshold := resolveThreshold(successRaw, n)
	failureThreshold := resolveThreshold(failureRaw, n)
	if successThreshold > n {
		return bt.Idle, bt.NewLogicError("Parallel: success_count %d exceeds %d children", successThreshold, n)
	}

	successes, failures, skips := 0, 0, 0
	for i, child := range p.children {
		if status, done := p.completed[i]; done {
			tallyParallel(status, &successes, &failures, &skips)
			continue
		}
		status, err := child.ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		switch status {
		case bt.Running:
		case bt.Success, bt.Failure, bt.Skipped:
			p.completed[i] = status
			tallyParallel(status, &successes, &failures, &skips)
		default:
			return bt.Idle, bt.NewRuntimeError("Parallel: child returned Idle")
		}
	}

	switch {
	case successes >= successThreshold:
		p.finish()
		return bt.Success, nil
	case failures >= failureThreshold:
		p.finish()
		return bt.Failure, nil
	case skips == n:
		resetAllIdle(p.children)
		p.completed = map[int]bt.Status{}
		return bt.Skipped, nil
	}
	return bt.Running, nil
}

func tallyParallel(status bt.Status, successes, failures, skips *int) {
	switch status {
	case bt.Success:
		*successes++
	case bt.Failure:
		*failures++
	case bt.Skipped:
		*skips++
	}
}

func (p *Parallel) finish() {
	resetAllIdle(p.children)
	p.completed = map[int]bt.Status{}
}

func (p *Parallel) Halt() {
	resetAllIdle(p.children)
	p.completed = map[int]bt.Status{}
}

// ParallelAll ticks every not-yet-completed child every tick with no early
// termination, completing only once every child has reached a terminal
// status. Returns Failure if failures reach max_failures (default 1,
// Python-indexed), else Success.
type ParallelAll struct {
	cfg       bt.NodeConfig
	children  []*bt.Node
	completed map[int]bt.Status
}

// NewParallelAll builds a ParallelAll over children.
func NewParallelAll(cfg bt.NodeConfig, children []*bt.Node) *ParallelAll {
	return &ParallelAll{cfg: cfg, children: children, completed: map[int]bt.Status{}}
}

func (p *ParallelAll) Tick() (bt.Status, error) {
	maxFailuresRaw, err := intPort(&p.cfg, "max_failures", 1)
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "ParallelAll: resolving max_failures port")
	}
	maxFailures := resolveThreshold(maxFailuresRaw, len(p.children))

	failures := 0
	allDone := true
	for i, child := range p.children {
		if status, done := p.completed[i]; done {
			if status == bt.Failure {
				failures++
			}
			continue
		}
		status, err := child.ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		if status == bt.Running {
			allDone = false
			continue
		}
		p.completed[i] = status
		if status == bt.Failure {
			failures++
		}
	}

	if !allDone {
		return bt.Running, nil
	}
	resetAllIdle(p.children)
	p.completed = map[int]bt.Status{}
	if failures >= maxFailures {
		return bt.Failure, nil
	}
	return bt.Success, nil
}

func (p *ParallelAll) Halt() {
	resetAllIdle(p.children)
	p.completed = map[int]bt.Status{}
}
