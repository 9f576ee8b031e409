package control

import "github.com/thicketbt/thicket/bt"

// Fallback is symmetric to Sequence with Success and Failure swapped:
// it ticks children until one succeeds (or the
// list is exhausted), advancing past Failure and Skipped, stopping on
// Running.
type Fallback struct {
	children        []*bt.Node
	index           int
	allSkippedSoFar bool
}

// NewFallback builds a Fallback over children.
func NewFallback(children []*bt.Node) *Fallback {
	return &Fallback{children: children, allSkippedSoFar: true}
}

func (f *Fallback) Tick() (bt.Status, error) {
	for f.index < len(f.children) {
		status, err := f.children[f.index].ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		switch status {
		case bt.Failure:
			f.allSkippedSoFar = false
			f.index++
		case bt.Skipped:
			f.index++
		case bt.Running:
			return bt.Running, nil
		case bt.Success:
			resetAllIdle(f.children)
			f.index = 0
			f.allSkippedSoFar = true
			return bt.Success, nil
		default:
			return bt.Idle, bt.NewRuntimeError("Fallback: child returned Idle")
		}
	}
	result := bt.Failure
	if f.allSkippedSoFar {
		result = bt.Skipped
	}
	resetAllIdle(f.children)
	f.index = 0
	f.allSkippedSoFar = true
	return result, nil
}

func (f *Fallback) Halt() {
	if f.index < len(f.children) {
		haltRunning(f.children[f.index])
	}
	f.index = 0
	f.allSkippedSoFar = true
}
