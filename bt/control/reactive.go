package control

import "github.com/thicketbt/thicket/bt"

// ReactiveSequence re-evaluates every child from index 0 on every tick:
// any Failure halts everything ticked
// so far and fails; the first Running child halts every other child and
// is remembered; all-Success is Success, all-Skipped is Skipped. With
// strict enabled, more than one child returning Running in the same tick
// is a LogicError.
type ReactiveSequence struct {
	children []*bt.Node
	strict   bool
}

// NewReactiveSequence builds a ReactiveSequence over children.
func NewReactiveSequence(children []*bt.Node, strict bool) *ReactiveSequence {
	return &ReactiveSequence{children: children, strict: strict}
}

func (r *ReactiveSequence) Tick() (bt.Status, error) {
	runningIdx := -1
	allSkipped := true
	for i, child := range r.children {
		status, err := child.ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		switch status {
		case bt.Failure:
			resetAllIdle(r.children)
			return bt.Failure, nil
		case bt.Running:
			if runningIdx != -1 {
				if r.strict {
					haltAllRunning(r.children)
					return bt.Idle, bt.NewLogicError("ReactiveSequence: more than one child returned Running in a single tick")
				}
				continue
			}
			runningIdx = i
		case bt.Success:
			allSkipped = false
		case bt.Skipped:
		default:
			return bt.Idle, bt.NewRuntimeError("ReactiveSequence: child returned Idle")
		}
	}
	if runningIdx != -1 {
		for i, c := range r.children {
			if i != runningIdx {
				haltRunning(c)
			}
		}
		return bt.Running, nil
	}
	resetAllIdle(r.children)
	if allSkipped {
		return bt.Skipped, nil
	}
	return bt.Success, nil
}

func (r *ReactiveSequence) Halt() {
	resetAllIdle(r.children)
}

// ReactiveFallback is the dual of ReactiveSequence: Success terminates
// with Success; Failure continues to the next child; Running halts
// siblings; all-Failure is Failure; all-Skipped is Skipped.
type ReactiveFallback struct {
	children []*bt.Node
	strict   bool
}

// NewReactiveFallback builds a ReactiveFallback over children.
func NewReactiveFallback(children []*bt.Node, strict bool) *ReactiveFallback {
	return &ReactiveFallback{children: children, strict: strict}
}

func (r *ReactiveFallback) Tick() (bt.Status, error) {
	runningIdx := -1
	allSkipped := true
	for i, child := range r.children {
		status, err := child.ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		switch status {
		case bt.Success:
			resetAllIdle(r.children)
			return bt.Success, nil
		case bt.Running:
			if runningIdx != -1 {
				if r.strict {
					haltAllRunning(r.children)
					return bt.Idle, bt.NewLogicError("ReactiveFallback: more than one child returned Running in a single tick")
				}
				continue
			}
			runningIdx = i
		case bt.Failure:
			allSkipped = false
		case bt.Skipped:
		default:
			return bt.Idle, bt.NewRuntimeError("ReactiveFallback: child returned Idle")
		}
	}
	if runningIdx != -1 {
		for i, c := range r.children {
			if i != runningIdx {
				haltRunning(c)
			}
		}
		return bt.Running, nil
	}
	resetAllIdle(r.children)
	if allSkipped {
		return bt.Skipped, nil
	}
	return bt.Failure, nil
}

func (r *ReactiveFallback) Halt() {
	resetAllIdle(r.children)
}
