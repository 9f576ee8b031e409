package control

import "github.com/thicketbt/thicket/bt"

// IfThenElse has exactly 2 or 3 children: child 0 is the condition, child 1
// the "then" branch, and the optional child 2 the "else" branch. The
// condition is only re-evaluated once no branch is active, in contrast
// with the reactive WhileDoElse.
type IfThenElse struct {
	children []*bt.Node
	active   int
}

// NewIfThenElse builds an IfThenElse over children, which must number 2
// or 3.
func NewIfThenElse(children []*bt.Node) (*IfThenElse, error) {
	if len(children) != 2 && len(children) != 3 {
		return nil, bt.ChildCountError("IfThenElse", "2 or 3 children", len(children))
	}
	return &IfThenElse{children: children, active: -1}, nil
}

func (n *IfThenElse) Tick() (bt.Status, error) {
	if n.active == -1 {
		condStatus, err := n.children[0].ExecuteTick()
		if err != nil {
			return bt.Idle, err
		}
		switch condStatus {
		case bt.Running:
			return bt.Running, nil
		case bt.Skipped:
			resetAllIdle(n.children)
			return bt.Skipped, nil
		case bt.Success:
			n.active = 1
		case bt.Failure:
			if len(n.children) < 3 {
				resetAllIdle(n.children)
				return bt.Failure, nil
			}
			n.active = 2
		default:
			return bt.Idle, bt.NewRuntimeError("IfThenElse: condition returned Idle")
		}
	}

	status, err := n.children[n.active].ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status == bt.Running {
		return bt.Running, nil
	}
	n.active = -1
	resetAllIdle(n.children)
	return status, nil
}

func (n *IfThenElse) Halt() {
	if n.active != -1 {
		haltRunning(n.children[n.active])
	} else {
		haltRunning(n.children[0])
	}
	n.active = -1
}

// WhileDoElse is the reactive variant of IfThenElse: the condition is
// re-ticked on every tick; if it flips while a branch is Running, that
// branch is halted before the newly selected branch is ticked.
type WhileDoElse struct {
	children []*bt.Node
	active   int
}

// NewWhileDoElse builds a WhileDoElse over children, which must number 2
// or 3.
func NewWhileDoElse(children []*bt.Node) (*WhileDoElse, error) {
	if len(children) != 2 && len(children) != 3 {
		return nil, bt.ChildCountError("WhileDoElse", "2 or 3 children", len(children))
	}
	return &WhileDoElse{children: children, active: -1}, nil
}

func (n *WhileDoElse) Tick() (bt.Status, error) {
	condStatus, err := n.children[0].ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}

	var branch int
	switch condStatus {
	case bt.Running:
		return bt.Running, nil
	case bt.Skipped:
		resetAllIdle(n.children)
		return bt.Skipped, nil
	case bt.Success:
		branch = 1
	case bt.Failure:
		if len(n.children) < 3 {
			if n.active != -1 {
				haltRunning(n.children[n.active])
				n.active = -1
			}
			resetAllIdle(n.children)
			return bt.Failure, nil
		}
		branch = 2
	default:
		return bt.Idle, bt.NewRuntimeError("WhileDoElse: condition returned Idle")
	}

	if n.active != -1 && n.active != branch {
		haltRunning(n.children[n.active])
	}
	n.active = branch
	status, err := n.children[branch].ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status != bt.Running {
		n.active = -1
		resetAllIdle(n.children)
	}
	return status, nil
}

func (n *WhileDoElse) Halt() {
	if n.active != -1 {
		haltRunning(n.children[n.active])
	}
	haltRunning(n.children[0])
	n.active = -1
}
