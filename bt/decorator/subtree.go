package decorator

import (
	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/bt"
)

// Subtree transparently ticks a nested tree's root node, toggling the
// nested blackboard's auto-remap fallback for the duration of the tick
// per the instance's "_autoremap" attribute. The
// factory is responsible for building the nested blackboard with the
// right parent/remap wiring before handing it here.
type Subtree struct {
	root      *bt.Node
	bb        *blackboard.Blackboard
	autoRemap bool
}

// NewSubtree wraps root, the instantiated root node of the nested tree,
// whose ports already resolve against bb.
func NewSubtree(root *bt.Node, bb *blackboard.Blackboard, autoRemap bool) *Subtree {
	return &Subtree{root: root, bb: bb, autoRemap: autoRemap}
}

func (d *Subtree) Tick() (bt.Status, error) {
	d.bb.EnableAutoRemapping(d.autoRemap)
	return d.root.ExecuteTick()
}

func (d *Subtree) Halt() { haltIfRunning(d.root) }
