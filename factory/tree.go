package factory

import (
	"fmt"
	"time"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/wakeup"
)

// Subtree is one blackboard-owning unit of a Tree: its own blackboard and
// every node instance built against it, root first. InstanceName is the
// subtree's declared name (the main tree's own name, or a nested Subtree
// node's label) and is stable across re-instantiations of the same tree
// definition; TreeID is a fresh identifier minted for this particular
// instantiation, distinguishing two live instances of the same
// InstanceName (e.g. two concurrently running copies of the same
// sub-behavior).
type Subtree struct {
	InstanceName string
	TreeID       string
	Blackboard   *blackboard.Blackboard
	Nodes        []*bt.Node
}

// Root returns the subtree's root node.
func (s *Subtree) Root() *bt.Node { return s.Nodes[0] }

// Tree is a live, instantiated behavior tree: an ordered list of subtrees
// (the main tree first, nested Subtree nodes following in build order)
// plus the wake-up signal drivers sleep against.
type Tree struct {
	Subtrees []*Subtree
	Wake     *wakeup.Signal
}

// Root returns the main tree's root node.
func (t *Tree) Root() *bt.Node { return t.Subtrees[0].Root() }

// TickExactlyOnce ticks the root once, resetting it to Idle if it
// completed.
func (t *Tree) TickExactlyOnce() (bt.Status, error) {
	status, err := t.Root().ExecuteTick()
	if err != nil {
		return status, err
	}
	if status.Completed() {
		t.Root().ForceIdle()
	}
	return status, nil
}

// TickOnce ticks the root; while the result is Running and the wake-up
// signal was raised since (non-blocking poll), it re-ticks.
func (t *Tree) TickOnce() (bt.Status, error) {
	for {
		status, err := t.Root().ExecuteTick()
		if err != nil {
			return status, err
		}
		if status != bt.Running || !t.Wake.Poll() {
			return status, nil
		}
	}
}

// TickWhileRunning loops: tick; if Running, sleep on the wake-up signal
// for up to sleepTime; exit once the status is a terminal outcome.
// sleepTime <= 0 waits indefinitely for a wake-up between Running ticks.
func (t *Tree) TickWhileRunning(sleepTime time.Duration) (bt.Status, error) {
	for {
		status, err := t.Root().ExecuteTick()
		if err != nil {
			return status, err
		}
		if status != bt.Running {
			return status, nil
		}
		t.Wake.WaitFor(sleepTime)
	}
}

// HaltTree halts the root (which recursively halts whichever path is
// actually Running) and then forces every node in every subtree back to
// Idle, regardless of its last status.
func (t *Tree) HaltTree() {
	t.Root().Halt()
	for _, st := range t.Subtrees {
		for _, n := range st.Nodes {
			n.ForceIdle()
		}
	}
}

// BlackboardBackup snapshots the values of every subtree blackboard,
// keyed by subtree index, using CloneInto.
func (t *Tree) BlackboardBackup() ([]*blackboard.Blackboard, error) {
	backups := make([]*blackboard.Blackboard, len(t.Subtrees))
	for i, st := range t.Subtrees {
		snap := blackboard.New(nil)
		if err := st.Blackboard.CloneInto(snap); err != nil {
			return nil, thicket.WithStack(err)
		}
		backups[i] = snap
	}
	return backups, nil
}

// BlackboardRestore restores values captured by BlackboardBackup back
// into their originating subtree blackboards. backup must come from a
// BlackboardBackup call against this same Tree.
func (t *Tree) BlackboardRestore(backup []*blackboard.Blackboard) error {
	if len(backup) != len(t.Subtrees) {
		return thicket.WithStack(fmt.Errorf("blackboard_restore: backup has %d subtrees, tree has %d", len(backup), len(t.Subtrees)))
	}
	for i, st := range t.Subtrees {
		if err := backup[i].CloneInto(st.Blackboard); err != nil {
			return thicket.WithStack(err)
		}
	}
	return nil
}
