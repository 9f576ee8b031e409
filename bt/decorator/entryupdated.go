package decorator

import (
	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/bt"
)

// EntryWatcher compares the last seen sequence_id of a named blackboard
// entry against its current one; if changed, it ticks child and
// remembers the new sequence_id; if unchanged, it returns a fixed status
// without ticking child at all. Backs the EntryUpdated,
// SkipUnlessUpdated, and WaitValueUpdate node types.
type EntryWatcher struct {
	bb              *blackboard.Blackboard
	key             string
	child           *bt.Node
	unchangedStatus bt.Status
	lastSeen        uint64
	haveSeen        bool
}

// NewEntryUpdated returns Failure while key is unchanged, else ticks
// child.
func NewEntryUpdated(cfg bt.NodeConfig, key string, child *bt.Node) *EntryWatcher {
	return &EntryWatcher{bb: cfg.Blackboard, key: key, child: child, unchangedStatus: bt.Failure}
}

// NewSkipUnlessUpdated returns Skipped while key is unchanged, else ticks
// child.
func NewSkipUnlessUpdated(cfg bt.NodeConfig, key string, child *bt.Node) *EntryWatcher {
	return &EntryWatcher{bb: cfg.Blackboard, key: key, child: child, unchangedStatus: bt.Skipped}
}

// NewWaitValueUpdate returns Running while key is unchanged, ticking
// child exactly once per observed update.
func NewWaitValueUpdate(cfg bt.NodeConfig, key string, child *bt.Node) *EntryWatcher {
	return &EntryWatcher{bb: cfg.Blackboard, key: key, child: child, unchangedStatus: bt.Running}
}

func (d *EntryWatcher) Tick() (bt.Status, error) {
	seq, err := d.bb.SequenceID(d.key)
	if err != nil || (d.haveSeen && seq == d.lastSeen) {
		return d.unchangedStatus, nil
	}
	d.lastSeen = seq
	d.haveSeen = true
	return d.child.ExecuteTick()
}

func (d *EntryWatcher) Halt() { haltIfRunning(d.child) }
