// Package control implements the multi-child composite nodes: Sequence,
// SequenceWithMemory, Fallback, ReactiveSequence, ReactiveFallback,
// Parallel, ParallelAll, IfThenElse, WhileDoElse, and Switch<N>.
package control

import (
	"reflect"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/port"
)

// intPort resolves an int64 input port, defaulting to def when unbound,
// consulting the node's manifest for a declared PortInfo if present.
func intPort(cfg *bt.NodeConfig, name string, def int64) (int64, error) {
	raw, hasRaw := cfg.InputPorts[name]
	info := anyvalue.PortInfo{
		Name:       name,
		TypeInfo:   anyvalue.TypeInfoFor(reflect.TypeOf(int64(0))),
		HasDefault: true,
		Default:    anyvalue.New(def),
	}
	if cfg.Manifest != nil {
		if m, ok := cfg.Manifest.PortByName(name); ok {
			info = m
		}
	}
	return port.ReadInput[int64](cfg.Blackboard, name, raw, hasRaw, info)
}

// resolveThreshold applies the Python-style negative-index convention used
// by Parallel/ParallelAll thresholds: a negative value
// counts back from childCount+1, so -1 means "all children".
func resolveThreshold(value int64, childCount int) int {
	if value < 0 {
		return childCount + int(value) + 1
	}
	return int(value)
}

// haltRunning halts c if it is currently Running; a no-op otherwise.
func haltRunning(c *bt.Node) {
	if c.Status() == bt.Running {
		c.Halt()
	}
}

// haltAllRunning halts every Running child in children.
func haltAllRunning(children []*bt.Node) {
	for _, c := range children {
		haltRunning(c)
	}
}

// resetAllIdle halts any Running child and force-resets every child
// (including already-completed ones) back to Idle, the common reset
// invariant every composite uses.
func resetAllIdle(children []*bt.Node) {
	for _, c := range children {
		haltRunning(c)
		c.ForceIdle()
	}
}
