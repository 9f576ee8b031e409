// Package decorator implements the single-child wrapper nodes: Inverter,
// ForceSuccess, ForceFailure, Repeat, Retry, KeepRunningUntilFailure,
// RunOnce, Timeout, Delay, Loop, Precondition, Subtree, and the
// EntryUpdated/SkipUnlessUpdated/WaitValueUpdate family.
package decorator

import (
	"reflect"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/port"
)

func haltIfRunning(c *bt.Node) {
	if c.Status() == bt.Running {
		c.Halt()
	}
}

// intPort resolves an int64 input port, defaulting to def when unbound.
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

// stringPort resolves a string input port with no default.
func stringPort(cfg *bt.NodeConfig, name string) (string, error) {
	raw, hasRaw := cfg.InputPorts[name]
	info := anyvalue.PortInfo{Name: name, TypeInfo: anyvalue.TypeInfoFor(reflect.TypeOf(""))}
	if cfg.Manifest != nil {
		if m, ok := cfg.Manifest.PortByName(name); ok {
			info = m
		}
	}
	return port.ReadInput[string](cfg.Blackboard, name, raw, hasRaw, info)
}
