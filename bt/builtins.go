package bt

import (
	"reflect"
	"time"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/port"
	"github.com/thicketbt/thicket/script"
	"github.com/thicketbt/thicket/timer"
)

func portInfoFor(cfg *NodeConfig, name string) anyvalue.PortInfo {
	if cfg.Manifest != nil {
		if info, ok := cfg.Manifest.PortByName(name); ok {
			return info
		}
	}
	return anyvalue.PortInfo{Name: name}
}

func stringPortInfo(cfg *NodeConfig, name string) anyvalue.PortInfo {
	info := portInfoFor(cfg, name)
	if info.Declared == nil {
		info.TypeInfo = anyvalue.TypeInfoFor(reflect.TypeOf(""))
	}
	return info
}

// NewAlwaysSuccess builds a leaf that always returns Success.
func NewAlwaysSuccess(cfg NodeConfig) *Node {
	return New(cfg, NewSyncAction(func() (Status, error) { return Success, nil }))
}

// NewAlwaysFailure builds a leaf that always returns Failure.
func NewAlwaysFailure(cfg NodeConfig) *Node {
	return New(cfg, NewSyncAction(func() (Status, error) { return Failure, nil }))
}

// NewSetBlackboard builds a leaf that copies its "value" input port
// (literal or pointer, any type) into its "output_key" output port,
// preserving the source's declared type.
func NewSetBlackboard(cfg NodeConfig) *Node {
	c := cfg
	impl := NewSyncAction(func() (Status, error) {
		raw, hasRaw := c.InputPorts["value"]
		value, err := port.ReadInputAny(c.Blackboard, "value", raw, hasRaw, portInfoFor(&c, "value"))
		if err != nil {
			return Idle, WrapRuntimeError(err, "SetBlackboard: reading value port")
		}
		outRaw, outHasRaw := c.OutputPorts["output_key"]
		if err := port.WriteOutput(c.Blackboard, "output_key", outRaw, outHasRaw, value); err != nil {
			return Idle, WrapRuntimeError(err, "SetBlackboard: writing output_key port")
		}
		return Success, nil
	})
	return New(cfg, impl)
}

// NewUnsetBlackboard builds a leaf that removes the blackboard key bound
// to its "key" port.
func NewUnsetBlackboard(cfg NodeConfig) *Node {
	c := cfg
	impl := NewSyncAction(func() (Status, error) {
		raw, hasRaw := c.InputPorts["key"]
		if !hasRaw {
			return Idle, NewRuntimeError("UnsetBlackboard: 'key' port not bound")
		}
		ptr, isPtr := port.ParsePointer(raw)
		if !isPtr {
			return Idle, NewRuntimeError("UnsetBlackboard: 'key' port %q is not a blackboard pointer", raw)
		}
		c.Blackboard.Unset(ptr.ResolveKey("key"))
		return Success, nil
	})
	return New(cfg, impl)
}

// scriptLeaf is shared machinery for Script and ScriptCondition: resolve
// the "code" port's current text, recompiling only when it differs from
// the last seen text.
type scriptLeaf struct {
	cfg      *NodeConfig
	cache    *script.Cache
	lastCode string
	compiled script.Node
}

func (s *scriptLeaf) run() (anyvalue.Any, error) {
	raw, hasRaw := s.cfg.InputPorts["code"]
	code, err := port.ReadInput[string](s.cfg.Blackboard, "code", raw, hasRaw, stringPortInfo(s.cfg, "code"))
	if err != nil {
		return anyvalue.Any{}, WrapRuntimeError(err, "resolving 'code' port")
	}
	if s.compiled == nil || code != s.lastCode {
		compiled, err := s.cache.Compile(code)
		if err != nil {
			return anyvalue.Any{}, WrapLogicError(err, "compiling script %q", code)
		}
		s.compiled, s.lastCode = compiled, code
	}
	result, err := script.Eval(s.compiled, s.cfg.Blackboard, s.cfg.Enums)
	if err != nil {
		return anyvalue.Any{}, WrapRuntimeError(err, "evaluating script")
	}
	return result, nil
}

// NewScript builds a leaf that evaluates its "code" port for side effect
// and always returns Success.
func NewScript(cfg NodeConfig, cache *script.Cache) *Node {
	c := cfg
	leaf := &scriptLeaf{cfg: &c, cache: cache}
	impl := NewSyncAction(func() (Status, error) {
		if _, err := leaf.run(); err != nil {
			return Idle, err
		}
		return Success, nil
	})
	return New(cfg, impl)
}

// NewScriptCondition builds a leaf that evaluates its "code" port and
// casts the result to bool, returning Success/Failure accordingly.
func NewScriptCondition(cfg NodeConfig, cache *script.Cache) *Node {
	c := cfg
	leaf := &scriptLeaf{cfg: &c, cache: cache}
	impl := NewCondition(func() (bool, error) {
		result, err := leaf.run()
		if err != nil {
			return false, err
		}
		ok, err := anyvalue.IsTrue(result)
		if err != nil {
			return false, WrapRuntimeError(err, "ScriptCondition: result not boolean-coercible")
		}
		return ok, nil
	})
	return New(cfg, impl)
}

// NewSleep builds a stateful leaf that schedules a timer on its "msec"
// port at first tick, stays Running until it fires, then returns Success;
// halting while running cancels the pending timer.
func NewSleep(cfg NodeConfig, queue *timer.Queue) *Node {
	c := cfg
	var fired bool
	var timerID uint64
	var active bool

	funcs := StatefulFuncs{
		OnStart: func() (Status, error) {
			raw, hasRaw := c.InputPorts["msec"]
			info := portInfoFor(&c, "msec")
			if info.Declared == nil {
				info.TypeInfo = anyvalue.TypeInfoFor(reflect.TypeOf(int64(0)))
			}
			ms, err := port.ReadInput[int64](c.Blackboard, "msec", raw, hasRaw, info)
			if err != nil {
				return Idle, WrapRuntimeError(err, "Sleep: resolving 'msec' port")
			}
			fired = false
			active = true
			timerID = queue.Schedule(time.Duration(ms)*time.Millisecond, func(aborted bool) {
				if !aborted {
					fired = true
				}
			})
			return Running, nil
		},
		OnRunning: func() (Status, error) {
			if fired {
				active = false
				return Success, nil
			}
			return Running, nil
		},
		OnHalt: func() {
			if active {
				queue.Cancel(timerID)
				active = false
			}
		},
	}
	return New(cfg, NewStatefulAction(funcs))
}

// TestNodeConfig configures a TestNode's scripted stand-in behavior,
// used by factory substitution rules to stub out a real node for tests.
type TestNodeConfig struct {
	ReturnStatus Status
	AsyncDelay   time.Duration
	OnSuccess    script.Node
	OnFailure    script.Node
	PostScript   script.Node
}

// NewTestNode builds a leaf that returns a fixed status, optionally after
// an async delay driven by a timer, running configured scripts on
// completion.
func NewTestNode(cfg NodeConfig, tc TestNodeConfig, queue *timer.Queue) *Node {
	c := cfg
	runScripts := func(result Status) error {
		var node script.Node
		switch result {
		case Success:
			node = tc.OnSuccess
		case Failure:
			node = tc.OnFailure
		}
		if node != nil {
			if _, err := script.Eval(node, c.Blackboard, c.Enums); err != nil {
				return WrapRuntimeError(err, "TestNode: evaluating completion script")
			}
		}
		if tc.PostScript != nil {
			if _, err := script.Eval(tc.PostScript, c.Blackboard, c.Enums); err != nil {
				return WrapRuntimeError(err, "TestNode: evaluating post script")
			}
		}
		return nil
	}

	if tc.AsyncDelay <= 0 {
		return New(cfg, NewSyncAction(func() (Status, error) {
			if err := runScripts(tc.ReturnStatus); err != nil {
				return Idle, err
			}
			return tc.ReturnStatus, nil
		}))
	}

	var fired bool
	var timerID uint64
	var active bool
	funcs := StatefulFuncs{
		OnStart: func() (Status, error) {
			fired = false
			active = true
			timerID = queue.Schedule(tc.AsyncDelay, func(aborted bool) {
				if !aborted {
					fired = true
				}
			})
			return Running, nil
		},
		OnRunning: func() (Status, error) {
			if !fired {
				return Running, nil
			}
			active = false
			if err := runScripts(tc.ReturnStatus); err != nil {
				return Idle, err
			}
			return tc.ReturnStatus, nil
		},
		OnHalt: func() {
			if active {
				queue.Cancel(timerID)
				active = false
			}
		},
	}
	return New(cfg, NewStatefulAction(funcs))
}
