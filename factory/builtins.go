package factory

import (
	"reflect"
	"strconv"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/bt/control"
	"github.com/thicketbt/thicket/bt/decorator"
	"github.com/thicketbt/thicket/port"
)

func stringPort(name string) anyvalue.PortInfo {
	return anyvalue.PortInfo{Name: name, TypeInfo: anyvalue.TypeInfoFor(reflect.TypeOf(""))}
}

func intPort(name string, def int64) anyvalue.PortInfo {
	return anyvalue.PortInfo{
		Name: name, TypeInfo: anyvalue.TypeInfoFor(reflect.TypeOf(int64(0))),
		HasDefault: true, Default: anyvalue.New(def),
	}
}

// anyPort declares a port that accepts values of any type: a blackboard
// pointer dereferences and preserves whatever type is actually stored
// there, while a literal is taken verbatim as a string. SetBlackboard's
// "preserve type when copying between ports" behavior applies to the
// pointer form; a bare literal has no other type to infer.
func anyPort(name string) anyvalue.PortInfo {
	return stringPort(name)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// RegisterBuiltins seeds f's registry with every built-in leaf, composite,
// and decorator node type, as a single setup function run once against a
// fresh Factory.
func RegisterBuiltins(f *Factory) {
	registerLeaves(f)
	registerComposites(f)
	registerDecorators(f)
}

func registerLeaves(f *Factory) {
	must(f.registerBuiltin("AlwaysSuccess", port.KindAction, nil, func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) {
		return bt.NewAlwaysSuccess(cfg), nil
	}))
	must(f.registerBuiltin("AlwaysFailure", port.KindAction, nil, func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) {
		return bt.NewAlwaysFailure(cfg), nil
	}))
	must(f.registerBuiltin("SetBlackboard", port.KindAction, []anyvalue.PortInfo{anyPort("value"), anyPort("output_key")},
		func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) { return bt.NewSetBlackboard(cfg), nil }))
	must(f.registerBuiltin("UnsetBlackboard", port.KindAction, []anyvalue.PortInfo{anyPort("key")},
		func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) { return bt.NewUnsetBlackboard(cfg), nil }))
	must(f.registerBuiltin("Script", port.KindAction, []anyvalue.PortInfo{stringPort("code")},
		func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) { return bt.NewScript(cfg, f.scriptCache), nil }))
	must(f.registerBuiltin("ScriptCondition", port.KindCondition, []anyvalue.PortInfo{stringPort("code")},
		func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) { return bt.NewScriptCondition(cfg, f.scriptCache), nil }))
	must(f.registerBuiltin("Sleep", port.KindAction, []anyvalue.PortInfo{intPort("msec", 0)},
		func(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) { return bt.NewSleep(cfg, f.timerQueue), nil }))
}

func registerComposites(f *Factory) {
	must(f.registerBuiltin("Sequence", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, control.NewSequence(children)), nil
	}))
	must(f.registerBuiltin("SequenceWithMemory", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, control.NewSequenceWithMemory(children)), nil
	}))
	must(f.registerBuiltin("Fallback", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, control.NewFallback(children)), nil
	}))
	must(f.registerBuiltin("ReactiveSequence", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, control.NewReactiveSequence(children, true)), nil
	}))
	must(f.registerBuiltin("ReactiveFallback", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, control.NewReactiveFallback(children, true)), nil
	}))
	must(f.registerBuiltin("Parallel", port.KindControl, []anyvalue.PortInfo{intPort("success_count", -1), intPort("failure_count", 1)},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, control.NewParallel(cfg, children)), nil
		}))
	must(f.registerBuiltin("ParallelAll", port.KindControl, []anyvalue.PortInfo{intPort("max_failures", 1)},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, control.NewParallelAll(cfg, children)), nil
		}))
	must(f.registerBuiltin("IfThenElse", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		impl, err := control.NewIfThenElse(children)
		if err != nil {
			return nil, err
		}
		return bt.New(cfg, impl), nil
	}))
	must(f.registerBuiltin("WhileDoElse", port.KindControl, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		impl, err := control.NewWhileDoElse(children)
		if err != nil {
			return nil, err
		}
		return bt.New(cfg, impl), nil
	}))
	must(f.registerBuiltin("Switch", port.KindControl, []anyvalue.PortInfo{stringPort("variable")},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			impl, err := control.NewSwitch(cfg, children, switchCaseCount(cfg))
			if err != nil {
				return nil, err
			}
			return bt.New(cfg, impl), nil
		}))
}

// switchCaseCount derives N from the model element's case_1..case_N
// attrs, which already populate cfg.InputPorts by the time a builder
// runs.
func switchCaseCount(cfg bt.NodeConfig) int {
	n := 0
	for {
		key := "case_" + strconv.Itoa(n+1)
		if _, ok := cfg.InputPorts[key]; !ok {
			break
		}
		n++
	}
	return n
}

func registerDecorators(f *Factory) {
	must(f.registerBuiltin("Inverter", port.KindDecorator, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, decorator.NewInverter(children[0])), nil
	}))
	must(f.registerBuiltin("ForceSuccess", port.KindDecorator, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, decorator.NewForceSuccess(children[0])), nil
	}))
	must(f.registerBuiltin("ForceFailure", port.KindDecorator, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, decorator.NewForceFailure(children[0])), nil
	}))
	must(f.registerBuiltin("KeepRunningUntilFailure", port.KindDecorator, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		return bt.New(cfg, decorator.NewKeepRunningUntilFailure(children[0])), nil
	}))
	must(f.registerBuiltin("RunOnce", port.KindDecorator, nil, func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
		_, skipAfter := cfg.InputPorts["skip_after"]
		return bt.New(cfg, decorator.NewRunOnce(children[0], skipAfter)), nil
	}))
	must(f.registerBuiltin("Repeat", port.KindDecorator, []anyvalue.PortInfo{intPort("num_cycles", -1)},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewRepeat(cfg, children[0])), nil
		}))
	must(f.registerBuiltin("Retry", port.KindDecorator, []anyvalue.PortInfo{intPort("num_attempts", -1)},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewRetry(cfg, children[0])), nil
		}))
	must(f.registerBuiltin("Timeout", port.KindDecorator, []anyvalue.PortInfo{intPort("msec", 0)},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewTimeout(cfg, children[0], f.timerQueue)), nil
		}))
	must(f.registerBuiltin("Delay", port.KindDecorator, []anyvalue.PortInfo{intPort("delay_msec", 0)},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewDelay(cfg, children[0], f.timerQueue)), nil
		}))
	must(f.registerBuiltin("Precondition", port.KindDecorator, []anyvalue.PortInfo{stringPort("if")},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewPrecondition(cfg, f.scriptCache, children[0], bt.Failure)), nil
		}))
	must(f.registerBuiltin("EntryUpdated", port.KindDecorator, []anyvalue.PortInfo{stringPort("entry")},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewEntryUpdated(cfg, cfg.InputPorts["entry"], children[0])), nil
		}))
	must(f.registerBuiltin("SkipUnlessUpdated", port.KindDecorator, []anyvalue.PortInfo{stringPort("entry")},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewSkipUnlessUpdated(cfg, cfg.InputPorts["entry"], children[0])), nil
		}))
	must(f.registerBuiltin("WaitValueUpdate", port.KindDecorator, []anyvalue.PortInfo{stringPort("entry")},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return bt.New(cfg, decorator.NewWaitValueUpdate(cfg, cfg.InputPorts["entry"], children[0])), nil
		}))
	must(f.registerBuiltin("Loop", port.KindDecorator, []anyvalue.PortInfo{anyPort("queue"), anyPort("value"), stringPort("if_empty")},
		func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error) {
			return buildLoop(cfg, children[0])
		}))
}

// buildLoop instantiates the Loop decorator over anyvalue.Any items: its
// "queue" port must resolve to a *decorator.ItemQueue[anyvalue.Any]
// already placed on the blackboard when the tree is instantiated (buildLoop
// resolves it here, not at tick time), since the tree model has no syntax
// for an arbitrary Go-typed literal.
func buildLoop(cfg bt.NodeConfig, child *bt.Node) (*bt.Node, error) {
	raw, hasRaw := cfg.InputPorts["queue"]
	value, err := port.ReadInputAny(cfg.Blackboard, "queue", raw, hasRaw, anyPort("queue"))
	if err != nil {
		return nil, bt.WrapRuntimeError(err, "Loop: resolving queue port")
	}
	queue, err := anyvalue.TryCast[*decorator.ItemQueue[anyvalue.Any]](value)
	if err != nil {
		return nil, bt.WrapRuntimeError(err, "Loop: queue port is not an ItemQueue[Any]")
	}
	ifEmpty := bt.Success
	if text, ok := cfg.InputPorts["if_empty"]; ok {
		ifEmpty = parseStatusName(text, bt.Success)
	}
	return bt.New(cfg, decorator.NewLoop[anyvalue.Any](cfg, queue, child, ifEmpty)), nil
}

func parseStatusName(text string, def bt.Status) bt.Status {
	switch text {
	case "Success":
		return bt.Success
	case "Failure":
		return bt.Failure
	case "Running":
		return bt.Running
	case "Skipped":
		return bt.Skipped
	default:
		return def
	}
}
