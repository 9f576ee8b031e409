package control

import (
	"fmt"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/port"
	"github.com/thicketbt/thicket/script"
)

// Switch reads input port "variable" and compares it in turn against
// "case_1".."case_N"; the last child (index N) is the default branch.
// Equality is tried as string==string, then as integer (resolving case
// text through the enum registry first), then as a float within epsilon.
// A change of matching branch halts whichever branch was previously
// running.
type Switch struct {
	cfg       bt.NodeConfig
	children  []*bt.Node
	caseCount int
	active    int
}

// NewSwitch builds a Switch over children, which must number caseCount+1
// (the cases plus the trailing default).
func NewSwitch(cfg bt.NodeConfig, children []*bt.Node, caseCount int) (*Switch, error) {
	if len(children) != caseCount+1 {
		return nil, bt.ChildCountError("Switch", fmt.Sprintf("%d children", caseCount+1), len(children))
	}
	return &Switch{cfg: cfg, children: children, caseCount: caseCount, active: -1}, nil
}

func (s *Switch) Tick() (bt.Status, error) {
	varText, varValue, err := switchPortValue(&s.cfg, "variable")
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Switch: resolving 'variable' port")
	}

	matched := s.caseCount // default branch
	for i := 0; i < s.caseCount; i++ {
		name := fmt.Sprintf("case_%d", i+1)
		if _, hasRaw := s.cfg.InputPorts[name]; !hasRaw {
			continue
		}
		caseText, caseValue, err := switchPortValue(&s.cfg, name)
		if err != nil {
			return bt.Idle, bt.WrapRuntimeError(err, "Switch: resolving %q port", name)
		}
		if switchMatches(varText, varValue, caseText, caseValue, s.cfg.Enums) {
			matched = i
			break
		}
	}

	if s.active != -1 && s.active != matched {
		haltRunning(s.children[s.active])
	}
	s.active = matched
	status, err := s.children[matched].ExecuteTick()
	if err != nil {
		return bt.Idle, err
	}
	if status != bt.Running {
		s.active = -1
		resetAllIdle(s.children)
	}
	return status, nil
}

func (s *Switch) Halt() {
	if s.active != -1 {
		haltRunning(s.children[s.active])
	}
	s.active = -1
}

// switchPortValue resolves a Switch port to both its string form (empty if
// not representable as a string) and its raw Any, without going through a
// declared-type converter: Switch ports are usually bare literal tokens
// ("RUNNING", "3") compared loosely, not strongly typed values.
func switchPortValue(cfg *bt.NodeConfig, name string) (string, anyvalue.Any, error) {
	raw, hasRaw := cfg.InputPorts[name]
	if !hasRaw {
		return "", anyvalue.Any{}, fmt.Errorf("port %q not bound", name)
	}
	if ptr, isPtr := port.ParsePointer(raw); isPtr {
		v, err := cfg.Blackboard.GetAny(ptr.ResolveKey(name))
		if err != nil {
			return "", anyvalue.Any{}, err
		}
		text, _ := anyvalue.TryCast[string](v)
		return text, v, nil
	}
	return raw, anyvalue.New(raw), nil
}

func switchAsInt(text string, value anyvalue.Any, enums script.Enums) (int64, bool) {
	if enums != nil && text != "" {
		if v, ok := enums.Lookup(text); ok {
			return v, true
		}
	}
	if i, err := anyvalue.TryCast[int64](value); err == nil {
		return i, true
	}
	return 0, false
}

func switchMatches(varText string, varValue anyvalue.Any, caseText string, caseValue anyvalue.Any, enums script.Enums) bool {
	if varText != "" && caseText != "" && varText == caseText {
		return true
	}
	if vi, vok := switchAsInt(varText, varValue, enums); vok {
		if ci, cok := switchAsInt(caseText, caseValue, enums); cok {
			return vi == ci
		}
	}
	vf, verr := anyvalue.TryCast[float64](varValue)
	cf, cerr := anyvalue.TryCast[float64](caseValue)
	if verr == nil && cerr == nil {
		return anyvalue.Equal(anyvalue.New(vf), anyvalue.New(cf))
	}
	return false
}
