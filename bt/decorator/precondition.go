package decorator

import (
	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/script"
)

// Precondition evaluates its "if" port as a script expression; if truthy
// it ticks child and passes the result through, else it returns elseStatus
// without ticking child, generalizing the inline
// _successIf/_failureIf/_skipIf attributes to a standalone node.
type Precondition struct {
	cfg        bt.NodeConfig
	cache      *script.Cache
	child      *bt.Node
	elseStatus bt.Status
	lastCode   string
	compiled   script.Node
}

// NewPrecondition wraps child, evaluating the "if" port on every tick.
func NewPrecondition(cfg bt.NodeConfig, cache *script.Cache, child *bt.Node, elseStatus bt.Status) *Precondition {
	return &Precondition{cfg: cfg, cache: cache, child: child, elseStatus: elseStatus}
}

func (d *Precondition) Tick() (bt.Status, error) {
	code, err := stringPort(&d.cfg, "if")
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Precondition: resolving 'if' port")
	}
	if d.compiled == nil || code != d.lastCode {
		compiled, err := d.cache.Compile(code)
		if err != nil {
			return bt.Idle, bt.WrapLogicError(err, "Precondition: compiling %q", code)
		}
		d.compiled, d.lastCode = compiled, code
	}
	result, err := script.Eval(d.compiled, d.cfg.Blackboard, d.cfg.Enums)
	if err != nil {
		return bt.Idle, bt.WrapRuntimeError(err, "Precondition: evaluating 'if'")
	}
	truthy, err := anyvalue.IsTrue(result)
	if err != nil {
		return bt.Idle, bt.WrapLogicError(err, "Precondition: 'if' result is not boolean-like")
	}
	if !truthy {
		haltIfRunning(d.child)
		return d.elseStatus, nil
	}
	return d.child.ExecuteTick()
}

func (d *Precondition) Halt() { haltIfRunning(d.child) }
