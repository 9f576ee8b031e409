package bt

import (
	"sync"
	"time"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/port"
	"github.com/thicketbt/thicket/script"
)

// PreCond enumerates the pre-tick condition scripts evaluated in
// declaration order.
type PreCond uint8

const (
	FailureIf PreCond = iota
	SuccessIf
	SkipIf
	WhileTrue
)

// PostCond enumerates the post-tick condition scripts.
type PostCond uint8

const (
	OnSuccess PostCond = iota
	OnFailure
	OnHalted
	Always
)

// NodeConfig is the immutable-after-construction configuration shared by
// every node instance. Port remapping may be adjusted once
// before the first tick by the factory during subtree wiring.
type NodeConfig struct {
	Blackboard     *blackboard.Blackboard
	Enums          script.Enums
	InputPorts     map[string]string // port name -> raw literal or "{key}"
	OutputPorts    map[string]string // port name -> "{key}" or "="
	Manifest       *port.Manifest
	UID            uint16
	Path           string
	PreConditions  map[PreCond]script.Node
	PostConditions map[PostCond]script.Node
}

// Implementation is what a concrete node variant (leaf, decorator,
// control) provides: the tick itself and a synchronous halt. Node wraps
// an Implementation with the common tick protocol, status bookkeeping,
// and condition/callback plumbing.
type Implementation interface {
	Tick() (Status, error)
	Halt()
}

// MonitorFunc is invoked after every call to the wrapped implementation's
// Tick(), with the measured duration.
type MonitorFunc func(n *Node, d time.Duration)

// TickCallback is a pre-tick or post-tick hook. Returning ok=true
// overrides the node's result for this execute_tick call; the status
// must be a completed one.
type TickCallback func(n *Node) (status Status, ok bool)

// Event is the payload delivered to Observers on every real status
// transition.
type Event struct {
	Timestamp time.Time
	Node      *Node
	Prev      Status
	New       Status
}

// Observer receives every real status transition of every node it is
// registered against.
type Observer func(Event)

// Node is a single tick()-able instance: a node's Implementation plus the
// shared tick protocol, status, and callback/observer plumbing.
type Node struct {
	config NodeConfig
	impl   Implementation

	mu     sync.Mutex
	status       Status
	lastDuration time.Duration
	lastTickAt   time.Time

	preTick   TickCallback
	postTick  TickCallback
	monitor   MonitorFunc
	observers []Observer
}

// New wraps impl in a Node using config.
func New(config NodeConfig, impl Implementation) *Node {
	return &Node{config: config, impl: impl, status: Idle}
}

// Status returns the node's last stored status (Skipped is never stored;
// see ExecuteTick step 7).
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

func (n *Node) setStatus(s Status) {
	n.mu.Lock()
	prev := n.status
	if s != Skipped {
		n.status = s
	}
	observers := append([]Observer(nil), n.observers...)
	n.mu.Unlock()

	if prev == s {
		return
	}
	event := Event{Timestamp: time.Now(), Node: n, Prev: prev, New: s}
	for _, obs := range observers {
		obs(event)
	}
}

// Config returns the node's configuration.
func (n *Node) Config() *NodeConfig { return &n.config }

// Blackboard returns the blackboard this node reads/writes ports
// against.
func (n *Node) Blackboard() *blackboard.Blackboard { return n.config.Blackboard }

// UID returns the node's tree-unique identifier.
func (n *Node) UID() uint16 { return n.config.UID }

// Path returns the node's dotted/slashed hierarchical path.
func (n *Node) Path() string { return n.config.Path }

// Kind returns the node's registered manifest kind, or KindAction if the
// node has no manifest (e.g. a TestNode substitution stand-in).
func (n *Node) Kind() Kind {
	if n.config.Manifest == nil {
		return KindAction
	}
	return n.config.Manifest.Kind
}

// LastTickDuration returns how long the implementation's most recent
// Tick() call took, zero before the node has ever ticked.
func (n *Node) LastTickDuration() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastDuration
}

// LastTickAt returns when the implementation's most recent Tick() call
// started, the zero Time before the node has ever ticked.
func (n *Node) LastTickAt() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastTickAt
}

// SetPreTickCallback installs a pre-tick hook (nil clears it).
func (n *Node) SetPreTickCallback(cb TickCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.preTick = cb
}

// SetPostTickCallback installs a post-tick hook (nil clears it).
func (n *Node) SetPostTickCallback(cb TickCallback) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.postTick = cb
}

// SetMonitorCallback installs a tick-duration monitor hook (nil clears
// it).
func (n *Node) SetMonitorCallback(cb MonitorFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.monitor = cb
}

// AddObserver registers obs to receive this node's status transitions.
func (n *Node) AddObserver(obs Observer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.observers = append(n.observers, obs)
}

// ExecuteTick runs the full tick protocol: pre-condition scripts, pre-tick
// callback, the implementation's Tick, monitor/observer notification, then
// post-tick callback and post-condition scripts.
func (n *Node) ExecuteTick() (Status, error) {
	n.mu.Lock()
	preTick, postTick, monitor := n.preTick, n.postTick, n.monitor
	n.mu.Unlock()

	preStatus, fired, err := n.evalPreConditions()
	if err != nil {
		return Idle, err
	}
	if fired {
		n.setStatus(preStatus)
		return preStatus, nil
	}

	if preTick != nil {
		if status, ok := preTick(n); ok && status.Completed() {
			n.setStatus(status)
			return status, nil
		}
	}

	start := time.Now()
	result, err := n.impl.Tick()
	duration := time.Since(start)
	n.mu.Lock()
	n.lastDuration = duration
	n.lastTickAt = start
	n.mu.Unlock()
	if monitor != nil {
		monitor(n, duration)
	}
	if err != nil {
		return Idle, err
	}

	if result.Completed() {
		if err := n.evalPostConditions(result); err != nil {
			return Idle, err
		}
	}

	if postTick != nil {
		if status, ok := postTick(n); ok && status.Completed() {
			result = status
		}
	}

	n.setStatus(result)
	return result, nil
}

// ForceIdle resets the node's stored status to Idle without invoking the
// implementation's Halt or any OnHalted postcondition. Composites and
// decorators use this to clear a completed (non-Running) child's tick
// memory when the composite itself halts, alongside a real Halt() for
// whichever child is actually Running.
func (n *Node) ForceIdle() {
	n.setStatus(Idle)
}

// Halt synchronously interrupts a Running node. Idempotent: halting an
// already-Idle node is a no-op. After halting, the node's stored status
// is Idle and the OnHalted post-condition (if any) runs.
func (n *Node) Halt() {
	n.mu.Lock()
	if n.status == Idle {
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()

	n.halt()
}

// halt runs the implementation's Halt, evaluates the OnHalted
// post-condition, and resets stored status to Idle. Shared by Halt() and
// by evalPreConditions' mid-Running WhileTrue-false short-circuit, so
// neither path can halt the implementation without also running
// OnHalted and clearing stored status.
func (n *Node) halt() {
	n.impl.Halt()
	if cond, ok := n.config.PostConditions[OnHalted]; ok {
		_, _ = script.Eval(cond, n.config.Blackboard, n.config.Enums)
	}
	n.setStatus(Idle)
}

func (n *Node) evalBoolCond(pc PreCond) (value bool, present bool, err error) {
	node, ok := n.config.PreConditions[pc]
	if !ok {
		return false, false, nil
	}
	v, err := script.Eval(node, n.config.Blackboard, n.config.Enums)
	if err != nil {
		return false, true, WrapRuntimeError(err, "evaluating pre-condition")
	}
	b, err := anyvalue.IsTrue(v)
	if err != nil {
		return false, true, WrapRuntimeError(err, "pre-condition result not boolean-coercible")
	}
	return b, true, nil
}

var precondShortCircuits = []struct {
	cond   PreCond
	status Status
}{
	{FailureIf, Failure},
	{SuccessIf, Success},
	{SkipIf, Skipped},
}

// evalPreConditions evaluates pre-tick condition scripts: in Idle/Skipped,
// the first true FailureIf/SuccessIf/SkipIf short-circuits to its
// status, else a false WhileTrue short-circuits to Skipped; in Running,
// a false WhileTrue halts and returns Skipped.
func (n *Node) evalPreConditions() (Status, bool, error) {
	current := n.Status()

	if current == Idle || current == Skipped {
		for _, sc := range precondShortCircuits {
			v, present, err := n.evalBoolCond(sc.cond)
			if err != nil {
				return Idle, false, err
			}
			if present && v {
				return sc.status, true, nil
			}
		}
		v, present, err := n.evalBoolCond(WhileTrue)
		if err != nil {
			return Idle, false, err
		}
		if present && !v {
			return Skipped, true, nil
		}
		return Idle, false, nil
	}

	if current == Running {
		v, present, err := n.evalBoolCond(WhileTrue)
		if err != nil {
			return Idle, false, err
		}
		if present && !v {
			n.halt()
			return Skipped, true, nil
		}
	}
	return Idle, false, nil
}

func (n *Node) evalPostConditions(result Status) error {
	run := func(pc PostCond) error {
		node, ok := n.config.PostConditions[pc]
		if !ok {
			return nil
		}
		if _, err := script.Eval(node, n.config.Blackboard, n.config.Enums); err != nil {
			return WrapRuntimeError(err, "evaluating post-condition")
		}
		return nil
	}
	if result == Success {
		if err := run(OnSuccess); err != nil {
			return err
		}
	}
	if result == Failure {
		if err := run(OnFailure); err != nil {
			return err
		}
	}
	return run(Always)
}
