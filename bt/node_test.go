package bt

import (
	"errors"
	"testing"

	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/script"
)

func mustCompile(t *testing.T, src string) script.Node {
	t.Helper()
	n, err := script.Parse(src)
	if err != nil {
		t.Fatalf("compiling %q: %v", src, err)
	}
	return n
}

func TestExecuteTickRunsImplementation(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := NodeConfig{Blackboard: bb}
	n := New(cfg, NewSyncAction(func() (Status, error) { return Success, nil }))

	status, err := n.ExecuteTick()
	if err != nil || status != Success {
		t.Fatalf("got %v, %v; want Success", status, err)
	}
	if n.Status() != Success {
		t.Fatalf("stored status = %v, want Success", n.Status())
	}
}

func TestExecuteTickFailureIfShortCircuits(t *testing.T) {
	bb := blackboard.New(nil)
	_ = bb.Set("blocked", true)
	cfg := NodeConfig{
		Blackboard:    bb,
		PreConditions: map[PreCond]script.Node{FailureIf: mustCompile(t, "blocked")},
	}
	ticked := false
	n := New(cfg, NewSyncAction(func() (Status, error) { ticked = true; return Success, nil }))

	status, err := n.ExecuteTick()
	if err != nil || status != Failure {
		t.Fatalf("got %v, %v; want Failure", status, err)
	}
	if ticked {
		t.Fatalf("implementation ticked despite FailureIf short-circuit")
	}
}

func TestExecuteTickSkipIf(t *testing.T) {
	bb := blackboard.New(nil)
	_ = bb.Set("skip", true)
	cfg := NodeConfig{
		Blackboard:    bb,
		PreConditions: map[PreCond]script.Node{SkipIf: mustCompile(t, "skip")},
	}
	n := New(cfg, NewSyncAction(func() (Status, error) { return Success, nil }))

	status, err := n.ExecuteTick()
	if err != nil || status != Skipped {
		t.Fatalf("got %v, %v; want Skipped", status, err)
	}
	// Skipped is never stored; the node remains Idle.
	if n.Status() != Idle {
		t.Fatalf("stored status = %v, want Idle (Skipped is never stored)", n.Status())
	}
}

func TestExecuteTickWhileTrueHaltsRunningChild(t *testing.T) {
	bb := blackboard.New(nil)
	_ = bb.Set("keepgoing", true)
	cfg := NodeConfig{
		Blackboard:    bb,
		PreConditions: map[PreCond]script.Node{WhileTrue: mustCompile(t, "keepgoing")},
	}
	halted := false
	n := New(cfg, NewStatefulAction(StatefulFuncs{
		OnStart:   func() (Status, error) { return Running, nil },
		OnRunning: func() (Status, error) { return Running, nil },
		OnHalt:    func() { halted = true },
	}))

	status, err := n.ExecuteTick()
	if err != nil || status != Running {
		t.Fatalf("first tick: got %v, %v; want Running", status, err)
	}

	_ = bb.Set("keepgoing", false)
	status, err = n.ExecuteTick()
	if err != nil || status != Skipped {
		t.Fatalf("second tick: got %v, %v; want Skipped", status, err)
	}
	if !halted {
		t.Fatalf("expected running implementation to be halted when WhileTrue flips false")
	}
}

func TestExecuteTickPostConditionRunsOnSuccess(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := NodeConfig{
		Blackboard:     bb,
		PostConditions: map[PostCond]script.Node{OnSuccess: mustCompile(t, "ran := 1")},
	}
	n := New(cfg, NewSyncAction(func() (Status, error) { return Success, nil }))

	if _, err := n.ExecuteTick(); err != nil {
		t.Fatalf("ExecuteTick: %v", err)
	}
	v, err := blackboard.Get[int64](bb, "ran")
	if err != nil || v != 1 {
		t.Fatalf("got %v, %v; want OnSuccess script to have run", v, err)
	}
}

func TestObserversFireOnlyOnRealTransitions(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := NodeConfig{Blackboard: bb}
	calls := 0
	n := New(cfg, NewSyncAction(func() (Status, error) { return Success, nil }))
	n.AddObserver(func(Event) { calls++ })

	if _, err := n.ExecuteTick(); err != nil {
		t.Fatalf("ExecuteTick: %v", err)
	}
	if _, err := n.ExecuteTick(); err != nil {
		t.Fatalf("ExecuteTick: %v", err)
	}
	if calls != 1 {
		t.Fatalf("observer fired %d times, want 1 (Success->Success is not a transition)", calls)
	}
}

func TestHaltIsIdempotentOnIdleNode(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := NodeConfig{Blackboard: bb}
	haltCalls := 0
	n := New(cfg, NewStatefulAction(StatefulFuncs{
		OnStart:   func() (Status, error) { return Running, nil },
		OnRunning: func() (Status, error) { return Running, nil },
		OnHalt:    func() { haltCalls++ },
	}))

	n.Halt()
	if haltCalls != 0 {
		t.Fatalf("halting an Idle node invoked the implementation's Halt")
	}
}

func TestLogicErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := WrapLogicError(inner, "building node")
	if !errors.Is(wrapped, inner) {
		t.Fatalf("errors.Is failed to see through LogicError wrapping")
	}
}
