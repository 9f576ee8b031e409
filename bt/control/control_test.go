package control

import (
	"testing"

	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/blackboard"
)

func leaf(bb *blackboard.Blackboard, statuses ...bt.Status) *bt.Node {
	i := 0
	halted := false
	return bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewStatefulAction(bt.StatefulFuncs{
		OnStart: func() (bt.Status, error) {
			s := statuses[i]
			if i < len(statuses)-1 {
				i++
			}
			return s, nil
		},
		OnRunning: func() (bt.Status, error) {
			s := statuses[i]
			if i < len(statuses)-1 {
				i++
			}
			return s, nil
		},
		OnHalt: func() { halted = true },
	}))
}

func constLeaf(bb *blackboard.Blackboard, status bt.Status) *bt.Node {
	return bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewSyncAction(func() (bt.Status, error) { return status, nil }))
}

func compileCondition(bb *blackboard.Blackboard, key string) (*bt.Node, error) {
	return bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewCondition(func() (bool, error) {
		return blackboard.Get[bool](bb, key)
	})), nil
}

func TestSequenceAllSuccess(t *testing.T) {
	bb := blackboard.New(nil)
	children := []*bt.Node{constLeaf(bb, bt.Success), constLeaf(bb, bt.Success)}
	seq := NewSequence(children)
	status, err := seq.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("got %v, %v; want Success", status, err)
	}
}

func TestSequenceStopsOnFailure(t *testing.T) {
	bb := blackboard.New(nil)
	ticked2 := false
	second := bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewSyncAction(func() (bt.Status, error) {
		ticked2 = true
		return bt.Success, nil
	}))
	children := []*bt.Node{constLeaf(bb, bt.Failure), second}
	seq := NewSequence(children)
	status, err := seq.Tick()
	if err != nil || status != bt.Failure {
		t.Fatalf("got %v, %v; want Failure", status, err)
	}
	if ticked2 {
		t.Fatalf("second child ticked after first failed")
	}
}

func TestSequenceAllSkippedIsSkipped(t *testing.T) {
	bb := blackboard.New(nil)
	children := []*bt.Node{constLeaf(bb, bt.Skipped), constLeaf(bb, bt.Skipped)}
	seq := NewSequence(children)
	status, err := seq.Tick()
	if err != nil || status != bt.Skipped {
		t.Fatalf("got %v, %v; want Skipped", status, err)
	}
}

func TestSequenceRunningPreservesIndex(t *testing.T) {
	bb := blackboard.New(nil)
	runningThenSuccess := leaf(bb, bt.Running, bt.Success)
	second := constLeaf(bb, bt.Success)
	seq := NewSequence([]*bt.Node{runningThenSuccess, second})

	status, err := seq.Tick()
	if err != nil || status != bt.Running {
		t.Fatalf("tick 1: got %v, %v; want Running", status, err)
	}
	status, err = seq.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("tick 2: got %v, %v; want Success", status, err)
	}
}

func TestSequenceWithMemoryKeepsIndexOnFailure(t *testing.T) {
	bb := blackboard.New(nil)
	calls := 0
	first := bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewSyncAction(func() (bt.Status, error) {
		calls++
		return bt.Success, nil
	}))
	second := constLeaf(bb, bt.Failure)
	seq := NewSequenceWithMemory([]*bt.Node{first, second})

	if _, err := seq.Tick(); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	if _, err := seq.Tick(); err != nil {
		t.Fatalf("tick 2: %v", err)
	}
	if calls != 1 {
		t.Fatalf("first child re-ticked after SequenceWithMemory failure; calls = %d, want 1", calls)
	}
}

func TestFallbackSucceedsOnFirstSuccess(t *testing.T) {
	bb := blackboard.New(nil)
	children := []*bt.Node{constLeaf(bb, bt.Failure), constLeaf(bb, bt.Success)}
	fb := NewFallback(children)
	status, err := fb.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("got %v, %v; want Success", status, err)
	}
}

func TestFallbackAllFailure(t *testing.T) {
	bb := blackboard.New(nil)
	children := []*bt.Node{constLeaf(bb, bt.Failure), constLeaf(bb, bt.Failure)}
	fb := NewFallback(children)
	status, err := fb.Tick()
	if err != nil || status != bt.Failure {
		t.Fatalf("got %v, %v; want Failure", status, err)
	}
}

func TestReactiveSequenceHaltsOnFailure(t *testing.T) {
	bb := blackboard.New(nil)
	halted := false
	running := bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewStatefulAction(bt.StatefulFuncs{
		OnStart:   func() (bt.Status, error) { return bt.Running, nil },
		OnRunning: func() (bt.Status, error) { return bt.Running, nil },
		OnHalt:    func() { halted = true },
	}))
	rs := NewReactiveSequence([]*bt.Node{running, constLeaf(bb, bt.Failure)}, true)

	if _, err := rs.Tick(); err != nil {
		t.Fatalf("tick 1: %v", err)
	}
	status, err := rs.Tick()
	if err != nil || status != bt.Failure {
		t.Fatalf("tick 2: got %v, %v; want Failure", status, err)
	}
	if !halted {
		t.Fatalf("expected the previously-running child to be halted on Failure")
	}
}

func TestReactiveSequenceRejectsMultipleRunningWhenStrict(t *testing.T) {
	bb := blackboard.New(nil)
	a := bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewStatefulAction(bt.StatefulFuncs{
		OnStart: func() (bt.Status, error) { return bt.Running, nil }, OnRunning: func() (bt.Status, error) { return bt.Running, nil },
	}))
	b := bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewStatefulAction(bt.StatefulFuncs{
		OnStart: func() (bt.Status, error) { return bt.Running, nil }, OnRunning: func() (bt.Status, error) { return bt.Running, nil },
	}))
	rs := NewReactiveSequence([]*bt.Node{a, b}, true)
	if _, err := rs.Tick(); err == nil {
		t.Fatalf("expected a LogicError for two concurrently Running children")
	}
}

func TestIfThenElseRoutesOnCondition(t *testing.T) {
	bb := blackboard.New(nil)
	cond := constLeaf(bb, bt.Success)
	then := constLeaf(bb, bt.Success)
	els := constLeaf(bb, bt.Failure)
	ite, err := NewIfThenElse([]*bt.Node{cond, then, els})
	if err != nil {
		t.Fatalf("NewIfThenElse: %v", err)
	}
	status, err := ite.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("got %v, %v; want Success (then branch)", status, err)
	}
}

func TestIfThenElseRequiresTwoOrThreeChildren(t *testing.T) {
	bb := blackboard.New(nil)
	if _, err := NewIfThenElse([]*bt.Node{constLeaf(bb, bt.Success)}); err == nil {
		t.Fatalf("expected arity error for a single child")
	}
}

func TestWhileDoElseHaltsBranchOnConditionFlip(t *testing.T) {
	bb := blackboard.New(nil)
	_ = bb.Set("go", true)
	cond, err := compileCondition(bb, "go")
	if err != nil {
		t.Fatalf("compileCondition: %v", err)
	}
	haltedThen := false
	then := bt.New(bt.NodeConfig{Blackboard: bb}, bt.NewStatefulAction(bt.StatefulFuncs{
		OnStart:   func() (bt.Status, error) { return bt.Running, nil },
		OnRunning: func() (bt.Status, error) { return bt.Running, nil },
		OnHalt:    func() { haltedThen = true },
	}))
	els := constLeaf(bb, bt.Failure)
	wde, err := NewWhileDoElse([]*bt.Node{cond, then, els})
	if err != nil {
		t.Fatalf("NewWhileDoElse: %v", err)
	}

	if status, err := wde.Tick(); err != nil || status != bt.Running {
		t.Fatalf("tick 1: got %v, %v; want Running", status, err)
	}
	_ = bb.Set("go", false)
	if status, err := wde.Tick(); err != nil || status != bt.Failure {
		t.Fatalf("tick 2: got %v, %v; want Failure", status, err)
	}
	if !haltedThen {
		t.Fatalf("expected the then-branch to be halted when the condition flipped")
	}
}

func TestSwitchRoutesByStringMatch(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := bt.NodeConfig{
		Blackboard: bb,
		InputPorts: map[string]string{
			"variable": "b",
			"case_1":   "a",
			"case_2":   "b",
		},
	}
	children := []*bt.Node{constLeaf(bb, bt.Failure), constLeaf(bb, bt.Success), constLeaf(bb, bt.Failure)}
	sw, err := NewSwitch(cfg, children, 2)
	if err != nil {
		t.Fatalf("NewSwitch: %v", err)
	}
	status, err := sw.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("got %v, %v; want Success (case_2 matched)", status, err)
	}
}

func TestSwitchFallsBackToDefault(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := bt.NodeConfig{
		Blackboard: bb,
		InputPorts: map[string]string{
			"variable": "z",
			"case_1":   "a",
		},
	}
	children := []*bt.Node{constLeaf(bb, bt.Failure), constLeaf(bb, bt.Success)}
	sw, err := NewSwitch(cfg, children, 1)
	if err != nil {
		t.Fatalf("NewSwitch: %v", err)
	}
	status, err := sw.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("got %v, %v; want Success (default branch)", status, err)
	}
}

func TestParallelFailsAtFailureThreshold(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := bt.NodeConfig{Blackboard: bb}
	children := []*bt.Node{constLeaf(bb, bt.Success), constLeaf(bb, bt.Success), constLeaf(bb, bt.Failure)}
	p := NewParallel(cfg, children)
	status, err := p.Tick()
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	// default success_count -1 => all (3); only 2 succeed, 1 fails, default
	// failure_count 1 is reached, so Failure wins this tick.
	if status != bt.Failure {
		t.Fatalf("got %v, want Failure (failure_count default 1 reached)", status)
	}
}

func TestParallelAllWaitsForEveryChild(t *testing.T) {
	bb := blackboard.New(nil)
	cfg := bt.NodeConfig{Blackboard: bb, InputPorts: map[string]string{"max_failures": "2"}}
	r1 := leaf(bb, bt.Running, bt.Success)
	r2 := constLeaf(bb, bt.Failure)
	pa := NewParallelAll(cfg, []*bt.Node{r1, r2})

	status, err := pa.Tick()
	if err != nil || status != bt.Running {
		t.Fatalf("tick 1: got %v, %v; want Running", status, err)
	}
	status, err = pa.Tick()
	if err != nil || status != bt.Success {
		t.Fatalf("tick 2: got %v, %v; want Success (1 failure < max_failures 2)", status, err)
	}
}
