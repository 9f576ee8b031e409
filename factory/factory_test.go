package factory

import (
	"testing"

	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/port"
)

func noopBuilder(cfg bt.NodeConfig, _ []*bt.Node) (*bt.Node, error) {
	return bt.NewAlwaysSuccess(cfg), nil
}

func TestRegisterAndLookupNodeType(t *testing.T) {
	f := New()
	if err := f.RegisterNodeType("MyAction", port.KindAction, nil, noopBuilder); err != nil {
		t.Fatalf("RegisterNodeType: %v", err)
	}
	if _, ok := f.lookup("MyAction"); !ok {
		t.Fatalf("expected MyAction to be registered")
	}
	if err := f.Unregister("MyAction"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if _, ok := f.lookup("MyAction"); ok {
		t.Fatalf("expected MyAction to be gone after Unregister")
	}
}

func TestBuiltinNodeTypeCannotBeOverwrittenOrUnregistered(t *testing.T) {
	f := New()
	RegisterBuiltins(f)
	if err := f.RegisterNodeType("Sequence", port.KindControl, nil, noopBuilder); err == nil {
		t.Fatalf("expected re-registering builtin Sequence to fail")
	}
	if err := f.Unregister("Sequence"); err == nil {
		t.Fatalf("expected unregistering builtin Sequence to fail")
	}
}

func TestSubstitutionRuleFirstMatchWins(t *testing.T) {
	f := New()
	f.AddSubstitutionRule(SubstitutionRule{Filter: "door*", ReplacementID: "First"})
	f.AddSubstitutionRule(SubstitutionRule{Filter: "door*", ReplacementID: "Second"})
	rule, ok := f.matchSubstitution("door_open", "Action", "/root/door_open")
	if !ok {
		t.Fatalf("expected a matching rule")
	}
	if rule.ReplacementID != "First" {
		t.Fatalf("expected the first registered rule to win, got %q", rule.ReplacementID)
	}
}

func TestSubstitutionRuleMatchesByIDOrPath(t *testing.T) {
	f := New()
	f.AddSubstitutionRule(SubstitutionRule{Filter: "*/retry/*", ReplacementID: "Stub"})
	if _, ok := f.matchSubstitution("unrelated", "Retry", "/main"); ok {
		t.Fatalf("did not expect a match")
	}
	if _, ok := f.matchSubstitution("unrelated", "Retry", "/main/retry/attempt"); !ok {
		t.Fatalf("expected the path-based filter to match")
	}
}

func TestRegisterScriptingEnumRejectsMismatch(t *testing.T) {
	f := New()
	if err := f.RegisterScriptingEnum("OPEN", 1); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := f.RegisterScriptingEnum("OPEN", 1); err != nil {
		t.Fatalf("re-registering with the same value should be a no-op: %v", err)
	}
	if err := f.RegisterScriptingEnum("OPEN", 2); err == nil {
		t.Fatalf("expected re-registering OPEN with a different value to fail")
	}
	v, ok := f.Enums().Lookup("OPEN")
	if !ok || v != 1 {
		t.Fatalf("Lookup(OPEN) = %d, %v, want 1, true", v, ok)
	}
}
