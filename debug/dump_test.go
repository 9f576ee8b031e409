package debug

import (
	"strings"
	"testing"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/factory"
	"github.com/thicketbt/thicket/treemodel"
)

func buildTestTree(t *testing.T) *factory.Tree {
	t.Helper()
	f := factory.New()
	factory.RegisterBuiltins(f)
	model := &treemodel.Model{Trees: map[string]*treemodel.TreeElement{
		"main": {Kind: treemodel.Action, ID: "AlwaysSuccess", Attrs: map[string]string{}},
	}}
	tree, err := f.Instantiate(model, "main", blackboard.New(nil))
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	return tree
}

func TestDumpTreeIncludesNodePath(t *testing.T) {
	tree := buildTestTree(t)
	if _, err := tree.TickExactlyOnce(); err != nil {
		t.Fatalf("TickExactlyOnce: %v", err)
	}
	out := DumpTree(tree)
	if !strings.Contains(out, "AlwaysSuccess") {
		t.Fatalf("DumpTree output missing root path:\n%s", out)
	}
	if !strings.Contains(out, "Idle") {
		t.Fatalf("DumpTree output missing root status:\n%s", out)
	}
}

func TestSnapshotCapturesBlackboardValues(t *testing.T) {
	f := factory.New()
	factory.RegisterBuiltins(f)
	model := &treemodel.Model{Trees: map[string]*treemodel.TreeElement{
		"main": {Kind: treemodel.Action, ID: "SetBlackboard", Attrs: map[string]string{
			"value": "42", "output_key": "{counter}",
		}},
	}}
	bb := blackboard.New(nil)
	tree, err := f.Instantiate(model, "main", bb)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if _, err := tree.TickExactlyOnce(); err != nil {
		t.Fatalf("TickExactlyOnce: %v", err)
	}
	snap, err := Snapshot(tree)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	v, ok := snap["main"]["counter"]
	if !ok {
		t.Fatalf("snapshot missing main/counter key: %+v", snap)
	}
	if v.TypeName() != "string" {
		t.Fatalf("counter TypeName = %q, want string", v.TypeName())
	}
}

func TestExportImportTreeJSONRoundTrips(t *testing.T) {
	f := factory.New()
	factory.RegisterBuiltins(f)
	model := &treemodel.Model{Trees: map[string]*treemodel.TreeElement{
		"main": {Kind: treemodel.Action, ID: "SetBlackboard", Attrs: map[string]string{
			"value": "42", "output_key": "{counter}",
		}},
	}}
	bb := blackboard.New(nil)
	tree, err := f.Instantiate(model, "main", bb)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if tree.Subtrees[0].InstanceName != "main" {
		t.Fatalf("InstanceName = %q, want %q", tree.Subtrees[0].InstanceName, "main")
	}
	if tree.Subtrees[0].TreeID == "" {
		t.Fatal("TreeID was not populated")
	}
	if _, err := tree.TickExactlyOnce(); err != nil {
		t.Fatalf("TickExactlyOnce: %v", err)
	}

	exported, err := ExportTreeToJSON(tree)
	if err != nil {
		t.Fatalf("ExportTreeToJSON: %v", err)
	}
	if !strings.Contains(string(exported), "\"main\"") {
		t.Fatalf("export missing main subtree key:\n%s", exported)
	}

	if err := tree.Subtrees[0].Blackboard.Set("counter", "0"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := ImportTreeFromJSON(tree, exported); err != nil {
		t.Fatalf("ImportTreeFromJSON: %v", err)
	}
	got, err := tree.Subtrees[0].Blackboard.GetAny("counter")
	if err != nil {
		t.Fatalf("GetAny: %v", err)
	}
	if text, _ := anyvalue.TryCast[string](got); text != "42" {
		t.Fatalf("counter after import = %q, want %q", text, "42")
	}
}
