// Package debug offers human-readable and test-oriented introspection
// over a live factory.Tree: an ASCII dump of every node's path, kind,
// status, and last tick duration, and a typed snapshot of every subtree
// blackboard's values.
package debug

import (
	"bytes"

	"github.com/dustin/go-humanize"
	goccy "github.com/goccy/go-json"
	"github.com/rodaine/table"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/factory"
)

// DumpTree renders every node of tree as an ASCII table: path, kind,
// status, last tick duration, and its input port bindings.
func DumpTree(tree *factory.Tree) string {
	var buf bytes.Buffer
	t := table.New("Path", "Kind", "Status", "Last Tick", "Ports").WithWriter(&buf)
	for _, st := range tree.Subtrees {
		for _, n := range st.Nodes {
			t.AddRow(n.Path(), n.Kind().String(), n.Status().String(), formatDuration(n), formatPorts(n))
		}
	}
	t.Print()
	return buf.String()
}

func formatDuration(n *bt.Node) string {
	at := n.LastTickAt()
	if at.IsZero() {
		return "-"
	}
	return n.LastTickDuration().String() + " (" + humanize.Time(at) + ")"
}

func formatPorts(n *bt.Node) string {
	ports := n.Config().InputPorts
	if len(ports) == 0 {
		return "-"
	}
	var buf bytes.Buffer
	first := true
	for name, raw := range ports {
		if !first {
			buf.WriteString(", ")
		}
		first = false
		buf.WriteString(name)
		buf.WriteString("=")
		buf.WriteString(raw)
	}
	return buf.String()
}

// Snapshot is a typed wrapper around blackboard_backup: the values of
// every subtree blackboard, keyed by subtree_instance_name then entry
// key, for use in test assertions without touching the live tree. Two
// subtrees sharing an instance name (the same Subtree node instantiated
// more than once) collapse onto the same map key, last write wins.
func Snapshot(tree *factory.Tree) (map[string]map[string]anyvalue.Any, error) {
	out := make(map[string]map[string]anyvalue.Any, len(tree.Subtrees))
	for _, st := range tree.Subtrees {
		values := make(map[string]anyvalue.Any)
		for _, key := range st.Blackboard.Keys() {
			v, err := st.Blackboard.GetAny(key)
			if err != nil {
				continue
			}
			values[key] = v
		}
		out[st.InstanceName] = values
	}
	return out, nil
}

// treeEntryJSON is one blackboard entry's wire form: its declared type
// name (informational, for readers) and its value JSON-encoded via its
// native Go representation.
type treeEntryJSON struct {
	Type  string           `json:"type"`
	Value goccy.RawMessage `json:"value"`
}

// ExportTreeToJSON serializes every subtree blackboard's values, keyed by
// subtree_instance_name then entry key, into a single JSON document
// suitable for ImportTreeFromJSON to restore later (e.g. across a
// process restart, or into a freshly instantiated copy of the same tree
// definition).
func ExportTreeToJSON(tree *factory.Tree) ([]byte, error) {
	doc := make(map[string]map[string]treeEntryJSON, len(tree.Subtrees))
	for _, st := range tree.Subtrees {
		entries := make(map[string]treeEntryJSON)
		for _, key := range st.Blackboard.Keys() {
			v, err := st.Blackboard.GetAny(key)
			if err != nil || v.Empty() {
				continue
			}
			native, err := v.Native()
			if err != nil {
				return nil, thicket.WithStack(err)
			}
			raw, err := goccy.Marshal(native)
			if err != nil {
				return nil, thicket.WithStack(err)
			}
			entries[key] = treeEntryJSON{Type: v.TypeName(), Value: raw}
		}
		doc[st.InstanceName] = entries
	}
	return goccy.MarshalIndent(doc, "", "  ")
}

// ImportTreeFromJSON restores values exported by ExportTreeToJSON back
// into tree's subtree blackboards, matched by subtree_instance_name.
// Each entry is unmarshalled against the target blackboard's existing
// declared type for that key (the entry must already exist, typically
// because the same tree definition was instantiated and ticked at least
// once); entries naming a subtree or key absent from tree are skipped.
func ImportTreeFromJSON(tree *factory.Tree, data []byte) error {
	var doc map[string]map[string]treeEntryJSON
	if err := goccy.Unmarshal(data, &doc); err != nil {
		return thicket.WithStack(err)
	}
	byName := make(map[string]*factory.Subtree, len(tree.Subtrees))
	for _, st := range tree.Subtrees {
		byName[st.InstanceName] = st
	}
	for instanceName, entries := range doc {
		st, ok := byName[instanceName]
		if !ok {
			continue
		}
		for key, entry := range entries {
			existing, err := st.Blackboard.GetAny(key)
			if err != nil || existing.Type() == nil {
				continue
			}
			native, err := anyvalue.FromJSON(existing.Type(), string(entry.Value))
			if err != nil {
				return thicket.WithStack(err)
			}
			if err := st.Blackboard.Set(key, native); err != nil {
				return thicket.WithStack(err)
			}
		}
	}
	return nil
}
