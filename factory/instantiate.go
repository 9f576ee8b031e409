package factory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/blackboard"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/bt/decorator"
	"github.com/thicketbt/thicket/port"
	"github.com/thicketbt/thicket/script"
	"github.com/thicketbt/thicket/treemodel"
	"github.com/thicketbt/thicket/wakeup"
)

// instantiator carries per-Tree-build state: the model being
// instantiated (for Subtree lookups), a monotonically increasing UID
// counter, and the ordered list
// of subtrees being assembled as building descends into nested Subtree
// nodes.
type instantiator struct {
	factory  *Factory
	model    *treemodel.Model
	nextUID  uint16
	subtrees []*Subtree
}

// Instantiate builds a live Tree rooted at treeName from model, recursively
// constructing each node's children before wrapping it, resolving its
// ports and conditions, and registering it into its owning Subtree.
// bb is the root blackboard.
func (f *Factory) Instantiate(model *treemodel.Model, treeName string, bb *blackboard.Blackboard) (*Tree, error) {
	root, ok := model.Trees[treeName]
	if !ok {
		return nil, thicket.WithStack(fmt.Errorf("tree %q not found in model", treeName))
	}
	inst := &instantiator{factory: f, model: model}
	mainSubtree := &Subtree{InstanceName: treeName, TreeID: uuid.NewString(), Blackboard: bb}
	inst.subtrees = append(inst.subtrees, mainSubtree)
	if _, err := inst.build(root, bb, mainSubtree, ""); err != nil {
		return nil, err
	}
	return &Tree{Subtrees: inst.subtrees, Wake: wakeup.New()}, nil
}

// record prepends node to current's node list, so that once the whole
// recursive build is done, each subtree's own root node (the last one
// prepended on its path back up from its deepest leaf) ends up first.
func record(current *Subtree, node *bt.Node) *bt.Node {
	current.Nodes = append([]*bt.Node{node}, current.Nodes...)
	return node
}

func (inst *instantiator) build(el *treemodel.TreeElement, bb *blackboard.Blackboard, current *Subtree, pathPrefix string) (*bt.Node, error) {
	label := el.Name
	if label == "" {
		label = el.ID
	}
	fullPath := pathPrefix + "/" + label

	// Step 1: resolve substitution rule, if any.
	id := el.ID
	var testConfig *bt.TestNodeConfig
	if rule, matched := inst.factory.matchSubstitution(el.Name, el.ID, fullPath); matched {
		if rule.TestConfig != nil {
			testConfig = rule.TestConfig
		} else if rule.ReplacementID != "" {
			id = rule.ReplacementID
		}
	}

	if el.Kind == treemodel.Subtree {
		node, err := inst.buildSubtree(el, bb, fullPath)
		if err != nil {
			return nil, err
		}
		return record(current, node), nil
	}

	reg, ok := inst.factory.lookup(id)
	if !ok && testConfig == nil {
		return nil, thicket.WithStack(fmt.Errorf("node type %q (at %s) is not registered", id, fullPath))
	}

	children := make([]*bt.Node, 0, len(el.Children))
	for _, c := range el.Children {
		child, err := inst.build(c, bb, current, fullPath)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	cfg := bt.NodeConfig{
		Blackboard:  bb,
		Enums:       inst.factory.enums,
		InputPorts:  el.Attrs,
		OutputPorts: el.Attrs,
		UID:         inst.nextUID,
		Path:        fullPath,
	}
	inst.nextUID++
	if reg != nil {
		cfg.Manifest = &reg.manifest
	}

	// Step 4: compile pre/post-condition scripts.
	preConds, err := compileConditions(map[bt.PreCond]string{
		bt.FailureIf: el.FailureIf, bt.SuccessIf: el.SuccessIf,
		bt.SkipIf: el.SkipIf, bt.WhileTrue: el.While,
	})
	if err != nil {
		return nil, thicket.WithStack(fmt.Errorf("%s: %w", fullPath, err))
	}
	cfg.PreConditions = preConds
	postConds, err := compilePostConditions(map[bt.PostCond]string{
		bt.OnSuccess: el.OnSuccess, bt.OnFailure: el.OnFailure,
		bt.OnHalted: el.OnHalted, bt.Always: el.Post,
	})
	if err != nil {
		return nil, thicket.WithStack(fmt.Errorf("%s: %w", fullPath, err))
	}
	cfg.PostConditions = postConds

	// Step 6: initialize declared ports bound to blackboard keys.
	if reg != nil {
		if err := initPorts(bb, reg.manifest, el.Attrs); err != nil {
			return nil, thicket.WithStack(fmt.Errorf("%s: %w", fullPath, err))
		}
	}

	if testConfig != nil {
		return record(current, bt.NewTestNode(cfg, *testConfig, inst.factory.timerQueue)), nil
	}
	node, err := reg.build(cfg, children)
	if err != nil {
		return nil, thicket.WithStack(fmt.Errorf("building %s (%s): %w", fullPath, id, err))
	}
	return record(current, node), nil
}

func (inst *instantiator) buildSubtree(el *treemodel.TreeElement, parentBB *blackboard.Blackboard, fullPath string) (*bt.Node, error) {
	nestedRoot, ok := inst.model.Trees[el.ID]
	if !ok {
		return nil, thicket.WithStack(fmt.Errorf("subtree %q (at %s) references an unknown tree", el.ID, fullPath))
	}

	childBB := blackboard.New(parentBB)
	for attr, raw := range el.Attrs {
		if ptr, isPtr := port.ParsePointer(raw); isPtr {
			childBB.AddSubtreeRemapping(attr, ptr.ResolveKey(attr))
			continue
		}
		if err := childBB.Set(attr, raw); err != nil {
			return nil, thicket.WithStack(fmt.Errorf("subtree %s: remapping %q: %w", fullPath, attr, err))
		}
	}
	childBB.EnableAutoRemapping(el.AutoRemap)

	instanceName := el.Name
	if instanceName == "" {
		instanceName = el.ID
	}
	childSubtree := &Subtree{InstanceName: instanceName, TreeID: uuid.NewString(), Blackboard: childBB}
	inst.subtrees = append(inst.subtrees, childSubtree)
	rootNode, err := inst.build(nestedRoot, childBB, childSubtree, fullPath)
	if err != nil {
		return nil, err
	}

	cfg := bt.NodeConfig{
		Blackboard: parentBB,
		Enums:      inst.factory.enums,
		UID:        inst.nextUID,
		Path:       fullPath,
	}
	inst.nextUID++
	impl := decorator.NewSubtree(rootNode, childBB, el.AutoRemap)
	return bt.New(cfg, impl), nil
}

func compileConditions(src map[bt.PreCond]string) (map[bt.PreCond]script.Node, error) {
	out := make(map[bt.PreCond]script.Node)
	for cond, text := range src {
		if strings.TrimSpace(text) == "" {
			continue
		}
		node, err := script.Parse(text)
		if err != nil {
			return nil, thicket.WithStack(fmt.Errorf("compiling condition %q: %w", text, err))
		}
		out[cond] = node
	}
	return out, nil
}

func compilePostConditions(src map[bt.PostCond]string) (map[bt.PostCond]script.Node, error) {
	out := make(map[bt.PostCond]script.Node)
	for cond, text := range src {
		if strings.TrimSpace(text) == "" {
			continue
		}
		node, err := script.Parse(text)
		if err != nil {
			return nil, thicket.WithStack(fmt.Errorf("compiling condition %q: %w", text, err))
		}
		out[cond] = node
	}
	return out, nil
}

// initPorts creates a blackboard entry (with the declared type) for every
// pointer-bound port a manifest declares. A pre-existing entry already
// declared as string is always considered compatible, since the port's
// converter parses it on read.
func initPorts(bb *blackboard.Blackboard, manifest port.Manifest, attrs map[string]string) error {
	for _, p := range manifest.Ports {
		raw, hasRaw := attrs[p.Name]
		if !hasRaw {
			continue
		}
		ptr, isPtr := port.ParsePointer(raw)
		if !isPtr {
			continue
		}
		key := ptr.ResolveKey(p.Name)
		if err := bb.CreateEntry(key, p.TypeInfo); err != nil {
			if isStringCompatibilityMismatch(bb, key, p.TypeInfo) {
				continue
			}
			return err
		}
	}
	return nil
}

func isStringCompatibilityMismatch(bb *blackboard.Blackboard, key string, declared anyvalue.TypeInfo) bool {
	existing, err := bb.GetAny(key)
	if err != nil {
		return false
	}
	return existing.TypeName() == "string" && declared.Name != "string"
}
