// Package factory implements the node-type registry, tree instantiation,
// and tree driver: a Factory turns a
// treemodel.Model into a live tree of *bt.Node values wired to
// blackboards, and a Tree exposes the driver operations that tick it.
package factory

import (
	"fmt"
	"path"
	"sync"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/bt"
	"github.com/thicketbt/thicket/port"
	"github.com/thicketbt/thicket/script"
	"github.com/thicketbt/thicket/timer"
)

// Builder constructs a fully wrapped node from its resolved
// configuration and already-instantiated children (empty for leaves).
// Registered once per node-type id; invoked once per instance.
type Builder func(cfg bt.NodeConfig, children []*bt.Node) (*bt.Node, error)

type registration struct {
	manifest port.Manifest
	build    Builder
	builtin  bool
}

// SubstitutionRule replaces a matching model element at instantiation
// time, either with a different registered node type (ReplacementID) or
// with a scripted stand-in (TestConfig).
type SubstitutionRule struct {
	Filter        string
	ReplacementID string
	TestConfig    *bt.TestNodeConfig
}

// Factory is the registry of node types, substitution rules, and the
// shared scripting-enum table new trees are instantiated against.
type Factory struct {
	mu          sync.Mutex
	types       map[string]*registration
	rules       []SubstitutionRule
	enums       *EnumTable
	scriptCache *script.Cache
	timerQueue  *timer.Queue
}

// New constructs an empty Factory with its own enum table, script cache,
// and timer queue, shared by every tree it instantiates.
func New() *Factory {
	return &Factory{
		types:       make(map[string]*registration),
		enums:       NewEnumTable(),
		scriptCache: script.NewCache(),
		timerQueue:  timer.New(),
	}
}

// Close releases the factory's shared timer queue. Call once, after every
// tree built from this factory is done.
func (f *Factory) Close() {
	f.timerQueue.Close()
}

// Enums returns the factory's shared scripting-enum table, consulted by
// every pre/post-condition and Script/ScriptCondition/Switch evaluation
// in trees this factory instantiates.
func (f *Factory) Enums() *EnumTable { return f.enums }

// ScriptCache returns the factory's shared compiled-script cache, used by
// the Script/ScriptCondition/Precondition builtin node types.
func (f *Factory) ScriptCache() *script.Cache { return f.scriptCache }

// TimerQueue returns the factory's shared timer queue, used by the
// Sleep/Timeout/Delay/TestNode builtin node types.
func (f *Factory) TimerQueue() *timer.Queue { return f.timerQueue }

// RegisterNodeType adds id to the registry. Re-registering an existing
// non-builtin id overwrites it; re-registering a builtin id is rejected,
// extending the builtin set's protection from unregistration to
// overwrite by re-registration.
func (f *Factory) RegisterNodeType(id string, kind port.Kind, ports []anyvalue.PortInfo, build Builder) error {
	return f.register(id, kind, ports, build, false)
}

// registerBuiltin is used only by RegisterBuiltins to seed the protected
// core node-type set.
func (f *Factory) registerBuiltin(id string, kind port.Kind, ports []anyvalue.PortInfo, build Builder) error {
	return f.register(id, kind, ports, build, true)
}

func (f *Factory) register(id string, kind port.Kind, ports []anyvalue.PortInfo, build Builder, builtin bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.types[id]; ok && existing.builtin {
		return thicket.WithStack(fmt.Errorf("node type %q is builtin and cannot be re-registered", id))
	}
	f.types[id] = &registration{
		manifest: port.Manifest{ID: id, Kind: kind, Ports: ports},
		build:    build,
		builtin:  builtin,
	}
	return nil
}

// Unregister removes id from the registry; builtin ids are protected.
func (f *Factory) Unregister(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.types[id]
	if !ok {
		return thicket.WithStack(fmt.Errorf("node type %q is not registered", id))
	}
	if existing.builtin {
		return thicket.WithStack(fmt.Errorf("node type %q is builtin and cannot be unregistered", id))
	}
	delete(f.types, id)
	return nil
}

func (f *Factory) lookup(id string) (*registration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.types[id]
	return r, ok
}

// AddSubstitutionRule appends rule to the end of the ordered rule list;
// the first rule (in registration order) whose Filter matches an
// element's name, id, or path wins.
func (f *Factory) AddSubstitutionRule(rule SubstitutionRule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule)
}

// matchSubstitution returns the first rule (in registration order)
// matching name, id, or fullPath against its wildcard Filter.
func (f *Factory) matchSubstitution(name, id, fullPath string) (SubstitutionRule, bool) {
	f.mu.Lock()
	rules := append([]SubstitutionRule(nil), f.rules...)
	f.mu.Unlock()
	for _, r := range rules {
		if matchWildcard(r.Filter, name) || matchWildcard(r.Filter, id) || matchWildcard(r.Filter, fullPath) {
			return r, true
		}
	}
	return SubstitutionRule{}, false
}

func matchWildcard(filter, candidate string) bool {
	if filter == "" || candidate == "" {
		return false
	}
	ok, err := path.Match(filter, candidate)
	return err == nil && ok
}

// RegisterScriptingEnum adds name = value to the factory's shared enum
// table, rejecting re-registration of name with a different value.
func (f *Factory) RegisterScriptingEnum(name string, value int64) error {
	return f.enums.Register(name, value)
}
