package factory

import (
	"fmt"
	"sync"

	"github.com/thicketbt/thicket"
)

// EnumTable is a script.Enums implementation backing
// Factory.RegisterScriptingEnum: a shared, mutex-guarded name->value
// table consulted by every Name lookup in script evaluation before the
// blackboard.
type EnumTable struct {
	mu     sync.RWMutex
	values map[string]int64
}

// NewEnumTable constructs an empty table.
func NewEnumTable() *EnumTable {
	return &EnumTable{values: make(map[string]int64)}
}

// Register adds name = value, rejecting re-registration of name with a
// different value. Re-registering with the same value is
// a harmless no-op.
func (e *EnumTable) Register(name string, value int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if existing, ok := e.values[name]; ok && existing != value {
		return thicket.WithStack(fmt.Errorf("scripting enum %q already registered as %d, cannot re-register as %d", name, existing, value))
	}
	e.values[name] = value
	return nil
}

// Lookup implements script.Enums.
func (e *EnumTable) Lookup(name string) (int64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.values[name]
	return v, ok
}
