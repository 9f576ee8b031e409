package port

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/blackboard"
)

// pointerPattern matches a blackboard pointer attribute value:
// `{key}` with optional surrounding whitespace.
var pointerPattern = regexp.MustCompile(`^\s*\{(.+)\}\s*$`)

// Pointer is a parsed blackboard-pointer attribute value.
type Pointer struct {
	// SameName is true for `{=}` or the unparenthesised `=` shorthand:
	// "use the port's own name as the key".
	SameName bool
	// Key is the literal key when !SameName.
	Key string
}

// ParsePointer reports whether raw is a blackboard pointer and, if so,
// parses it.
func ParsePointer(raw string) (Pointer, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "=" {
		return Pointer{SameName: true}, true
	}
	m := pointerPattern.FindStringSubmatch(raw)
	if m == nil {
		return Pointer{}, false
	}
	inner := strings.TrimSpace(m[1])
	if inner == "=" {
		return Pointer{SameName: true}, true
	}
	return Pointer{Key: inner}, true
}

// ResolveKey returns the blackboard key a Pointer denotes for a port
// named portName.
func (p Pointer) ResolveKey(portName string) string {
	if p.SameName {
		return portName
	}
	return p.Key
}

// ReadInput resolves a node's input port:
// a blackboard pointer dereferences through the blackboard; a literal
// string is parsed via the port's declared converter (or consumed
// verbatim if the declared type is string); an unset port falls back to
// the manifest default.
func ReadInput[T any](bb *blackboard.Blackboard, portName string, raw string, hasRaw bool, info anyvalue.PortInfo) (T, error) {
	var zero T

	if !hasRaw {
		if !info.HasDefault {
			return zero, thicket.WithStack(fmt.Errorf("port %q: no value bound and no default", portName))
		}
		return anyvalue.TryCast[T](info.Default)
	}

	if ptr, isPtr := ParsePointer(raw); isPtr {
		key := ptr.ResolveKey(portName)
		return blackboard.Get[T](bb, key)
	}

	if info.Declared != nil && info.Declared.Kind() == reflect.String {
		return anyvalue.TryCast[T](anyvalue.New(raw))
	}
	if info.Converter == nil {
		return zero, thicket.WithStack(fmt.Errorf("port %q: literal %q given but type %s has no string converter", portName, raw, info.Name))
	}
	parsed, err := info.Converter(raw)
	if err != nil {
		return zero, thicket.WithStack(fmt.Errorf("port %q: parsing literal %q: %w", portName, raw, err))
	}
	return anyvalue.TryCast[T](parsed)
}

// ReadInputAny is ReadInput without a generic result type: it returns the
// raw Any exactly as stored (pointer form) or exactly as the converter
// produced it (literal form), preserving its declared type. SetBlackboard
// uses this to copy a value between ports without narrowing it through a
// specific Go type, preserving type across the copy.
func ReadInputAny(bb *blackboard.Blackboard, portName string, raw string, hasRaw bool, info anyvalue.PortInfo) (anyvalue.Any, error) {
	if !hasRaw {
		if !info.HasDefault {
			return anyvalue.Any{}, thicket.WithStack(fmt.Errorf("port %q: no value bound and no default", portName))
		}
		return info.Default, nil
	}

	if ptr, isPtr := ParsePointer(raw); isPtr {
		key := ptr.ResolveKey(portName)
		return bb.GetAny(key)
	}

	if info.Declared != nil && info.Declared.Kind() == reflect.String {
		return anyvalue.New(raw), nil
	}
	if info.Converter == nil {
		return anyvalue.Any{}, thicket.WithStack(fmt.Errorf("port %q: literal %q given but type %s has no string converter", portName, raw, info.Name))
	}
	return info.Converter(raw)
}

// WriteOutput resolves and writes a node's output port. Output ports
// must be blackboard pointers; a literal raw value is a LogicError-class
// mistake reported here as a plain error; nothing checks this earlier, so
// it surfaces on the first write.
func WriteOutput(bb *blackboard.Blackboard, portName string, raw string, hasRaw bool, value anyvalue.Any) error {
	if !hasRaw {
		return thicket.WithStack(fmt.Errorf("output port %q is not bound to a blackboard key", portName))
	}
	ptr, isPtr := ParsePointer(raw)
	if !isPtr {
		return thicket.WithStack(fmt.Errorf("output port %q: %q is not a blackboard pointer", portName, raw))
	}
	key := ptr.ResolveKey(portName)
	return bb.SetAny(key, value)
}
