package anyvalue

import "reflect"

// Direction is a port's data-flow direction.
type Direction uint8

const (
	Input Direction = iota
	Output
	Inout
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Inout:
		return "inout"
	default:
		return "unknown"
	}
}

// anyValueType (the type of Any itself) and AnyAllowed (a TypeInfo with no
// Declared type, below) are the two sentinels that make a port/entry *not*
// strongly typed. AnyAllowed is used by
// ports declared to accept literally any type (e.g. a generic pass-through
// port); an Any wrapping another Any is never produced by
// New, but a TypeInfo can still be explicitly constructed against
// anyValueType by the port layer.
var (
	anyValueType = reflect.TypeOf(Any{})
)

// TypeInfo describes a declared type: its reflect.Type, a human-readable
// name, and an optional string->Any converter used to parse literal port
// values and string blackboard writes into this type.
type TypeInfo struct {
	Declared  reflect.Type
	Name      string
	Converter func(string) (Any, error)
}

// Strong reports whether t is strongly typed: neither the "any type
// allowed" sentinel nor Any itself.
func (t TypeInfo) Strong() bool {
	return t.Declared != nil && t.Declared != anyValueType
}

// AnyAllowed is the TypeInfo used for ports/entries declared to accept any
// type, opting them out of the strong type-compatibility checks.
var AnyAllowed = TypeInfo{Name: "any"}

// TypeInfoFor derives a TypeInfo from a reflect.Type, consulting the
// custom-converter registry (anyvalue.RegisterJSONConverter) for
// non-builtin types.
func TypeInfoFor(t reflect.Type) TypeInfo {
	if t == nil {
		return AnyAllowed
	}
	info := TypeInfo{Declared: t, Name: t.String()}
	if conv, ok := ConverterFor(t); ok {
		info.Converter = conv
	} else {
		info.Converter = builtinConverter(t)
	}
	return info
}

func builtinConverter(t reflect.Type) func(string) (Any, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String, reflect.Bool:
		return func(s string) (Any, error) {
			v, err := castTo(New(s), t)
			if err != nil {
				return Any{}, err
			}
			return New(v), nil
		}
	default:
		return nil
	}
}

// PortInfo describes a node port: its name, TypeInfo, direction, optional
// description, and optional default value carried both as a typed Any and
// as the original string form it was parsed from. Name is
// the port's attribute name (e.g. "target_speed"); TypeInfo.Name is the
// unrelated human-readable name of its declared *type* (e.g. "float64").
type PortInfo struct {
	Name string
	TypeInfo
	Direction     Direction
	Description   string
	HasDefault    bool
	Default       Any
	DefaultString string
}
