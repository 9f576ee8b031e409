// Package anyvalue implements Any, the type-erased value carried by every
// blackboard entry and script expression result. Rather than lean on
// reflection-heavy interface{} boxing for every
// comparison, Any keeps a small tagged union of the handful of internal
// shapes values can take (int64, uint64, float64, string, bool, or an
// arbitrary "custom" payload), plus the original declared type, so widened
// numerics can still be cast back to their original width losslessly.
package anyvalue

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	goccy "github.com/goccy/go-json"

	"github.com/thicketbt/thicket"
)

// Epsilon is the tolerance used when comparing two floating point values
// for equality, in script comparisons and Switch case matching. Integers
// are always compared exactly; this never enters that path.
const Epsilon = 1e-9

// Kind identifies Any's internal storage bucket.
type Kind uint8

const (
	// KindInvalid marks an empty, default-constructed Any.
	KindInvalid Kind = iota
	KindInt64
	KindUint64
	KindFloat64
	KindString
	KindBool
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindCustom:
		return "custom"
	default:
		return "invalid"
	}
}

// Any is a type-erased value distinguishing its internal storage bucket
// from the declared (original) type it was constructed with.
type Any struct {
	kind     Kind
	declared reflect.Type

	i64    int64
	u64    uint64
	f64    float64
	str    string
	b      bool
	custom any
}

// typeOfNil is what Type() returns for a default-constructed Any, mirroring
// "querying it after construction-default yields typeid(nullptr)".
var typeOfNil reflect.Type

// Empty reports whether a is the zero value (never written).
func (a Any) Empty() bool {
	return a.kind == KindInvalid
}

// Kind returns a's internal storage bucket.
func (a Any) Kind() Kind {
	return a.kind
}

// Type returns a's declared (original) type, or nil if a is empty.
func (a Any) Type() reflect.Type {
	return a.declared
}

// TypeName renders a's declared type as a human-readable string, or
// "<nil>" if a is empty.
func (a Any) TypeName() string {
	if a.declared == nil {
		return "<nil>"
	}
	return a.declared.String()
}

// New constructs an Any from any Go value, widening integers to int64 (or
// uint64 for unsigned types) and floats to float64, and preserving the
// original type for later narrowing.
func New(v any) Any {
	if v == nil {
		return Any{}
	}
	declared := reflect.TypeOf(v)
	switch x := v.(type) {
	case int:
		return Any{kind: KindInt64, declared: declared, i64: int64(x)}
	case int8:
		return Any{kind: KindInt64, declared: declared, i64: int64(x)}
	case int16:
		return Any{kind: KindInt64, declared: declared, i64: int64(x)}
	case int32:
		return Any{kind: KindInt64, declared: declared, i64: int64(x)}
	case int64:
		return Any{kind: KindInt64, declared: declared, i64: x}
	case uint:
		return Any{kind: KindUint64, declared: declared, u64: uint64(x)}
	case uint8:
		return Any{kind: KindUint64, declared: declared, u64: uint64(x)}
	case uint16:
		return Any{kind: KindUint64, declared: declared, u64: uint64(x)}
	case uint32:
		return Any{kind: KindUint64, declared: declared, u64: uint64(x)}
	case uint64:
		return Any{kind: KindUint64, declared: declared, u64: x}
	case float32:
		return Any{kind: KindFloat64, declared: declared, f64: float64(x)}
	case float64:
		return Any{kind: KindFloat64, declared: declared, f64: x}
	case string:
		return Any{kind: KindString, declared: declared, str: x}
	case bool:
		return Any{kind: KindBool, declared: declared, b: x}
	default:
		return Any{kind: KindCustom, declared: declared, custom: v}
	}
}

// isUnsignedDeclared reports whether a's declared type is an unsigned
// integer kind, used by the port layer to decide whether an Int64 bucket should widen
// back to int, int32, etc. on narrowing.
func (a Any) isUnsignedDeclared() bool {
	if a.declared == nil {
		return false
	}
	switch a.declared.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// CopyInto updates dst's *value* while preserving dst's existing internal
// category (numeric bucket width, string, or custom type). If dst is
// empty, it adopts src's
// representation wholesale (first write). Otherwise src must be
// losslessly convertible into dst's bucket or CopyInto fails and dst is
// left untouched.
func (dst *Any) CopyInto(src Any) error {
	if dst.Empty() {
		*dst = src
		return nil
	}
	switch dst.kind {
	case KindInt64:
		i, err := toInt64(src)
		if err != nil {
			return thicket.WithStack(fmt.Errorf("copy into int64 entry: %w", err))
		}
		dst.i64 = i
	case KindUint64:
		u, err := toUint64(src)
		if err != nil {
			return thicket.WithStack(fmt.Errorf("copy into uint64 entry: %w", err))
		}
		dst.u64 = u
	case KindFloat64:
		f, err := toFloat64(src)
		if err != nil {
			return thicket.WithStack(fmt.Errorf("copy into float64 entry: %w", err))
		}
		dst.f64 = f
	case KindString:
		s, err := toStringValue(src)
		if err != nil {
			return thicket.WithStack(fmt.Errorf("copy into string entry: %w", err))
		}
		dst.str = s
	case KindBool:
		if src.kind != KindBool {
			return thicket.WithStack(fmt.Errorf("copy into bool entry: %s is not a bool", src.kind))
		}
		dst.b = src.b
	case KindCustom:
		if src.kind != KindCustom || src.declared != dst.declared {
			return thicket.WithStack(fmt.Errorf("copy into custom entry of type %s: incompatible source", dst.TypeName()))
		}
		dst.custom = src.custom
	default:
		return thicket.WithStack(fmt.Errorf("copy into invalid entry"))
	}
	return nil
}

// Equal reports whether a and b represent the same value, using Epsilon
// for float comparisons and exact comparison for everything else.
func Equal(a, b Any) bool {
	if a.kind == KindFloat64 || b.kind == KindFloat64 {
		af, aerr := toFloat64(a)
		bf, berr := toFloat64(b)
		if aerr != nil || berr != nil {
			return false
		}
		return math.Abs(af-bf) <= Epsilon
	}
	switch a.kind {
	case KindInt64:
		bi, err := toInt64(b)
		return err == nil && a.i64 == bi
	case KindUint64:
		bu, err := toUint64(b)
		return err == nil && a.u64 == bu
	case KindString:
		bs, err := toStringValue(b)
		return err == nil && a.str == bs
	case KindBool:
		return b.kind == KindBool && a.b == b.b
	case KindCustom:
		return b.kind == KindCustom && a.declared == b.declared && reflect.DeepEqual(a.custom, b.custom)
	default:
		return b.kind == KindInvalid
	}
}

// TryCast narrows/widens a into T, following this resolution order:
// identity, numeric<->numeric (range checked), string->
// numeric (rejecting bool), and finally a registered JSON converter for
// custom types. Enum<->integer resolution is not done here: the script
// evaluator and control.Switch look enum names up in a script.Enums
// table themselves.
func TryCast[T any](a Any) (T, error) {
	var zero T
	target := reflect.TypeOf(zero)
	v, err := castTo(a, target)
	if err != nil {
		return zero, err
	}
	result, ok := v.(T)
	if !ok {
		return zero, thicket.WithStack(fmt.Errorf("cast produced %T, want %T", v, zero))
	}
	return result, nil
}

// Native narrows a back to its declared type, returning it as a plain Go
// value suitable for JSON marshalling or other reflection-based use. An
// empty Any returns nil.
func (a Any) Native() (any, error) {
	if a.declared == nil {
		return nil, nil
	}
	return castTo(a, a.declared)
}

func castTo(a Any, target reflect.Type) (any, error) {
	if target == nil {
		return nil, thicket.WithStack(fmt.Errorf("cast target type is nil"))
	}
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(a)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(i).Convert(target).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := toUint64(a)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(u).Convert(target).Interface(), nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(a)
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(f).Convert(target).Interface(), nil
	case reflect.String:
		s, err := toStringValue(a)
		if err != nil {
			return nil, err
		}
		return s, nil
	case reflect.Bool:
		if a.kind != KindBool {
			return nil, thicket.WithStack(fmt.Errorf("cannot cast %s to bool", a.kind))
		}
		return a.b, nil
	default:
		if a.kind == KindCustom && a.declared == target {
			return a.custom, nil
		}
		if a.kind == KindString {
			return FromJSON(target, a.str)
		}
		return nil, thicket.WithStack(fmt.Errorf("cannot cast %s to %s", a.kind, target))
	}
}

func toInt64(a Any) (int64, error) {
	switch a.kind {
	case KindInt64:
		return a.i64, nil
	case KindUint64:
		if a.u64 > math.MaxInt64 {
			return 0, thicket.WithStack(fmt.Errorf("uint64 value %d overflows int64", a.u64))
		}
		return int64(a.u64), nil
	case KindFloat64:
		if a.f64 != math.Trunc(a.f64) || a.f64 < math.MinInt64 || a.f64 > math.MaxInt64 {
			return 0, thicket.WithStack(fmt.Errorf("float64 value %v is not losslessly representable as int64", a.f64))
		}
		return int64(a.f64), nil
	case KindString:
		i, err := strconv.ParseInt(a.str, 0, 64)
		if err != nil {
			return 0, thicket.WithStack(fmt.Errorf("parse %q as int64: %w", a.str, err))
		}
		return i, nil
	default:
		return 0, thicket.WithStack(fmt.Errorf("cannot cast %s to int64", a.kind))
	}
}

func toUint64(a Any) (uint64, error) {
	switch a.kind {
	case KindUint64:
		return a.u64, nil
	case KindInt64:
		if a.i64 < 0 {
			return 0, thicket.WithStack(fmt.Errorf("negative int64 %d cannot cast to uint64", a.i64))
		}
		return uint64(a.i64), nil
	case KindFloat64:
		if a.f64 != math.Trunc(a.f64) || a.f64 < 0 || a.f64 > math.MaxUint64 {
			return 0, thicket.WithStack(fmt.Errorf("float64 value %v is not losslessly representable as uint64", a.f64))
		}
		return uint64(a.f64), nil
	case KindString:
		u, err := strconv.ParseUint(a.str, 0, 64)
		if err != nil {
			return 0, thicket.WithStack(fmt.Errorf("parse %q as uint64: %w", a.str, err))
		}
		return u, nil
	default:
		return 0, thicket.WithStack(fmt.Errorf("cannot cast %s to uint64", a.kind))
	}
}

func toFloat64(a Any) (float64, error) {
	switch a.kind {
	case KindFloat64:
		return a.f64, nil
	case KindInt64:
		return float64(a.i64), nil
	case KindUint64:
		return float64(a.u64), nil
	case KindString:
		f, err := strconv.ParseFloat(a.str, 64)
		if err != nil {
			return 0, thicket.WithStack(fmt.Errorf("parse %q as float64: %w", a.str, err))
		}
		return f, nil
	default:
		return 0, thicket.WithStack(fmt.Errorf("cannot cast %s to float64", a.kind))
	}
}

func toStringValue(a Any) (string, error) {
	switch a.kind {
	case KindString:
		return a.str, nil
	case KindInt64:
		return strconv.FormatInt(a.i64, 10), nil
	case KindUint64:
		return strconv.FormatUint(a.u64, 10), nil
	case KindFloat64:
		return strconv.FormatFloat(a.f64, 'g', -1, 64), nil
	case KindBool:
		// bool->string formatting is allowed; string->bool parsing
		// (via ParseBool) is rejected elsewhere.
		return strconv.FormatBool(a.b), nil
	default:
		return "", thicket.WithStack(fmt.Errorf("cannot cast %s to string", a.kind))
	}
}

// IsCastingSafe verifies a lossless round-trip value -> dst -> value.
func IsCastingSafe(dstType reflect.Type, value Any) bool {
	converted, err := castTo(value, dstType)
	if err != nil {
		return false
	}
	back := New(converted)
	return Equal(value, back)
}

// customConverters holds registered string->Any converters for custom
// (non-numeric, non-string) declared types, keyed by declared type. This
// backs TypeInfo's optional converter for the common case
// of "parse via JSON".
var customConverters = map[reflect.Type]func(string) (Any, error){}

// RegisterJSONConverter registers FromJSON as the string->Any converter
// for T, so port defaults and blackboard writes of string form can be
// parsed into T via JSON unmarshalling.
func RegisterJSONConverter[T any]() {
	var zero T
	t := reflect.TypeOf(zero)
	customConverters[t] = func(s string) (Any, error) {
		v, err := FromJSON(t, s)
		if err != nil {
			return Any{}, err
		}
		return New(v), nil
	}
}

// FromJSON unmarshals raw into a new value of type target and returns it
// as a plain Go value (not wrapped in an Any). Used as the fallback "registered JSON-based
// FromJson" converter for custom port/blackboard types.
func FromJSON(target reflect.Type, raw string) (any, error) {
	ptr := reflect.New(target)
	if err := goccy.Unmarshal([]byte(raw), ptr.Interface()); err != nil {
		return nil, thicket.WithStack(fmt.Errorf("unmarshal %q into %s: %w", raw, target, err))
	}
	return ptr.Elem().Interface(), nil
}

// ConverterFor returns the registered string->Any converter for t, if
// any.
func ConverterFor(t reflect.Type) (func(string) (Any, error), bool) {
	c, ok := customConverters[t]
	return c, ok
}

// IsTrue implements boolean coercion for if/logical contexts: a string
// is true iff non-empty, a number is true iff non-zero, and a bool is
// itself.
func IsTrue(a Any) (bool, error) {
	switch a.kind {
	case KindBool:
		return a.b, nil
	case KindString:
		return a.str != "", nil
	case KindInt64:
		return a.i64 != 0, nil
	case KindUint64:
		return a.u64 != 0, nil
	case KindFloat64:
		return a.f64 != 0, nil
	default:
		return false, thicket.WithStack(fmt.Errorf("cannot coerce %s to bool", a.kind))
	}
}
