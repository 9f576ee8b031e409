package anyvalue

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type point struct {
	X, Y int
}

func TestNewAndTypeName(t *testing.T) {
	cases := []struct {
		in   any
		kind Kind
		name string
	}{
		{42, KindInt64, "int"},
		{int64(42), KindInt64, "int64"},
		{uint32(7), KindUint64, "uint32"},
		{3.14, KindFloat64, "float64"},
		{"hello", KindString, "string"},
		{true, KindBool, "bool"},
		{point{1, 2}, KindCustom, "anyvalue.point"},
	}
	for _, c := range cases {
		a := New(c.in)
		if a.Kind() != c.kind {
			t.Errorf("New(%v).Kind() = %v, want %v", c.in, a.Kind(), c.kind)
		}
		if a.TypeName() != c.name {
			t.Errorf("New(%v).TypeName() = %q, want %q", c.in, a.TypeName(), c.name)
		}
	}
}

func TestEmptyAny(t *testing.T) {
	var a Any
	if !a.Empty() {
		t.Errorf("zero Any should be Empty()")
	}
	if a.TypeName() != "<nil>" {
		t.Errorf("zero Any TypeName() = %q, want <nil>", a.TypeName())
	}
}

func TestTryCastNumericWidening(t *testing.T) {
	a := New(int64(7))
	f, err := TryCast[float64](a)
	if err != nil || f != 7.0 {
		t.Fatalf("TryCast[float64](7) = %v, %v", f, err)
	}
	u, err := TryCast[uint64](a)
	if err != nil || u != 7 {
		t.Fatalf("TryCast[uint64](7) = %v, %v", u, err)
	}
}

func TestTryCastOverflowRejected(t *testing.T) {
	a := New(int64(-1))
	if _, err := TryCast[uint64](a); err == nil {
		t.Fatalf("expected overflow error casting -1 to uint64")
	}
}

func TestTryCastStringToNumeric(t *testing.T) {
	a := New("123")
	i, err := TryCast[int64](a)
	if err != nil || i != 123 {
		t.Fatalf("TryCast[int64](\"123\") = %v, %v", i, err)
	}
}

func TestTryCastStringToBoolRejected(t *testing.T) {
	a := New("true")
	if _, err := TryCast[bool](a); err == nil {
		t.Fatalf("string->bool casting should be rejected, got nil error")
	}
}

func TestTryCastNumericToString(t *testing.T) {
	a := New(int64(99))
	s, err := TryCast[string](a)
	if err != nil || s != "99" {
		t.Fatalf("TryCast[string](99) = %q, %v", s, err)
	}
}

func TestTryCastFloatTruncationRejected(t *testing.T) {
	a := New(3.5)
	if _, err := TryCast[int64](a); err == nil {
		t.Fatalf("expected error casting 3.5 to int64 (not losslessly representable)")
	}
}

func TestCopyIntoPreservesCategory(t *testing.T) {
	var dst Any
	if err := dst.CopyInto(New(int64(5))); err != nil {
		t.Fatalf("first CopyInto into empty Any: %v", err)
	}
	if dst.Kind() != KindInt64 {
		t.Fatalf("dst.Kind() = %v, want KindInt64", dst.Kind())
	}
	if err := dst.CopyInto(New(int64(10))); err != nil {
		t.Fatalf("CopyInto same category: %v", err)
	}
	got, _ := TryCast[int64](dst)
	if got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
	if err := dst.CopyInto(New(true)); err == nil {
		t.Fatalf("expected CopyInto bool into int64 entry to fail")
	}
}

func TestCopyIntoNumericWidthCoercion(t *testing.T) {
	var dst Any
	if err := dst.CopyInto(New(float64(1.5))); err != nil {
		t.Fatalf("first CopyInto: %v", err)
	}
	if err := dst.CopyInto(New(int64(4))); err != nil {
		t.Fatalf("CopyInto int into float64 entry should succeed: %v", err)
	}
	got, _ := TryCast[float64](dst)
	if got != 4.0 {
		t.Fatalf("got %v, want 4.0", got)
	}
}

func TestEqualFloatEpsilon(t *testing.T) {
	a := New(1.0000000001)
	b := New(1.0000000002)
	if !Equal(a, b) {
		t.Errorf("values within Epsilon should compare equal")
	}
	c := New(1.1)
	if Equal(a, c) {
		t.Errorf("values outside Epsilon should not compare equal")
	}
}

func TestTryCastCustomStructRoundTrip(t *testing.T) {
	want := point{X: 3, Y: -4}
	a := New(want)
	got, err := TryCast[point](a)
	if err != nil {
		t.Fatalf("TryCast[point]: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round-tripped point differs (-want +got):\n%s", diff)
	}
}

func TestIsCastingSafe(t *testing.T) {
	a := New(int64(42))
	if !IsCastingSafe(typeOf[float64](), a) {
		t.Errorf("int64(42) should round-trip safely through float64")
	}
	b := New(3.5)
	if IsCastingSafe(typeOf[int64](), b) {
		t.Errorf("3.5 should not round-trip safely through int64")
	}
}

func TestIsTrueCoercion(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{"", false},
		{"x", true},
		{int64(0), false},
		{int64(5), true},
		{false, false},
		{true, true},
	}
	for _, c := range cases {
		got, err := IsTrue(New(c.in))
		if err != nil {
			t.Fatalf("IsTrue(%v): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("IsTrue(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func typeOf[T any]() reflect.Type {
	var zero T
	return reflect.TypeOf(zero)
}
