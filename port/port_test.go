package port

import (
	"testing"

	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/blackboard"
)

func TestParsePointer(t *testing.T) {
	cases := []struct {
		raw      string
		isPtr    bool
		sameName bool
		key      string
	}{
		{"{foo}", true, false, "foo"},
		{"  { foo } ", true, false, "foo"},
		{"{=}", true, true, ""},
		{"=", true, true, ""},
		{"foo", false, false, ""},
		{"123", false, false, ""},
	}
	for _, c := range cases {
		p, ok := ParsePointer(c.raw)
		if ok != c.isPtr {
			t.Errorf("ParsePointer(%q) isPtr = %v, want %v", c.raw, ok, c.isPtr)
			continue
		}
		if !ok {
			continue
		}
		if p.SameName != c.sameName || p.Key != c.key {
			t.Errorf("ParsePointer(%q) = %+v, want sameName=%v key=%q", c.raw, p, c.sameName, c.key)
		}
	}
}

func TestReadInputFromBlackboardPointer(t *testing.T) {
	bb := blackboard.New(nil)
	_ = bb.Set("x", int64(42))
	v, err := ReadInput[int64](bb, "speed", "{x}", true, anyvalue.PortInfo{Name: "speed"})
	if err != nil || v != 42 {
		t.Fatalf("got %v, %v; want 42", v, err)
	}
}

func TestReadInputSameNamePointer(t *testing.T) {
	bb := blackboard.New(nil)
	_ = bb.Set("speed", int64(7))
	v, err := ReadInput[int64](bb, "speed", "{=}", true, anyvalue.PortInfo{Name: "speed"})
	if err != nil || v != 7 {
		t.Fatalf("got %v, %v; want 7", v, err)
	}
}

func TestReadInputLiteralString(t *testing.T) {
	bb := blackboard.New(nil)
	info := anyvalue.PortInfo{Name: "label", TypeInfo: anyvalue.TypeInfoFor(anyvalue.New("").Type())}
	v, err := ReadInput[string](bb, "label", "hello", true, info)
	if err != nil || v != "hello" {
		t.Fatalf("got %v, %v; want hello", v, err)
	}
}

func TestReadInputLiteralNumeric(t *testing.T) {
	bb := blackboard.New(nil)
	info := anyvalue.PortInfo{Name: "n", TypeInfo: anyvalue.TypeInfoFor(anyvalue.New(int64(0)).Type())}
	v, err := ReadInput[int64](bb, "n", "99", true, info)
	if err != nil || v != 99 {
		t.Fatalf("got %v, %v; want 99", v, err)
	}
}

func TestReadInputUnsetUsesDefault(t *testing.T) {
	bb := blackboard.New(nil)
	info := anyvalue.PortInfo{Name: "n", HasDefault: true, Default: anyvalue.New(int64(5))}
	v, err := ReadInput[int64](bb, "n", "", false, info)
	if err != nil || v != 5 {
		t.Fatalf("got %v, %v; want default 5", v, err)
	}
}

func TestReadInputUnsetNoDefaultErrors(t *testing.T) {
	bb := blackboard.New(nil)
	if _, err := ReadInput[int64](bb, "n", "", false, anyvalue.PortInfo{Name: "n"}); err == nil {
		t.Fatalf("expected error for unset port with no default")
	}
}

func TestWriteOutputRequiresPointer(t *testing.T) {
	bb := blackboard.New(nil)
	if err := WriteOutput(bb, "out", "literal", true, anyvalue.New(int64(1))); err == nil {
		t.Fatalf("expected error writing to a non-pointer output port")
	}
}

func TestWriteOutputToPointer(t *testing.T) {
	bb := blackboard.New(nil)
	if err := WriteOutput(bb, "out", "{target}", true, anyvalue.New(int64(9))); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	v, err := blackboard.Get[int64](bb, "target")
	if err != nil || v != 9 {
		t.Fatalf("got %v, %v; want 9", v, err)
	}
}

func TestLiteralCacheMemoizes(t *testing.T) {
	c := NewLiteralCache()
	calls := 0
	info := anyvalue.TypeInfo{Name: "counted", Converter: func(s string) (anyvalue.Any, error) {
		calls++
		return anyvalue.New(s), nil
	}}
	if _, err := c.Parse(info, "a"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := c.Parse(info, "a"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if calls != 1 {
		t.Fatalf("converter called %d times, want 1", calls)
	}
}
