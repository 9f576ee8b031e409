package bt

import (
	"fmt"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/lang"
)

// LogicError marks a programmer/model contract violation detected at
// registration or instantiation time: duplicate id, invalid port name,
// a composite arity violation, and similar. These are fatal during tree
// construction and should never surface from a well-formed tick.
type LogicError struct {
	msg string
	err error
}

func (e *LogicError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("logic error: %s: %v", e.msg, e.err)
	}
	return "logic error: " + e.msg
}

func (e *LogicError) Unwrap() error { return e.err }

// NewLogicError constructs a LogicError, pluralizing count-sensitive
// phrasing via the lang package for readable user-facing messages.
func NewLogicError(format string, args ...any) error {
	return thicket.WithStack(&LogicError{msg: fmt.Sprintf(format, args...)})
}

// WrapLogicError wraps err as a LogicError with added context.
func WrapLogicError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return thicket.WithStack(&LogicError{msg: fmt.Sprintf(format, args...), err: err})
}

// RuntimeError marks an expected operational failure surfaced to callers
// of execute_tick or blackboard operations: missing port, unresolvable
// key, cast failure, script runtime failure, timer allocation failure.
// After a RuntimeError the tree's status is undefined until halted and
// re-driven.
type RuntimeError struct {
	msg string
	err error
}

func (e *RuntimeError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("runtime error: %s: %v", e.msg, e.err)
	}
	return "runtime error: " + e.msg
}

func (e *RuntimeError) Unwrap() error { return e.err }

// NewRuntimeError constructs a RuntimeError.
func NewRuntimeError(format string, args ...any) error {
	return thicket.WithStack(&RuntimeError{msg: fmt.Sprintf(format, args...)})
}

// WrapRuntimeError wraps err (e.g. one raised by anyvalue/blackboard/
// script, which don't import cycle back into bt) as a RuntimeError with
// added context.
func WrapRuntimeError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return thicket.WithStack(&RuntimeError{msg: fmt.Sprintf(format, args...), err: err})
}

// childCountError renders an arity-violation LogicError in pluralized,
// article-aware phrasing ("requires 2 or 3 children, got 5 children").
func childCountError(nodeKind string, want string, got int) error {
	return NewLogicError("%s requires %s, got %s", nodeKind, want, lang.Card(got, "child"))
}

// ChildCountError is childCountError exported for composite constructors
// living outside this package (control, decorator).
func ChildCountError(nodeKind string, want string, got int) error {
	return childCountError(nodeKind, want, got)
}
