package script

import (
	"fmt"
	"strings"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
	"github.com/thicketbt/thicket/blackboard"
)

// RuntimeError is raised for undefined names, unresolvable blackboard
// keys, bad assignment targets, and bitwise/arithmetic operands that
// can't be coerced.
type RuntimeError struct {
	msg string
}

func (e *RuntimeError) Error() string { return "script runtime error: " + e.msg }

func runtimeErrf(format string, args ...any) error {
	return thicket.WithStack(&RuntimeError{msg: fmt.Sprintf(format, args...)})
}

// Enums resolves an identifier to its integral enum value, consulted
// before the blackboard during Name evaluation. A nil
// Enums is treated as an empty registry.
type Enums interface {
	Lookup(name string) (int64, bool)
}

// Eval evaluates node against bb (for Name/Assignment lookups) and enums
// (for enum constant resolution), returning the resulting value.
func Eval(node Node, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	switch n := node.(type) {
	case Literal:
		return n.Value, nil
	case Name:
		return evalName(n, bb, enums)
	case UnaryArith:
		return evalUnary(n, bb, enums)
	case BinaryArith:
		return evalBinary(n, bb, enums)
	case Comparison:
		return evalComparison(n, bb, enums)
	case If:
		return evalIf(n, bb, enums)
	case Assignment:
		return evalAssignment(n, bb, enums)
	default:
		return anyvalue.Any{}, runtimeErrf("unknown AST node %T", node)
	}
}

func evalName(n Name, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	if enums != nil {
		if v, ok := enums.Lookup(n.Ident); ok {
			return anyvalue.New(v), nil
		}
	}
	v, err := bb.GetAny(n.Ident)
	if err != nil {
		return anyvalue.Any{}, runtimeErrf("undefined variable %q: %v", n.Ident, err)
	}
	return v, nil
}

func evalUnary(n UnaryArith, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	v, err := Eval(n.Operand, bb, enums)
	if err != nil {
		return anyvalue.Any{}, err
	}
	switch n.Op {
	case "-":
		if f, err := anyvalue.TryCast[float64](v); err == nil {
			if i, err2 := anyvalue.TryCast[int64](v); err2 == nil {
				return anyvalue.New(-i), nil
			}
			return anyvalue.New(-f), nil
		}
		return anyvalue.Any{}, runtimeErrf("unary '-' requires a numeric operand")
	case "~":
		i, err := anyvalue.TryCast[int64](v)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("unary '~' requires an integer operand: %v", err)
		}
		return anyvalue.New(^i), nil
	case "!":
		b, err := anyvalue.IsTrue(v)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("unary '!' requires a boolean-coercible operand: %v", err)
		}
		return anyvalue.New(!b), nil
	default:
		return anyvalue.Any{}, runtimeErrf("unknown unary operator %q", n.Op)
	}
}

func evalBinary(n BinaryArith, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	switch n.Op {
	case "||":
		l, err := Eval(n.Left, bb, enums)
		if err != nil {
			return anyvalue.Any{}, err
		}
		lb, err := anyvalue.IsTrue(l)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'||' left operand: %v", err)
		}
		if lb {
			return anyvalue.New(true), nil
		}
		r, err := Eval(n.Right, bb, enums)
		if err != nil {
			return anyvalue.Any{}, err
		}
		rb, err := anyvalue.IsTrue(r)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'||' right operand: %v", err)
		}
		return anyvalue.New(rb), nil
	case "&&":
		l, err := Eval(n.Left, bb, enums)
		if err != nil {
			return anyvalue.Any{}, err
		}
		lb, err := anyvalue.IsTrue(l)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'&&' left operand: %v", err)
		}
		if !lb {
			return anyvalue.New(false), nil
		}
		r, err := Eval(n.Right, bb, enums)
		if err != nil {
			return anyvalue.Any{}, err
		}
		rb, err := anyvalue.IsTrue(r)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'&&' right operand: %v", err)
		}
		return anyvalue.New(rb), nil
	}

	l, err := Eval(n.Left, bb, enums)
	if err != nil {
		return anyvalue.Any{}, err
	}
	r, err := Eval(n.Right, bb, enums)
	if err != nil {
		return anyvalue.Any{}, err
	}
	return applyBinary(n.Op, l, r)
}

func applyBinary(op string, l, r anyvalue.Any) (anyvalue.Any, error) {
	switch op {
	case "..":
		ls, err := anyvalue.TryCast[string](l)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'..' left operand not stringable: %v", err)
		}
		rs, err := anyvalue.TryCast[string](r)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'..' right operand not stringable: %v", err)
		}
		return anyvalue.New(ls + rs), nil
	case "+":
		if l.Kind() == anyvalue.KindString || r.Kind() == anyvalue.KindString {
			ls, err1 := anyvalue.TryCast[string](l)
			rs, err2 := anyvalue.TryCast[string](r)
			if err1 == nil && err2 == nil {
				return anyvalue.New(ls + rs), nil
			}
		}
		return numericBinary(op, l, r)
	case "-", "*", "/":
		return numericBinary(op, l, r)
	case "|", "^", "&":
		li, err := anyvalue.TryCast[int64](l)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("%q left operand not integer-castable: %v", op, err)
		}
		ri, err := anyvalue.TryCast[int64](r)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("%q right operand not integer-castable: %v", op, err)
		}
		switch op {
		case "|":
			return anyvalue.New(li | ri), nil
		case "^":
			return anyvalue.New(li ^ ri), nil
		case "&":
			return anyvalue.New(li & ri), nil
		}
	}
	return anyvalue.Any{}, runtimeErrf("unknown binary operator %q", op)
}

func numericBinary(op string, l, r anyvalue.Any) (anyvalue.Any, error) {
	bothInt := l.Kind() != anyvalue.KindFloat64 && r.Kind() != anyvalue.KindFloat64
	lf, err := anyvalue.TryCast[float64](l)
	if err != nil {
		return anyvalue.Any{}, runtimeErrf("%q left operand not numeric: %v", op, err)
	}
	rf, err := anyvalue.TryCast[float64](r)
	if err != nil {
		return anyvalue.Any{}, runtimeErrf("%q right operand not numeric: %v", op, err)
	}
	var result float64
	switch op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return anyvalue.Any{}, runtimeErrf("division by zero")
		}
		result = lf / rf
	}
	if bothInt && result == float64(int64(result)) {
		return anyvalue.New(int64(result)), nil
	}
	return anyvalue.New(result), nil
}

func evalComparison(n Comparison, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	values := make([]anyvalue.Any, len(n.Operands))
	for i, operand := range n.Operands {
		v, err := Eval(operand, bb, enums)
		if err != nil {
			return anyvalue.Any{}, err
		}
		values[i] = v
	}
	for i, op := range n.Ops {
		ok, err := compareOp(op, values[i], values[i+1])
		if err != nil {
			return anyvalue.Any{}, err
		}
		if !ok {
			return anyvalue.New(false), nil
		}
	}
	return anyvalue.New(true), nil
}

func compareOp(op string, l, r anyvalue.Any) (bool, error) {
	if op == "==" {
		return anyvalue.Equal(l, r), nil
	}
	if op == "!=" {
		return !anyvalue.Equal(l, r), nil
	}
	if l.Kind() == anyvalue.KindString && r.Kind() == anyvalue.KindString {
		ls, _ := anyvalue.TryCast[string](l)
		rs, _ := anyvalue.TryCast[string](r)
		switch op {
		case "<":
			return strings.Compare(ls, rs) < 0, nil
		case ">":
			return strings.Compare(ls, rs) > 0, nil
		case "<=":
			return strings.Compare(ls, rs) <= 0, nil
		case ">=":
			return strings.Compare(ls, rs) >= 0, nil
		}
	}
	lf, err := anyvalue.TryCast[float64](l)
	if err != nil {
		return false, runtimeErrf("comparison %q: left operand not comparable: %v", op, err)
	}
	rf, err := anyvalue.TryCast[float64](r)
	if err != nil {
		return false, runtimeErrf("comparison %q: right operand not comparable: %v", op, err)
	}
	switch op {
	case "<":
		return lf < rf, nil
	case ">":
		return lf > rf, nil
	case "<=":
		return lf <= rf, nil
	case ">=":
		return lf >= rf, nil
	default:
		return false, runtimeErrf("unknown comparison operator %q", op)
	}
}

func evalIf(n If, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	c, err := Eval(n.Cond, bb, enums)
	if err != nil {
		return anyvalue.Any{}, err
	}
	truthy, err := anyvalue.IsTrue(c)
	if err != nil {
		return anyvalue.Any{}, runtimeErrf("if condition: %v", err)
	}
	if truthy {
		return Eval(n.Then, bb, enums)
	}
	return Eval(n.Else, bb, enums)
}

func evalAssignment(n Assignment, bb *blackboard.Blackboard, enums Enums) (anyvalue.Any, error) {
	rhs, err := Eval(n.Rhs, bb, enums)
	if err != nil {
		return anyvalue.Any{}, err
	}

	switch n.Op {
	case ":=":
		if err := bb.SetAny(n.Lhs, rhs); err != nil {
			return anyvalue.Any{}, runtimeErrf("':=' %q: %v", n.Lhs, err)
		}
		return rhs, nil
	case "=":
		if _, err := bb.GetAny(n.Lhs); err != nil {
			return anyvalue.Any{}, runtimeErrf("'=' requires %q to already exist: %v", n.Lhs, err)
		}
		if err := bb.SetAny(n.Lhs, rhs); err != nil {
			return anyvalue.Any{}, runtimeErrf("'=' %q: %v", n.Lhs, err)
		}
		return rhs, nil
	case "+=", "-=", "*=", "/=":
		current, err := bb.GetAny(n.Lhs)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("%q requires %q to already exist and be initialised: %v", n.Op, n.Lhs, err)
		}
		if current.Empty() {
			return anyvalue.Any{}, runtimeErrf("%q requires %q to already be initialised", n.Op, n.Lhs)
		}
		updated, err := applyCompoundOp(n.Op, current, rhs)
		if err != nil {
			return anyvalue.Any{}, err
		}
		if err := bb.SetAny(n.Lhs, updated); err != nil {
			return anyvalue.Any{}, runtimeErrf("%q %q: %v", n.Op, n.Lhs, err)
		}
		return updated, nil
	default:
		return anyvalue.Any{}, runtimeErrf("unknown assignment operator %q", n.Op)
	}
}

func applyCompoundOp(op string, current, rhs anyvalue.Any) (anyvalue.Any, error) {
	if op == "+=" && current.Kind() == anyvalue.KindString {
		cs, _ := anyvalue.TryCast[string](current)
		rs, err := anyvalue.TryCast[string](rhs)
		if err != nil {
			return anyvalue.Any{}, runtimeErrf("'+=' on string requires a stringable right operand: %v", err)
		}
		return anyvalue.New(cs + rs), nil
	}
	baseOp := strings.TrimSuffix(op, "=")
	return numericBinary(baseOp, current, rhs)
}
