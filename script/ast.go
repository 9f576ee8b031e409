// Package script implements the embedded expression sublanguage used in
// port defaults and pre/post tick condition scripts. The grammar is
// deliberately not JavaScript: `:=` declares,
// `..` concatenates strings, and comparisons chain (`1 < x < 10`
// evaluates as two comparisons ANDed together).
package script

import "github.com/thicketbt/thicket/anyvalue"

// Node is any expression in the parsed AST.
type Node interface {
	node()
}

// Literal is a constant value parsed directly from source text.
type Literal struct {
	Value anyvalue.Any
}

func (Literal) node() {}

// Name is an identifier, resolved against the enum registry and then the
// blackboard at evaluation time.
type Name struct {
	Ident string
}

func (Name) node() {}

// UnaryArith is a prefix operator: "-", "~", or "!".
type UnaryArith struct {
	Op      string
	Operand Node
}

func (UnaryArith) node() {}

// BinaryArith is an infix arithmetic/logical/bitwise/concatenation
// operator: one of "+ - * / .. | ^ & || &&".
type BinaryArith struct {
	Op          string
	Left, Right Node
}

func (BinaryArith) node() {}

// Comparison is a chained relational expression: `a < b <= c` means
// `a < b && b <= c`, evaluated left to right, short-circuiting on the
// first failing pair. Ops[i] relates Operands[i] to Operands[i+1].
type Comparison struct {
	Operands []Node
	Ops      []string
}

func (Comparison) node() {}

// If is a ternary conditional expression: `cond ? then : else`.
type If struct {
	Cond, Then, Else Node
}

func (If) node() {}

// Assignment mutates the blackboard entry named by Lhs and yields the
// assigned value. Op is one of "= := += -= *= /=".
type Assignment struct {
	Lhs string
	Op  string
	Rhs Node
}

func (Assignment) node() {}
