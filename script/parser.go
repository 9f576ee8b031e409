package script

import (
	"fmt"

	"github.com/thicketbt/thicket"
	"github.com/thicketbt/thicket/anyvalue"
)

// parser implements precedence-climbing recursive descent over the
// operator table below, lowest to highest:
// assignment < ternary < logical (||, &&) < concat (..) < bitor/xor
// (|, ^) < bitand (&) < comparison (chained) < additive < multiplicative
// < unary < atom.
type parser struct {
	toks []token
	pos  int
}

// Parse compiles src into an AST.
func Parse(src string) (Node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, thicket.WithStack(fmt.Errorf("script: unexpected trailing input %q at offset %d", p.cur().text, p.cur().pos))
	}
	return node, nil
}

func (p *parser) cur() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isOp(ops ...string) bool {
	if p.cur().kind != tokOp {
		return false
	}
	for _, op := range ops {
		if p.cur().text == op {
			return true
		}
	}
	return false
}

var assignOps = []string{":=", "=", "+=", "-=", "*=", "/="}

func (p *parser) parseAssignment() (Node, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if p.isOp(assignOps...) {
		name, ok := left.(Name)
		if !ok {
			return nil, thicket.WithStack(fmt.Errorf("script: left-hand side of assignment must be a name, at offset %d", p.cur().pos))
		}
		op := p.advance().text
		rhs, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return Assignment{Lhs: name.Ident, Op: op, Rhs: rhs}, nil
	}
	return left, nil
}

func (p *parser) parseTernary() (Node, error) {
	cond, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if p.cur().kind == tokQuestion {
		p.advance()
		then, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokColon {
			return nil, thicket.WithStack(fmt.Errorf("script: expected ':' in ternary expression at offset %d", p.cur().pos))
		}
		p.advance()
		elseNode, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		return If{Cond: cond, Then: then, Else: elseNode}, nil
	}
	return cond, nil
}

func (p *parser) parseLogicalOr() (Node, error) {
	left, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("||") {
		p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseLogicalAnd() (Node, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for p.isOp("&&") {
		p.advance()
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseConcat() (Node, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.isOp("..") {
		p.advance()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: "..", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseBitOr() (Node, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.isOp("|", "^") {
		op := p.advance().text
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseBitAnd() (Node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.isOp("&") {
		p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: "&", Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = []string{"==", "!=", "<=", ">=", "<", ">"}

func (p *parser) parseComparison() (Node, error) {
	first, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	var operands []Node
	var ops []string
	for p.isOp(comparisonOps...) {
		op := p.advance().text
		next, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if operands == nil {
			operands = append(operands, first)
		}
		ops = append(ops, op)
		operands = append(operands, next)
	}
	if operands == nil {
		return first, nil
	}
	return Comparison{Operands: operands, Ops: ops}, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.advance().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/") {
		op := p.advance().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryArith{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.isOp("-", "~", "!") {
		op := p.advance().text
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryArith{Op: op, Operand: operand}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Node, error) {
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.advance()
		v, err := parseNumberLiteral(t.text)
		if err != nil {
			return nil, err
		}
		return Literal{Value: anyvalue.New(v)}, nil
	case tokString:
		p.advance()
		return Literal{Value: anyvalue.New(t.text)}, nil
	case tokIdent:
		p.advance()
		switch t.text {
		case "true":
			return Literal{Value: anyvalue.New(true)}, nil
		case "false":
			return Literal{Value: anyvalue.New(false)}, nil
		}
		return Name{Ident: t.text}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if p.cur().kind != tokRParen {
			return nil, thicket.WithStack(fmt.Errorf("script: expected ')' at offset %d", p.cur().pos))
		}
		p.advance()
		return inner, nil
	default:
		return nil, thicket.WithStack(fmt.Errorf("script: unexpected token %q at offset %d", t.text, t.pos))
	}
}
