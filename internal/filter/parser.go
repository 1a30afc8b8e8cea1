package filter

import "strings"

type parser struct {
	src  string
	toks []token
	i    int
}

// Parse parses src into an expression tree without looking at any data.
// An empty or blank source yields a nil Expr and no error.
func Parse(src string) (Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, errAt(src, t.pos, "unexpected %s after complete expression", describe(t))
	}
	return e, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		op := p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "or", Left: left, Right: right, At: op.pos}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		op := p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "and", Left: left, Right: right, At: op.pos}
	}
	return left, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if t := p.peek(); t.kind == tokNot {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Not{X: x, At: t.pos}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if t := p.peek(); t.kind == tokLParen {
		p.next()
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, errAt(p.src, c.pos, "expected ')' but found %s", describe(c))
		}
		return e, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op := p.next()
	if op.kind != tokOp {
		if op.kind == tokLParen && left.Kind == OperandColumn {
			return nil, errAt(p.src, op.pos, "function calls are not allowed")
		}
		if op.kind == tokEOF || op.kind == tokAnd || op.kind == tokOr || op.kind == tokRParen {
			return nil, errAt(p.src, op.pos, "expected a comparison such as %s == value", left.String())
		}
		return nil, errAt(p.src, op.pos, "expected comparison operator but found %s", describe(op))
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp {
		return nil, errAt(p.src, t.pos, "chained comparisons are not allowed; join them with and")
	}
	return &Comparison{Op: op.text, Left: left, Right: right, At: op.pos}, nil
}

func (p *parser) parseOperand() (Operand, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		if n := p.peek(); n.kind == tokLParen {
			return Operand{}, errAt(p.src, n.pos, "function calls are not allowed")
		}
		return Operand{Kind: OperandColumn, Text: t.text, At: t.pos}, nil
	case tokString:
		return Operand{Kind: OperandString, Text: t.text, At: t.pos}, nil
	case tokNumber:
		return Operand{Kind: OperandNumber, Text: t.text, Num: t.num, At: t.pos}, nil
	case tokTrue, tokFalse:
		return Operand{Kind: OperandBool, Bool: t.kind == tokTrue, At: t.pos}, nil
	case tokNull:
		return Operand{Kind: OperandNull, At: t.pos}, nil
	case tokEOF:
		return Operand{}, errAt(p.src, t.pos, "unexpected end of expression")
	}
	return Operand{}, errAt(p.src, t.pos, "expected a column or value but found %s", describe(t))
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokString:
		return "string " + quoteString(t.text)
	}
	return "'" + t.text + "'"
}
