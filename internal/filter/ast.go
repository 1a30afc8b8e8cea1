package filter

import (
	"strconv"
	"strings"
)

// Expr is a node of a parsed filter expression.
type Expr interface {
	Pos() int
	String() string
}

// Logical joins two expressions with "and" or "or".
type Logical struct {
	Op    string
	Left  Expr
	Right Expr
	At    int
}

// Not negates its operand.
type Not struct {
	X  Expr
	At int
}

// Comparison compares two operands.
type Comparison struct {
	Op    string
	Left  Operand
	Right Operand
	At    int
}

// OperandKind classifies a comparison operand.
type OperandKind int

const (
	OperandColumn OperandKind = iota
	OperandString
	OperandNumber
	OperandBool
	OperandNull
)

// Operand is a column reference or a literal.
type Operand struct {
	Kind OperandKind
	Text string // column name, string value or number source
	Num  float64
	Bool bool
	At   int
}

func (e *Logical) Pos() int    { return e.At }
func (e *Not) Pos() int        { return e.At }
func (e *Comparison) Pos() int { return e.At }

func (e *Logical) String() string {
	return "(" + e.Left.String() + " " + e.Op + " " + e.Right.String() + ")"
}

func (e *Not) String() string { return "not " + e.X.String() }

func (e *Comparison) String() string {
	return e.Left.String() + " " + e.Op + " " + e.Right.String()
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandColumn:
		return formatIdent(o.Text)
	case OperandString:
		return quoteString(o.Text)
	case OperandNumber:
		return o.Text
	case OperandBool:
		return strconv.FormatBool(o.Bool)
	}
	return "null"
}

// formatIdent writes a column name so that it lexes back to itself.
func formatIdent(name string) string {
	if isPlainIdent(name) {
		return name
	}
	return "`" + name + "`"
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	if _, kw := keywords[strings.ToLower(name)]; kw {
		return false
	}
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentRune(r) {
			return false
		}
	}
	return true
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
