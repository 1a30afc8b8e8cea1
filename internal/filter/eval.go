package filter

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
)

// Mask marks the rows kept by a filter.
type Mask []bool

// Count returns the number of selected rows.
func (m Mask) Count() int {
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// All returns a mask selecting n rows.
func All(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = true
	}
	return m
}

// Program is an expression resolved and type-checked against a dataset schema.
type Program struct {
	Source string
	Expr   Expr
	root   node
}

// Compile parses src and checks every column reference and literal against ds.
func Compile(src string, ds *dataset.Dataset) (*Program, error) {
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	prog := &Program{Source: src, Expr: e}
	if e == nil {
		return prog, nil
	}
	c := &checker{src: src, ds: ds}
	root, err := c.check(e)
	if err != nil {
		return nil, err
	}
	prog.root = root
	return prog, nil
}

// Eval returns the mask of ds rows matching the program. Columns are looked
// up by name, so ds may be any dataset sharing the compiled schema; a column
// that is absent matches no rows.
func (p *Program) Eval(ds *dataset.Dataset) Mask {
	n := ds.Len()
	if p == nil || p.root == nil {
		return All(n)
	}
	pred := p.root.bind(ds)
	m := make(Mask, n)
	for i := 0; i < n; i++ {
		m[i] = pred(i)
	}
	return m
}

// Evaluate compiles src against ds and evaluates it.
func Evaluate(ds *dataset.Dataset, src string) (Mask, error) {
	prog, err := Compile(src, ds)
	if err != nil {
		return nil, err
	}
	return prog.Eval(ds), nil
}

// Apply returns the rows of ds matching src along with the mask. On error ds
// is returned unchanged.
func Apply(ds *dataset.Dataset, src string) (*dataset.Dataset, Mask, error) {
	prog, err := Compile(src, ds)
	if err != nil {
		return ds, nil, err
	}
	if prog.root == nil {
		return ds, All(ds.Len()), nil
	}
	m := prog.Eval(ds)
	return ds.Select(m), m, nil
}

type node interface {
	bind(ds *dataset.Dataset) func(row int) bool
}

type andNode struct{ l, r node }
type orNode struct{ l, r node }
type notNode struct{ x node }

func (n andNode) bind(ds *dataset.Dataset) func(int) bool {
	l, r := n.l.bind(ds), n.r.bind(ds)
	return func(i int) bool { return l(i) && r(i) }
}

func (n orNode) bind(ds *dataset.Dataset) func(int) bool {
	l, r := n.l.bind(ds), n.r.bind(ds)
	return func(i int) bool { return l(i) || r(i) }
}

func (n notNode) bind(ds *dataset.Dataset) func(int) bool {
	x := n.x.bind(ds)
	return func(i int) bool { return !x(i) }
}

// domain is the value space a comparison is carried out in.
type domain int

const (
	domNumber domain = iota
	domTime
	domBool
	domString
)

type literal struct {
	null bool
	num  float64
	t    time.Time
	b    bool
	s    string
}

// cmpNode compares column left with either column right or a literal.
type cmpNode struct {
	op    string
	dom   domain
	left  string
	right string // empty when comparing to lit
	lit   literal
}

func (n cmpNode) bind(ds *dataset.Dataset) func(int) bool {
	lc, ok := ds.Column(n.left)
	if !ok {
		return func(int) bool { return false }
	}
	if n.right == "" {
		if n.lit.null {
			want := n.op == "=="
			return func(i int) bool { return lc.Values[i].Null == want }
		}
		return func(i int) bool {
			v := lc.Values[i]
			if v.Null {
				return false
			}
			return n.compare(v, n.lit)
		}
	}
	rc, ok := ds.Column(n.right)
	if !ok {
		return func(int) bool { return false }
	}
	return func(i int) bool {
		a, b := lc.Values[i], rc.Values[i]
		if a.Null || b.Null {
			return false
		}
		return n.compare(a, literal{num: b.Num, t: b.Time, b: b.Bool, s: b.Raw})
	}
}

func (n cmpNode) compare(v dataset.Value, lit literal) bool {
	var c int
	switch n.dom {
	case domNumber:
		c = cmpFloat(v.Num, lit.num)
	case domTime:
		c = v.Time.Compare(lit.t)
	case domBool:
		if v.Bool == lit.b {
			c = 0
		} else {
			c = 1
		}
	default:
		c = strings.Compare(v.Raw, lit.s)
	}
	switch n.op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type checker struct {
	src string
	ds  *dataset.Dataset
}

func (c *checker) check(e Expr) (node, error) {
	switch e := e.(type) {
	case *Logical:
		l, err := c.check(e.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.check(e.Right)
		if err != nil {
			return nil, err
		}
		if e.Op == "and" {
			return andNode{l, r}, nil
		}
		return orNode{l, r}, nil
	case *Not:
		x, err := c.check(e.X)
		if err != nil {
			return nil, err
		}
		return notNode{x}, nil
	case *Comparison:
		return c.comparison(e)
	}
	return nil, errAt(c.src, e.Pos(), "unsupported expression")
}

var mirror = map[string]string{"==": "==", "!=": "!=", "<": ">", "<=": ">=", ">": "<", ">=": "<="}

func (c *checker) comparison(e *Comparison) (node, error) {
	left, right, op := e.Left, e.Right, e.Op
	if left.Kind != OperandColumn && right.Kind == OperandColumn {
		left, right, op = right, left, mirror[op]
	}
	if left.Kind != OperandColumn {
		return nil, errAt(c.src, e.At, "comparison must reference a column")
	}
	lc, err := c.column(left)
	if err != nil {
		return nil, err
	}
	if right.Kind == OperandNull {
		if op != "==" && op != "!=" {
			return nil, errAt(c.src, right.At, "null can only be compared with == or !=")
		}
		return cmpNode{op: op, left: lc.Name, lit: literal{null: true}}, nil
	}
	dom := domainOf(lc.Kind)
	if dom == domBool && op != "==" && op != "!=" {
		return nil, c.mismatch(lc, e.At, "boolean columns only support == and !=")
	}
	if right.Kind == OperandColumn {
		rc, err := c.column(right)
		if err != nil {
			return nil, err
		}
		if domainOf(rc.Kind) != dom {
			return nil, c.mismatch(lc, e.At, "cannot compare "+string(lc.Kind)+" column with "+string(rc.Kind)+" column "+strconv.Quote(rc.Name))
		}
		return cmpNode{op: op, dom: dom, left: lc.Name, right: rc.Name}, nil
	}
	lit, err := c.literal(lc, dom, right)
	if err != nil {
		return nil, err
	}
	return cmpNode{op: op, dom: dom, left: lc.Name, lit: lit}, nil
}

func (c *checker) column(o Operand) (*dataset.Column, error) {
	col, ok := c.ds.Column(o.Text)
	if !ok {
		names := c.ds.Names()
		sort.Strings(names)
		return nil, &FilterError{
			Expr:   c.src,
			Pos:    o.At,
			Reason: "unknown column " + strconv.Quote(o.Text) + " (available: " + strings.Join(names, ", ") + ")",
			Column: o.Text,
		}
	}
	return col, nil
}

func (c *checker) literal(col *dataset.Column, dom domain, o Operand) (literal, error) {
	switch dom {
	case domNumber:
		switch o.Kind {
		case OperandNumber:
			return literal{num: o.Num}, nil
		case OperandString:
			if f, err := strconv.ParseFloat(strings.TrimSpace(o.Text), 64); err == nil && !math.IsNaN(f) {
				return literal{num: f}, nil
			}
		}
		return literal{}, c.mismatch(col, o.At, "numeric column compared with "+o.String())
	case domTime:
		if o.Kind == OperandString {
			if t, ok := col.ParseTime(o.Text); ok {
				return literal{t: t}, nil
			}
			return literal{}, c.mismatch(col, o.At, "cannot read "+o.String()+" as a date")
		}
		return literal{}, c.mismatch(col, o.At, "datetime column compared with "+o.String()+"; use a quoted date")
	case domBool:
		switch o.Kind {
		case OperandBool:
			return literal{b: o.Bool}, nil
		case OperandString:
			switch strings.ToLower(strings.TrimSpace(o.Text)) {
			case "true":
				return literal{b: true}, nil
			case "false":
				return literal{b: false}, nil
			}
		case OperandNumber:
			if o.Num == 0 || o.Num == 1 {
				return literal{b: o.Num == 1}, nil
			}
		}
		return literal{}, c.mismatch(col, o.At, "boolean column compared with "+o.String())
	}
	switch o.Kind {
	case OperandString:
		return literal{s: o.Text}, nil
	case OperandNumber:
		return literal{s: o.Text}, nil
	}
	return literal{}, c.mismatch(col, o.At, string(col.Kind)+" column compared with "+o.String())
}

func (c *checker) mismatch(col *dataset.Column, pos int, reason string) *FilterError {
	return &FilterError{Expr: c.src, Pos: pos, Reason: "type mismatch on " + strconv.Quote(col.Name) + ": " + reason, Column: col.Name}
}

func domainOf(k dataset.Kind) domain {
	switch k {
	case dataset.KindNumeric:
		return domNumber
	case dataset.KindDatetime:
		return domTime
	case dataset.KindBoolean:
		return domBool
	}
	return domString
}
