package dataset

import (
	"strings"
	"time"
)

// Kind is the inferred type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindBoolean     Kind = "boolean"
	KindCategorical Kind = "categorical"
	KindText        Kind = "text"
)

// Value is a single cell. Raw always holds the original text; the typed
// field matching the column kind is populated unless Null is set.
type Value struct {
	Raw  string
	Null bool
	Num  float64
	Time time.Time
	Bool bool
}

// Column is a named, typed series of values.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
	// Layout is the time layout preferred for a datetime column.
	Layout string
}

// Dataset is an immutable in-memory table. Filtering produces a new Dataset.
type Dataset struct {
	Name    string
	Columns []*Column
	// Note explains a degraded load, such as a sample excerpt used offline.
	Note  string
	rows  int
	index map[string]int
}

func newDataset(name string, cols []*Column, rows int) *Dataset {
	ds := &Dataset{Name: name, Columns: cols, rows: rows, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		ds.index[c.Name] = i
	}
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Names returns column names in file order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by exact name, falling back to a unique
// case-insensitive match.
func (d *Dataset) Column(name string) (*Column, bool) {
	if d == nil {
		return nil, false
	}
	if i, ok := d.index[name]; ok {
		return d.Columns[i], true
	}
	var found *Column
	for _, c := range d.Columns {
		if strings.EqualFold(c.Name, name) {
			if found != nil {
				return nil, false
			}
			found = c
		}
	}
	return found, found != nil
}

// HasColumn reports whether Column would succeed.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// ColumnsOfKind returns the names of columns with any of the given kinds.
func (d *Dataset) ColumnsOfKind(kinds ...Kind) []string {
	var out []string
	for _, c := range d.Columns {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

func (d *Dataset) NumericColumns() []string { return d.ColumnsOfKind(KindNumeric) }

func (d *Dataset) CategoricalColumns() []string {
	return d.ColumnsOfKind(KindCategorical, KindBoolean)
}

func (d *Dataset) TimeColumns() []string { return d.ColumnsOfKind(KindDatetime) }

// Select returns a new Dataset holding only the rows where mask is true.
// The receiver is left untouched. A mask shorter than Len drops the tail.
func (d *Dataset) Select(mask []bool) *Dataset {
	keep := 0
	for i := 0; i < d.rows && i < len(mask); i++ {
		if mask[i] {
			keep++
		}
	}
	cols := make([]*Column, len(d.Columns))
	for j, c := range d.Columns {
		vals := make([]Value, 0, keep)
		for i := 0; i < d.rows && i < len(mask); i++ {
			if mask[i] {
				vals = append(vals, c.Values[i])
			}
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Values: vals, Layout: c.Layout}
	}
	return newDataset(d.Name, cols, keep)
}

// Project returns a new Dataset restricted to the named columns, in the
// given order. Unknown names are skipped.
func (d *Dataset) Project(names ...string) *Dataset {
	var cols []*Column
	seen := map[string]bool{}
	for _, n := range names {
		c, ok := d.Column(n)
		if !ok || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		cols = append(cols, c)
	}
	return newDataset(d.Name, cols, d.rows)
}

// Head returns up to n rows as raw strings.
func (d *Dataset) Head(n int) [][]string {
	if n > d.rows {
		n = d.rows
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(d.Columns))
		for j, c := range d.Columns {
			row[j] = c.Values[i].Raw
		}
		out[i] = row
	}
	return out
}
