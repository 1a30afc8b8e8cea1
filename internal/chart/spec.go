package chart

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
)

// Type names a chart kind.
type Type string

const (
	Histogram Type = "histogram"
	Bar       Type = "bar"
	Scatter   Type = "scatter"
	Line      Type = "line"
	// Summary is not a chart: it asks for the dataset summary table.
	Summary Type = "summary"
)

// DefaultBins is the histogram bin count used when Spec.Bins is unset.
const DefaultBins = 20

// MaxBins bounds Spec.Bins.
const MaxBins = 500

// Types lists the chart types in prompt order.
func Types() []Type { return []Type{Histogram, Bar, Scatter, Line} }

// ParseType maps a user or model spelling onto a Type.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "histogram", "hist":
		return Histogram, true
	case "bar", "barchart", "bar_chart", "count", "countplot":
		return Bar, true
	case "scatter", "scatterplot", "scatter_plot":
		return Scatter, true
	case "line", "linechart", "line_chart", "lineplot":
		return Line, true
	case "summary", "summarize", "describe", "stats":
		return Summary, true
	}
	return "", false
}

// Spec describes one chart request.
type Spec struct {
	Type        Type   `json:"type"`
	Primary     string `json:"x,omitempty"`
	Secondary   string `json:"y,omitempty"`
	Group       string `json:"group,omitempty"`
	Filter      string `json:"filter,omitempty"`
	Title       string `json:"title,omitempty"`
	Bins        int    `json:"bins,omitempty"`
	Description string `json:"description,omitempty"`
	// Subset restricts a Summary to these columns; empty means all.
	Subset []string `json:"columns,omitempty"`
}

// IsChart reports whether the spec asks for a plot.
func (s Spec) IsChart() bool { return s.Type != Summary }

// Columns returns the distinct column names the spec references, excluding
// those only mentioned by the filter.
func (s Spec) Columns() []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range []string{s.Primary, s.Secondary, s.Group} {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// FieldError reports a spec that cannot be drawn from a dataset.
type FieldError struct {
	Field  string // "type", "x", "y", "group"
	Column string
	Reason string
}

func (e *FieldError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s %q: %s", e.Field, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the type and that every referenced column exists in ds.
// Column kinds are checked by the renderer.
func (s Spec) Validate(ds *dataset.Dataset) error {
	switch s.Type {
	case Histogram, Bar, Scatter, Line:
	case Summary:
		for _, c := range s.Subset {
			if !ds.HasColumn(c) {
				return &FieldError{Field: "columns", Column: c, Reason: "no such column (available: " + strings.Join(sortedNames(ds), ", ") + ")"}
			}
		}
		return nil
	case "":
		return &FieldError{Field: "type", Reason: "chart type is required"}
	default:
		return &FieldError{Field: "type", Column: string(s.Type), Reason: "unknown chart type"}
	}
	if strings.TrimSpace(s.Primary) == "" {
		return &FieldError{Field: "x", Reason: "a column is required"}
	}
	if (s.Type == Scatter || s.Type == Line) && strings.TrimSpace(s.Secondary) == "" {
		return &FieldError{Field: "y", Reason: fmt.Sprintf("%s charts need a y column", s.Type)}
	}
	refs := []struct{ field, col string }{{"x", s.Primary}, {"y", s.Secondary}, {"group", s.Group}}
	for _, r := range refs {
		if r.col == "" {
			continue
		}
		if !ds.HasColumn(r.col) {
			return &FieldError{Field: r.field, Column: r.col, Reason: "no such column (available: " + strings.Join(sortedNames(ds), ", ") + ")"}
		}
	}
	if s.Bins < 0 {
		return &FieldError{Field: "bins", Reason: "must be positive"}
	}
	if s.Bins > MaxBins {
		return &FieldError{Field: "bins", Reason: fmt.Sprintf("at most %d bins are supported", MaxBins)}
	}
	return nil
}

// Resolve returns a copy of s with column names replaced by their canonical
// spelling in ds and defaults applied.
func (s Spec) Resolve(ds *dataset.Dataset) Spec {
	canon := func(n string) string {
		if c, ok := ds.Column(n); ok {
			return c.Name
		}
		return n
	}
	s.Primary = canon(s.Primary)
	s.Secondary = canon(s.Secondary)
	s.Group = canon(s.Group)
	if s.Type == Histogram && s.Bins == 0 {
		s.Bins = DefaultBins
	}
	if s.Title == "" {
		s.Title = s.DefaultTitle(ds)
	}
	return s
}

// DefaultTitle builds the title used when none was given.
func (s Spec) DefaultTitle(ds *dataset.Dataset) string {
	x, y := s.Primary, s.Secondary
	switch s.Type {
	case Histogram:
		return "Histogram of " + x
	case Bar:
		if y == "" {
			return "Count of " + x
		}
		return fmt.Sprintf("Bar Chart of %s vs %s", x, y)
	case Scatter:
		return fmt.Sprintf("Scatter Plot of %s vs %s", x, y)
	case Line:
		if c, ok := ds.Column(x); ok && c.Kind == dataset.KindDatetime {
			return fmt.Sprintf("Line Chart of %s over %s", y, x)
		}
		return fmt.Sprintf("Line Chart of %s vs %s", y, x)
	case Summary:
		return "Summary of " + ds.Name
	}
	return string(s.Type)
}

// String renders the spec in the REPL's draw syntax.
func (s Spec) String() string {
	var b strings.Builder
	b.WriteString(string(s.Type))
	for _, c := range []string{s.Primary, s.Secondary} {
		if c != "" {
			b.WriteString(" " + quoteIdent(c))
		}
	}
	if s.Group != "" {
		b.WriteString(" by " + quoteIdent(s.Group))
	}
	if s.Filter != "" {
		b.WriteString(" where " + s.Filter)
	}
	return b.String()
}

func quoteIdent(s string) string {
	if strings.ContainsAny(s, " \t") {
		return "`" + s + "`"
	}
	return s
}

func sortedNames(ds *dataset.Dataset) []string {
	n := ds.Names()
	sort.Strings(n)
	return n
}
