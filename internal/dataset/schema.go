package dataset

import (
	"fmt"
	"strings"
)

// Schema describes columns compactly for a language-model prompt:
// name, kind, and either a numeric range, a date range or a few example values.
func (d *Dataset) Schema() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Dataset %q with %d rows and %d columns:\n", d.Name, d.Len(), len(d.Columns)))
	sum := Summarize(d)
	for i, c := range d.Columns {
		cs := sum.Columns[i]
		b.WriteString(fmt.Sprintf("- %s (%s)", c.Name, c.Kind))
		switch {
		case c.Kind == KindNumeric && cs.Count > 0:
			b.WriteString(fmt.Sprintf(": range %.4g to %.4g", cs.Min, cs.Max))
		case c.Kind == KindDatetime && !cs.First.IsZero():
			b.WriteString(fmt.Sprintf(": from %s to %s", cs.First.Format("2006-01-02"), cs.Last.Format("2006-01-02")))
		default:
			if ex := examples(c, 5); len(ex) > 0 {
				b.WriteString(": e.g. " + strings.Join(ex, ", "))
			}
		}
		if cs.Missing > 0 {
			b.WriteString(fmt.Sprintf(" [%d missing]", cs.Missing))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// examples returns up to n distinct non-null raw values in first-seen order.
func examples(c *Column, n int) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range c.Values {
		if v.Null || seen[v.Raw] {
			continue
		}
		seen[v.Raw] = true
		out = append(out, fmt.Sprintf("%q", truncateRunes(v.Raw, 40)))
		if len(out) == n {
			break
		}
	}
	return out
}
