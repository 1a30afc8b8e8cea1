package dataset

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// frequencyLimit is the distinct count below which top values are reported.
const frequencyLimit = 50

// Summary holds descriptive statistics for a dataset.
type Summary struct {
	Name    string
	Rows    int
	Columns []ColumnSummary
}

// ColumnSummary captures statistics for one column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	Count   int
	Missing int
	Unique  int
	// Numeric stats
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Std    float64
	// Datetime range
	First time.Time
	Last  time.Time
	// Frequency stats, set when Unique < 50
	Top        string
	TopCount   int
	TopPercent float64
}

// HasFrequency reports whether top-value statistics were computed.
func (c ColumnSummary) HasFrequency() bool { return c.TopCount > 0 }

// Summarize computes per-column statistics.
func Summarize(ds *Dataset) *Summary {
	s := &Summary{Name: ds.Name, Rows: ds.Len()}
	for _, c := range ds.Columns {
		s.Columns = append(s.Columns, summarizeColumn(c))
	}
	return s
}

func summarizeColumn(c *Column) ColumnSummary {
	cs := ColumnSummary{Name: c.Name, Kind: c.Kind}
	counts := map[string]int{}
	var nums []float64
	// Welford
	var n int
	var mean, m2 float64
	for _, v := range c.Values {
		if v.Null {
			cs.Missing++
			continue
		}
		cs.Count++
		counts[v.Raw]++
		switch c.Kind {
		case KindNumeric:
			x := v.Num
			nums = append(nums, x)
			n++
			delta := x - mean
			mean += delta / float64(n)
			m2 += delta * (x - mean)
		case KindDatetime:
			if cs.First.IsZero() || v.Time.Before(cs.First) {
				cs.First = v.Time
			}
			if v.Time.After(cs.Last) {
				cs.Last = v.Time
			}
		}
	}
	cs.Unique = len(counts)
	if len(nums) > 0 {
		sort.Float64s(nums)
		cs.Mean = mean
		cs.Min = nums[0]
		cs.Max = nums[len(nums)-1]
		cs.Median = quantile(nums, 0.5)
		if n > 1 {
			cs.Std = math.Sqrt(m2 / float64(n-1))
		}
	}
	if cs.Unique > 0 && cs.Unique < frequencyLimit {
		top, topN := "", 0
		for k, v := range counts {
			if v > topN || (v == topN && k < top) {
				top, topN = k, v
			}
		}
		cs.Top = top
		cs.TopCount = topN
		cs.TopPercent = float64(topN) * 100 / float64(cs.Count)
	}
	return cs
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Column returns the summary for name.
func (s *Summary) Column(name string) (ColumnSummary, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

// Markdown renders the summary as Markdown tables.
func (s *Summary) Markdown() string {
	var b strings.Builder
	if s.Name != "" {
		b.WriteString(fmt.Sprintf("## Summary of %s\n\n", s.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d, columns: %d\n\n", s.Rows, len(s.Columns)))

	var numeric, freq []ColumnSummary
	for _, c := range s.Columns {
		if c.Kind == KindNumeric && c.Count > 0 {
			numeric = append(numeric, c)
		}
		if c.HasFrequency() {
			freq = append(freq, c)
		}
	}
	if len(numeric) > 0 {
		b.WriteString("### Numeric columns\n\n")
		b.WriteString("| column | count | missing | mean | median | min | max | std |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, c := range numeric {
			b.WriteString(fmt.Sprintf("| %s | %d | %d | %.4g | %.4g | %.4g | %.4g | %.4g |\n",
				cell(c.Name), c.Count, c.Missing, c.Mean, c.Median, c.Min, c.Max, c.Std))
		}
		b.WriteString("\n")
	}
	if len(freq) > 0 {
		b.WriteString("### Frequent values\n\n")
		b.WriteString("| column | kind | unique | top | frequency | percent |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
		for _, c := range freq {
			b.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %d | %.1f%% |\n",
				cell(c.Name), c.Kind, c.Unique, cell(c.Top), c.TopCount, c.TopPercent))
		}
		b.WriteString("\n")
	}
	var other []ColumnSummary
	for _, c := range s.Columns {
		if (c.Kind != KindNumeric || c.Count == 0) && !c.HasFrequency() {
			other = append(other, c)
		}
	}
	if len(other) > 0 {
		b.WriteString("### Other columns\n\n")
		for _, c := range other {
			line := fmt.Sprintf("- %s: %s, %d values, %d missing, %d unique", c.Name, c.Kind, c.Count, c.Missing, c.Unique)
			if c.Kind == KindDatetime && !c.First.IsZero() {
				line += fmt.Sprintf(", from %s to %s", c.First.Format("2006-01-02"), c.Last.Format("2006-01-02"))
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// HTML renders the Markdown summary to an HTML fragment.
func (s *Summary) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(s.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("render summary html: %w", err)
	}
	return buf.String(), nil
}

func cell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
