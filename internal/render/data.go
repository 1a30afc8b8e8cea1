package render

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
)

// Point is one (x, y) pair of a scatter or line series. X holds Unix
// milliseconds when the x column is a datetime.
type Point struct {
	X, Y float64
}

// Series is one plotted series. Bar-like charts fill Values aligned with
// Figure.Labels; scatter and line charts fill Points.
type Series struct {
	Name   string
	Values []float64
	Points []Point
}

// groups returns the row indexes per group value in first-seen order. With
// no group column every row belongs to a single unnamed group.
func groups(ds *dataset.Dataset, group string) ([]string, map[string][]int) {
	idx := map[string][]int{}
	if group == "" {
		all := make([]int, ds.Len())
		for i := range all {
			all[i] = i
		}
		idx[""] = all
		return []string{""}, idx
	}
	gc, _ := ds.Column(group)
	var order []string
	for i, v := range gc.Values {
		if v.Null {
			continue
		}
		if _, ok := idx[v.Raw]; !ok {
			order = append(order, v.Raw)
		}
		idx[v.Raw] = append(idx[v.Raw], i)
	}
	sort.Strings(order)
	return order, idx
}

// numericAt returns the plotted number for a cell: the value itself for
// numeric columns, Unix milliseconds for datetimes.
func numericAt(c *dataset.Column, i int) (float64, bool) {
	v := c.Values[i]
	if v.Null {
		return 0, false
	}
	switch c.Kind {
	case dataset.KindNumeric:
		return v.Num, !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0)
	case dataset.KindDatetime:
		return float64(v.Time.UnixMilli()), true
	}
	return 0, false
}

type bins struct {
	edges  []float64
	labels []string
}

// makeBins splits [lo, hi] into n equal-width bins. A degenerate range gets
// a single bin.
func makeBins(lo, hi float64, n int, datetime bool) bins {
	if hi <= lo || n < 1 {
		n = 1
	}
	width := (hi - lo) / float64(n)
	if width == 0 {
		width = 1
	}
	b := bins{edges: make([]float64, n+1), labels: make([]string, n)}
	for i := 0; i <= n; i++ {
		b.edges[i] = lo + float64(i)*width
	}
	b.edges[n] = math.Max(hi, b.edges[n])
	for i := 0; i < n; i++ {
		b.labels[i] = binLabel(b.edges[i], b.edges[i+1], datetime)
	}
	return b
}

func (b bins) index(v float64) int {
	n := len(b.labels)
	if v >= b.edges[n] {
		return n - 1
	}
	i := sort.SearchFloat64s(b.edges, v)
	if i < len(b.edges) && b.edges[i] == v {
		return min(i, n-1)
	}
	return max(i-1, 0)
}

func binLabel(lo, hi float64, datetime bool) string {
	if datetime {
		f := func(ms float64) string { return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02") }
		return f(lo) + " to " + f(hi)
	}
	return formatNum(lo) + " to " + formatNum(hi)
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'g', 4, 64)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
