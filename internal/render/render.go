package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/utils"
)

// Figure is a rendered chart ready to be written as a standalone HTML page.
type Figure struct {
	Spec chart.Spec
	// Rows is the number of dataset rows the chart was drawn from.
	Rows int
	// Labels are the category or bin labels of bar-like charts.
	Labels []string
	Series []Series
	// Stats summarizes the plotted columns.
	Stats *dataset.Summary

	chart interface{ Render(w io.Writer) error }
}

// Render validates spec against ds and builds the figure. ds is expected to
// be filtered already. Every problem is reported as a *RenderError before a
// chart object is created.
func Render(spec chart.Spec, ds *dataset.Dataset) (*Figure, error) {
	if err := spec.Validate(ds); err != nil {
		var fe *chart.FieldError
		if errors.As(err, &fe) {
			return nil, &RenderError{Chart: spec.Type, Column: fe.Column, Reason: fe.Reason}
		}
		return nil, &RenderError{Chart: spec.Type, Reason: err.Error()}
	}
	if !spec.IsChart() {
		return nil, &RenderError{Chart: spec.Type, Reason: "a summary is not a chart"}
	}
	spec = spec.Resolve(ds)
	if ds.Len() == 0 {
		return nil, &RenderError{Chart: spec.Type, Reason: "no rows left to plot (check the filter)"}
	}
	if err := checkKinds(spec, ds); err != nil {
		return nil, err
	}

	fig := &Figure{Spec: spec, Rows: ds.Len()}
	var err error
	switch spec.Type {
	case chart.Histogram:
		err = fig.histogram(ds)
	case chart.Bar:
		err = fig.bar(ds)
	case chart.Scatter:
		err = fig.scatter(ds)
	case chart.Line:
		err = fig.line(ds)
	}
	if err != nil {
		return nil, err
	}
	fig.Stats = dataset.Summarize(ds.Project(spec.Columns()...))
	return fig, nil
}

func checkKinds(spec chart.Spec, ds *dataset.Dataset) error {
	kind := func(name string) dataset.Kind {
		c, _ := ds.Column(name)
		return c.Kind
	}
	bad := func(col, reason string) error {
		return &RenderError{Chart: spec.Type, Column: col, Reason: reason}
	}
	x := kind(spec.Primary)
	switch spec.Type {
	case chart.Histogram:
		if x != dataset.KindNumeric && x != dataset.KindDatetime {
			return bad(spec.Primary, "is "+string(x)+"; a histogram needs a numeric or datetime column (try a bar chart)")
		}
	case chart.Scatter:
		if x != dataset.KindNumeric {
			return bad(spec.Primary, "is "+string(x)+"; scatter plots need numeric x and y")
		}
		if y := kind(spec.Secondary); y != dataset.KindNumeric {
			return bad(spec.Secondary, "is "+string(y)+"; scatter plots need numeric x and y")
		}
	case chart.Line:
		if x != dataset.KindNumeric && x != dataset.KindDatetime {
			return bad(spec.Primary, "is "+string(x)+"; line charts need a numeric or datetime x")
		}
		if y := kind(spec.Secondary); y != dataset.KindNumeric {
			return bad(spec.Secondary, "is "+string(y)+"; line charts need a numeric y")
		}
	case chart.Bar:
		if spec.Secondary != "" {
			if y := kind(spec.Secondary); y != dataset.KindNumeric {
				return bad(spec.Secondary, "is "+string(y)+"; bar heights need a numeric y")
			}
		}
	}
	if spec.Group != "" {
		if g := kind(spec.Group); g != dataset.KindCategorical && g != dataset.KindBoolean {
			return bad(spec.Group, "is "+string(g)+"; grouping needs a categorical column")
		}
	}
	return nil
}

func globals(spec chart.Spec, xName, xType, yName string, legend bool) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: spec.Title,
			Width:     "100%",
			Height:    "520px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    spec.Title,
			Subtitle: spec.Description,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(legend), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, Type: xType}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName, Type: "value"}),
	}
}

func seriesName(group string) string {
	if group == "" {
		return "all rows"
	}
	return group
}

func (f *Figure) histogram(ds *dataset.Dataset) error {
	spec := f.Spec
	xc, _ := ds.Column(spec.Primary)
	datetime := xc.Kind == dataset.KindDatetime
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range xc.Values {
		if v, ok := numericAt(xc, i); ok {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return &RenderError{Chart: spec.Type, Column: spec.Primary, Reason: "has no values in the selected rows"}
	}
	b := makeBins(lo, hi, spec.Bins, datetime)
	f.Labels = b.labels

	order, idx := groups(ds, spec.Group)
	bar := charts.NewBar()
	bar.SetGlobalOptions(globals(spec, spec.Primary, "category", "Count", spec.Group != "")...)
	bar.SetXAxis(b.labels)
	for _, g := range order {
		counts := make([]float64, len(b.labels))
		for _, i := range idx[g] {
			if v, ok := numericAt(xc, i); ok {
				counts[b.index(v)]++
			}
		}
		f.Series = append(f.Series, Series{Name: seriesName(g), Values: counts})
		bar.AddSeries(seriesName(g), barData(counts))
	}
	f.chart = bar
	return nil
}

func (f *Figure) bar(ds *dataset.Dataset) error {
	spec := f.Spec
	xc, _ := ds.Column(spec.Primary)
	var yc *dataset.Column
	if spec.Secondary != "" {
		yc, _ = ds.Column(spec.Secondary)
	}
	order, idx := groups(ds, spec.Group)

	// categories and per-(category, group) samples
	counts := map[string]int{}
	for _, v := range xc.Values {
		if !v.Null {
			counts[v.Raw]++
		}
	}
	if len(counts) == 0 {
		return &RenderError{Chart: spec.Type, Column: spec.Primary, Reason: "has no values in the selected rows"}
	}
	labels := make([]string, 0, len(counts))
	for k := range counts {
		labels = append(labels, k)
	}
	if yc == nil {
		// value counts: most frequent first
		sort.Slice(labels, func(i, j int) bool {
			if counts[labels[i]] != counts[labels[j]] {
				return counts[labels[i]] > counts[labels[j]]
			}
			return labels[i] < labels[j]
		})
	} else {
		sortLabels(labels, xc.Kind)
	}
	pos := make(map[string]int, len(labels))
	for i, l := range labels {
		pos[l] = i
	}
	f.Labels = labels

	yName := "Count"
	if yc != nil {
		yName = "Mean of " + yc.Name
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(globals(spec, spec.Primary, "category", yName, spec.Group != "")...)
	bar.SetXAxis(labels)
	for _, g := range order {
		vals := make([]float64, len(labels))
		samples := make([][]float64, len(labels))
		for _, i := range idx[g] {
			xv := xc.Values[i]
			if xv.Null {
				continue
			}
			p := pos[xv.Raw]
			if yc == nil {
				vals[p]++
				continue
			}
			if y, ok := numericAt(yc, i); ok {
				samples[p] = append(samples[p], y)
			}
		}
		if yc != nil {
			for p := range vals {
				vals[p] = mean(samples[p])
			}
		}
		f.Series = append(f.Series, Series{Name: seriesName(g), Values: vals})
		bar.AddSeries(seriesName(g), barData(vals))
	}
	f.chart = bar
	return nil
}

func (f *Figure) scatter(ds *dataset.Dataset) error {
	spec := f.Spec
	xc, _ := ds.Column(spec.Primary)
	yc, _ := ds.Column(spec.Secondary)
	order, idx := groups(ds, spec.Group)
	sc := charts.NewScatter()
	sc.SetGlobalOptions(globals(spec, spec.Primary, "value", spec.Secondary, spec.Group != "")...)
	total := 0
	for _, g := range order {
		pts := points(xc, yc, idx[g])
		total += len(pts)
		data := make([]opts.ScatterData, len(pts))
		for i, p := range pts {
			data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		}
		f.Series = append(f.Series, Series{Name: seriesName(g), Points: pts})
		sc.AddSeries(seriesName(g), data)
	}
	if total == 0 {
		return &RenderError{Chart: spec.Type, Reason: "no rows have both " + spec.Primary + " and " + spec.Secondary}
	}
	f.chart = sc
	return nil
}

func (f *Figure) line(ds *dataset.Dataset) error {
	spec := f.Spec
	xc, _ := ds.Column(spec.Primary)
	yc, _ := ds.Column(spec.Secondary)
	xType := "value"
	if xc.Kind == dataset.KindDatetime {
		xType = "time"
	}
	order, idx := groups(ds, spec.Group)
	ln := charts.NewLine()
	ln.SetGlobalOptions(globals(spec, spec.Primary, xType, spec.Secondary, spec.Group != "")...)
	total := 0
	for _, g := range order {
		pts := points(xc, yc, idx[g])
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
		total += len(pts)
		data := make([]opts.LineData, len(pts))
		for i, p := range pts {
			data[i] = opts.LineData{Value: []interface{}{int64OrFloat(p.X, xType == "time"), p.Y}}
		}
		f.Series = append(f.Series, Series{Name: seriesName(g), Points: pts})
		ln.AddSeries(seriesName(g), data)
	}
	if total == 0 {
		return &RenderError{Chart: spec.Type, Reason: "no rows have both " + spec.Primary + " and " + spec.Secondary}
	}
	f.chart = ln
	return nil
}

func points(xc, yc *dataset.Column, rows []int) []Point {
	out := make([]Point, 0, len(rows))
	for _, i := range rows {
		x, okx := numericAt(xc, i)
		y, oky := numericAt(yc, i)
		if okx && oky {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

func int64OrFloat(v float64, asInt bool) interface{} {
	if asInt {
		return int64(v)
	}
	return v
}

func barData(vals []float64) []opts.BarData {
	out := make([]opts.BarData, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			out[i] = opts.BarData{Value: "-"}
			continue
		}
		out[i] = opts.BarData{Value: v}
	}
	return out
}

// sortLabels orders category labels numerically for numeric columns and
// lexically otherwise.
func sortLabels(labels []string, kind dataset.Kind) {
	if kind == dataset.KindNumeric {
		sort.Slice(labels, func(i, j int) bool {
			a, errA := strconv.ParseFloat(labels[i], 64)
			b, errB := strconv.ParseFloat(labels[j], 64)
			if errA == nil && errB == nil {
				return a < b
			}
			return labels[i] < labels[j]
		})
		return
	}
	sort.Strings(labels)
}

// Render writes the figure as a standalone HTML page.
func (f *Figure) Render(w io.Writer) error {
	if f == nil || f.chart == nil {
		return errors.New("empty figure")
	}
	return f.chart.Render(w)
}

// WriteFile renders the figure into path, creating parent directories.
func (f *Figure) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return err
	}
	return nil
}

// FileName suggests a file name for the figure: <type>-<column>-<suffix>.html.
func (f *Figure) FileName(suffix string) string {
	return fmt.Sprintf("%s-%s-%s.html", f.Spec.Type, utils.Slug(f.Spec.Primary), suffix)
}

// Summary returns the plotted columns' statistics as Markdown.
func (f *Figure) Summary() string {
	if f.Stats == nil {
		return ""
	}
	return f.Stats.Markdown()
}
