package session

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/filter"
	"github.com/KaramelBytes/chartloom-cli/internal/prompt"
	"github.com/KaramelBytes/chartloom-cli/internal/render"
)

// ErrNoDataset is returned by operations that need a loaded dataset.
var ErrNoDataset = errors.New("no dataset loaded (use load <sample|path>)")

// Options configure a Session.
type Options struct {
	// OutDir receives chart HTML files. Empty disables writing.
	OutDir string
	// Bins is the histogram bin count used when a spec leaves it unset.
	Bins int
	Load dataset.Options
}

// Session holds the state of one interactive run: the current dataset and
// the planner used for natural-language requests.
type Session struct {
	ID      uuid.UUID
	Dataset *dataset.Dataset
	Source  string
	Planner *prompt.Planner
	Options Options
}

// Result is the outcome of one chart request.
type Result struct {
	Spec   chart.Spec
	Figure *render.Figure
	// Summary is set instead of Figure for summary requests.
	Summary *dataset.Summary
	Mask    filter.Mask
	// Rows is the number of rows left after filtering.
	Rows  int
	Path  string
	Trace *prompt.Trace
}

// New creates an empty session. planner may be nil when only manual drawing is used.
func New(planner *prompt.Planner, opt Options) *Session {
	if opt.Bins <= 0 {
		opt.Bins = chart.DefaultBins
	}
	return &Session{ID: uuid.New(), Planner: planner, Options: opt}
}

// Load replaces the current dataset with src, a sample name or a file path.
// On failure the previous dataset is kept.
func (s *Session) Load(src string) (*dataset.Dataset, error) {
	ds, err := dataset.Resolve(src, s.Options.Load)
	if err != nil {
		return nil, err
	}
	s.Dataset, s.Source = ds, src
	return ds, nil
}

// Ask turns a natural-language query into a chart. A non-empty filterOverride
// replaces whatever filter the model proposed. The returned Result carries
// the planning trace even when an error is returned.
func (s *Session) Ask(ctx context.Context, query, filterOverride string) (*Result, error) {
	if s.Dataset == nil {
		return nil, ErrNoDataset
	}
	if s.Planner == nil {
		return nil, errors.New("no language model backend configured; use draw for manual charts")
	}
	spec, tr, err := s.Planner.Plan(ctx, s.Dataset, query)
	if err != nil {
		return &Result{Trace: tr}, err
	}
	if filterOverride != "" {
		spec.Filter = filterOverride
	}
	res, err := s.execute(spec)
	if res == nil {
		res = &Result{Spec: spec}
	}
	res.Trace = tr
	return res, err
}

// Draw renders a manually specified chart.
func (s *Session) Draw(spec chart.Spec) (*Result, error) {
	if s.Dataset == nil {
		return nil, ErrNoDataset
	}
	return s.execute(spec)
}

// Preview evaluates a filter against the current dataset without drawing.
func (s *Session) Preview(expr string) (filter.Mask, error) {
	if s.Dataset == nil {
		return nil, ErrNoDataset
	}
	return filter.Evaluate(s.Dataset, expr)
}

func (s *Session) execute(spec chart.Spec) (*Result, error) {
	ds := s.Dataset
	filtered, mask, err := filter.Apply(ds, spec.Filter)
	if err != nil {
		return nil, err
	}
	res := &Result{Spec: spec, Mask: mask, Rows: filtered.Len()}

	if !spec.IsChart() {
		if err := spec.Validate(filtered); err != nil {
			return nil, &render.RenderError{Chart: spec.Type, Reason: err.Error()}
		}
		view := filtered
		if len(spec.Subset) > 0 {
			view = filtered.Project(spec.Subset...)
		}
		res.Summary = dataset.Summarize(view)
		return res, nil
	}

	if spec.Type == chart.Histogram && spec.Bins == 0 {
		spec.Bins = s.Options.Bins
	}
	fig, err := render.Render(spec, filtered)
	if err != nil {
		return nil, err
	}
	res.Spec, res.Figure = fig.Spec, fig
	if s.Options.OutDir != "" {
		path := filepath.Join(s.Options.OutDir, fig.FileName(uuid.NewString()[:8]))
		if err := fig.WriteFile(path); err != nil {
			return res, err
		}
		res.Path = path
	}
	return res, nil
}
