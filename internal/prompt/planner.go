package prompt

import (
	"context"
	"errors"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/utils"
)

// Options tune a Planner.
type Options struct {
	// Timeout bounds a single backend call. Zero means 60s.
	Timeout time.Duration
	// Model is reported in traces and used for context-size warnings.
	Model string
}

// Trace records one planning round trip.
type Trace struct {
	Backend      string
	Model        string
	Prompt       string
	Reply        string
	PromptTokens int
	ReplyTokens  int
	Elapsed      time.Duration
	// Warning is set when the prompt may not fit the model's context window.
	Warning string
}

// Planner asks a backend for a chart spec.
type Planner struct {
	Backend ai.Backend
	Options Options
}

// NewPlanner returns a Planner with defaults applied.
func NewPlanner(b ai.Backend, opt Options) *Planner {
	if opt.Timeout <= 0 {
		opt.Timeout = 60 * time.Second
	}
	return &Planner{Backend: b, Options: opt}
}

// Plan sends one prompt for query and parses the reply. Backend failures are
// returned as *ai.BackendError and reply problems as *ParseError. The trace is
// returned whenever the backend was called, including on failure.
func (p *Planner) Plan(ctx context.Context, ds *dataset.Dataset, query string) (chart.Spec, *Trace, error) {
	if p == nil || p.Backend == nil {
		return chart.Spec{}, nil, errors.New("no language model backend configured")
	}
	timeout := p.Options.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	text := Build(ds, query)
	tr := &Trace{
		Backend:      p.Backend.Name(),
		Model:        p.Options.Model,
		Prompt:       text,
		PromptTokens: utils.CountTokens(text),
	}
	if mi, ok := ai.LookupModel(p.Options.Model); ok && mi.ContextTokens > 0 && tr.PromptTokens > mi.ContextTokens*9/10 {
		tr.Warning = "prompt is close to the model's context window; consider a dataset with fewer columns"
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	reply, err := p.Backend.Generate(cctx, text)
	tr.Elapsed = time.Since(start)
	if err != nil {
		return chart.Spec{}, tr, ai.WrapError(p.Backend.Name(), timeout, err)
	}
	tr.Reply = reply
	tr.ReplyTokens = utils.CountTokens(reply)

	spec, err := Parse(reply)
	if err != nil {
		return chart.Spec{}, tr, err
	}
	return spec, tr, nil
}
