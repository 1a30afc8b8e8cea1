package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/prompt"
	"github.com/KaramelBytes/chartloom-cli/internal/session"
	"github.com/KaramelBytes/chartloom-cli/internal/utils"
	"github.com/spf13/pflag"
)

// dataFlags selects and parses the dataset a command works on.
type dataFlags struct {
	Path      string
	Sample    string
	Delimiter string
	Decimal   string
	Thousands string
	Sheet     string
	MaxRows   int
}

func (f *dataFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Path, "data", "d", "", "CSV/TSV/XLSX file to load")
	fs.StringVarP(&f.Sample, "sample", "s", "", "built-in sample dataset (see 'chartloom samples')")
	fs.StringVar(&f.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	fs.StringVar(&f.Decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&f.Thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.StringVar(&f.Sheet, "sheet", "", "XLSX: sheet name (first sheet if omitted)")
	fs.IntVar(&f.MaxRows, "max-rows", 0, "maximum rows to read (0 = config max_rows, or unlimited)")
}

// source returns the sample name or path to load; empty when none was given.
func (f *dataFlags) source() (string, error) {
	if f.Path != "" && f.Sample != "" {
		return "", fmt.Errorf("use only one of --data or --sample")
	}
	if f.Sample != "" {
		if !dataset.IsSample(f.Sample) {
			return "", &dataset.LoadError{Source: f.Sample, Err: dataset.ErrUnknownSample}
		}
		return f.Sample, nil
	}
	return f.Path, nil
}

func (f *dataFlags) options(c *cfgpkg.Global) (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if c != nil && c.MaxRows > 0 {
		opt.MaxRows = c.MaxRows
	}
	if f.MaxRows > 0 {
		opt.MaxRows = f.MaxRows
	}
	if c != nil {
		opt.SampleURL, opt.SampleCache = c.SampleSource()
	}
	opt.Sheet = f.Sheet
	switch f.Delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.Delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.Decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.Decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.Thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.Thousands)
	}
	return opt, nil
}

// selectModel reports the model a backend will use.
func selectModel(backend string, bc ai.BackendConfig) string {
	if bc.Model != "" {
		return bc.Model
	}
	return ai.Preset(backend).Model
}

// buildPlanner creates the configured backend. A non-empty reply replaces it
// with the static backend, which answers every prompt with reply.
func buildPlanner(c *cfgpkg.Global, reply string) (*prompt.Planner, error) {
	name, bc := c.Backend, c.BackendConfig()
	if reply != "" {
		name, bc.Reply = ai.ProviderStatic, reply
	}
	b, err := ai.New(name, bc)
	if err != nil {
		return nil, err
	}
	return prompt.NewPlanner(b, prompt.Options{Timeout: c.Timeout(), Model: selectModel(name, bc)}), nil
}

// newSession builds a session from config; planner may be nil.
func newSession(c *cfgpkg.Global, planner *prompt.Planner, outDir string, load dataset.Options) *session.Session {
	return session.New(planner, session.Options{OutDir: outDir, Bins: c.HistogramBins, Load: load})
}

// printTrace reports context warnings to errw always and the full trace to w
// with --debug.
func printTrace(w, errw io.Writer, tr *prompt.Trace) {
	if tr == nil {
		return
	}
	if tr.Warning != "" {
		fmt.Fprintf(errw, "⚠ Warning: %s\n", tr.Warning)
	}
	if !debug {
		return
	}
	fmt.Fprintf(w, "[debug] backend=%s model=%s prompt_tokens~%d reply_tokens~%d elapsed=%s\n",
		tr.Backend, tr.Model, tr.PromptTokens, tr.ReplyTokens, tr.Elapsed.Round(time.Millisecond))
	if cost, ok := ai.EstimateCostUSD(tr.Model, tr.PromptTokens, tr.ReplyTokens); ok && cost > 0 {
		fmt.Fprintf(w, "[debug] estimated cost ~$%.5f\n", cost)
	}
	if tr.Reply != "" {
		fmt.Fprintf(w, "[debug] raw reply:\n%s\n", tr.Reply)
	}
}

// printNote warns when a dataset was loaded in a degraded form.
func printNote(w io.Writer, ds *dataset.Dataset) {
	if ds != nil && ds.Note != "" {
		fmt.Fprintf(w, "⚠ Warning: %s: %s\n", ds.Name, ds.Note)
	}
}

// printResult writes the outcome of one chart request; debug output goes to errw.
func printResult(w, errw io.Writer, res *session.Result) {
	if res == nil {
		return
	}
	if debug {
		if b, err := utils.PrettyJSON(res.Spec); err == nil {
			fmt.Fprintf(errw, "[debug] spec:\n%s\n", b)
		}
	}
	if res.Summary != nil {
		fmt.Fprintf(w, "✓ Summary of %d rows\n\n", res.Rows)
		fmt.Fprintln(w, res.Summary.Markdown())
		return
	}
	if res.Spec.Description != "" {
		fmt.Fprintln(w, res.Spec.Description)
	}
	fmt.Fprintf(w, "✓ %s (%d rows)\n", res.Spec.String(), res.Rows)
	if res.Path != "" {
		fmt.Fprintf(w, "✓ Wrote chart to %s\n", res.Path)
	}
	if res.Figure != nil {
		if s := res.Figure.Summary(); s != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, s)
		}
	}
}
