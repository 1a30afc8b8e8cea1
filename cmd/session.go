package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	sessData  dataFlags
	sessReply string
)

const replHelp = `Commands:
  load <sample|path>                               load a dataset (samples: titanic, iris, tips)
  schema                                           list columns with kinds and examples
  head [n]                                         show the first n rows (default 5)
  summary [column...]                              per-column statistics
  ask <request>                                    ask the model for a chart (or just type the request)
  draw <type> <x> [y] [by <group>] [where <expr>]  draw a chart without the model
  filter <expr>                                    count rows matching a filter
  backend [name [model]]                           show or switch the model backend
  help                                             show this help
  quit                                             leave the session`

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start an interactive charting session",
	Example: `  chartloom session --sample titanic
  chartloom session --data sales.csv --backend ollama`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		src, err := sessData.source()
		if err != nil {
			return explainError(err)
		}
		opt, err := sessData.options(c)
		if err != nil {
			return err
		}
		r := &repl{cfg: c, out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr(), reply: sessReply}
		r.sess = newSession(c, nil, c.OutputDir, opt)
		r.connect()
		fmt.Fprintf(r.out, "ChartLoom session %s (type 'help' for commands)\n", r.sess.ID.String()[:8])
		if src != "" {
			r.exec(cmd.Context(), "load "+src)
		}
		return r.run(cmd.Context(), cmd.InOrStdin())
	},
}

type repl struct {
	sess   *session.Session
	cfg    *cfgpkg.Global
	out    io.Writer
	errOut io.Writer
	reply  string
}

// connect (re)builds the planner for the configured backend. Failure leaves
// the session usable for manual drawing.
func (r *repl) connect() {
	p, err := buildPlanner(r.cfg, r.reply)
	if err != nil {
		r.sess.Planner = nil
		fmt.Fprintf(r.out, "⚠ Warning: %s backend unavailable, only 'draw' works: %v\n", r.cfg.Backend, explainError(err))
		return
	}
	r.sess.Planner = p
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		fmt.Fprint(r.out, "chartloom> ")
		if !sc.Scan() {
			fmt.Fprintln(r.out)
			return sc.Err()
		}
		if !r.exec(ctx, sc.Text()) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// exec runs one line and reports whether the session continues. Errors are
// printed, never returned.
func (r *repl) exec(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	word, rest := splitWord(line)
	var err error
	switch strings.ToLower(word) {
	case "quit", "exit", "q":
		return false
	case "help", "?":
		fmt.Fprintln(r.out, replHelp)
	case "load":
		err = r.load(rest)
	case "schema":
		err = r.schema()
	case "head":
		err = r.head(rest)
	case "summary":
		err = r.summary(rest)
	case "filter":
		err = r.filter(rest)
	case "draw":
		err = r.draw(rest)
	case "backend":
		r.backend(rest)
	case "ask":
		err = r.ask(ctx, rest)
	default:
		err = r.ask(ctx, line)
	}
	if err != nil {
		fmt.Fprintln(r.out, "✗ Error:", explainError(err))
	}
	return true
}

func (r *repl) load(src string) error {
	if src == "" {
		return fmt.Errorf("usage: load <sample|path>")
	}
	ds, err := r.sess.Load(src)
	if err != nil {
		return err
	}
	printNote(r.errOut, ds)
	fmt.Fprintf(r.out, "✓ Loaded %s: %d rows, %d columns\n", ds.Name, ds.Len(), len(ds.Columns))
	ds.WritePreview(r.out, dataset.DefaultPreviewRows)
	return nil
}

func (r *repl) head(rest string) error {
	if r.sess.Dataset == nil {
		return session.ErrNoDataset
	}
	n := dataset.DefaultPreviewRows
	if rest != "" {
		v, err := strconv.Atoi(rest)
		if err != nil || v <= 0 {
			return fmt.Errorf("usage: head [n] with n a positive integer, got %q", rest)
		}
		n = v
	}
	r.sess.Dataset.WritePreview(r.out, n)
	return nil
}

func (r *repl) schema() error {
	if r.sess.Dataset == nil {
		return session.ErrNoDataset
	}
	fmt.Fprintln(r.out, r.sess.Dataset.Schema())
	return nil
}

func (r *repl) summary(rest string) error {
	if r.sess.Dataset == nil {
		return session.ErrNoDataset
	}
	cols, err := splitArgs(rest)
	if err != nil {
		return err
	}
	res, err := r.sess.Draw(chart.Spec{Type: chart.Summary, Subset: cols})
	if err != nil {
		return err
	}
	printResult(r.out, r.errOut, res)
	return nil
}

func (r *repl) filter(expr string) error {
	mask, err := r.sess.Preview(expr)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "✓ %d of %d rows match\n", mask.Count(), len(mask))
	return nil
}

func (r *repl) draw(rest string) error {
	spec, err := parseDraw(rest)
	if err != nil {
		return err
	}
	res, err := r.sess.Draw(spec)
	if err != nil {
		return err
	}
	printResult(r.out, r.errOut, res)
	return nil
}

func (r *repl) ask(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: ask <request>")
	}
	res, err := r.sess.Ask(ctx, query, "")
	if res != nil {
		printTrace(r.out, r.errOut, res.Trace)
	}
	if err != nil {
		return err
	}
	printResult(r.out, r.errOut, res)
	return nil
}

// backend switches provider. The model resets to the provider's default
// unless one is given, since model names do not carry across providers.
func (r *repl) backend(rest string) {
	name, model := splitWord(rest)
	if name == "" {
		if p := r.sess.Planner; p != nil {
			fmt.Fprintf(r.out, "backend: %s, model: %s\n", p.Backend.Name(), p.Options.Model)
		} else {
			fmt.Fprintf(r.out, "backend: %s (unavailable)\n", r.cfg.Backend)
		}
		return
	}
	next := ai.NormalizeProvider(name)
	if ai.Preset(next).Provider == "" {
		fmt.Fprintf(r.out, "✗ Error: unknown backend %q (use openai, openrouter or ollama)\n", name)
		return
	}
	r.cfg.Backend = next
	r.cfg.Model = model
	if next == ai.ProviderOllama && model != "" {
		r.cfg.OllamaModel = model
	}
	r.reply = ""
	r.connect()
	if p := r.sess.Planner; p != nil {
		fmt.Fprintf(r.out, "✓ Using %s (model %s)\n", next, p.Options.Model)
	}
}

// parseDraw reads "<type> <x> [y] [by <group>] [where <expr>]".
func parseDraw(s string) (chart.Spec, error) {
	const usage = "usage: draw <type> <x> [y] [by <group>] [where <expr>]"
	head, where := s, ""
	if i := indexKeyword(s, "where"); i >= 0 {
		head, where = s[:i], strings.TrimSpace(s[i+len("where"):])
	}
	args, err := splitArgs(head)
	if err != nil {
		return chart.Spec{}, err
	}
	if len(args) < 1 {
		return chart.Spec{}, errors.New(usage)
	}
	t, ok := chart.ParseType(args[0])
	if !ok {
		return chart.Spec{}, fmt.Errorf("unknown chart type %q (use one of %v)", args[0], chart.Types())
	}
	spec := chart.Spec{Type: t, Filter: where}
	args = args[1:]
	for i := 0; i < len(args); i++ {
		switch {
		case strings.EqualFold(args[i], "by") && i+1 < len(args):
			spec.Group = args[i+1]
			i++
		case strings.EqualFold(args[i], "bins") && i+1 < len(args):
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return chart.Spec{}, fmt.Errorf("bins must be a positive integer, got %q", args[i+1])
			}
			spec.Bins = n
			i++
		case spec.Primary == "":
			spec.Primary = args[i]
		case spec.Secondary == "":
			spec.Secondary = args[i]
		default:
			return chart.Spec{}, fmt.Errorf("unexpected %q; %s", args[i], usage)
		}
	}
	if t == chart.Summary {
		spec.Subset = nonEmpty(spec.Primary, spec.Secondary)
		spec.Primary, spec.Secondary = "", ""
		return spec, nil
	}
	if spec.Primary == "" {
		return chart.Spec{}, errors.New(usage)
	}
	return spec, nil
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// indexKeyword finds kw as a whole word outside quotes.
func indexKeyword(s, kw string) int {
	var quote rune
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'' || r == '`':
			quote = r
		case (i == 0 || s[i-1] == ' ' || s[i-1] == '\t') && len(s) >= i+len(kw) && strings.EqualFold(s[i:i+len(kw)], kw):
			end := i + len(kw)
			if end == len(s) || s[end] == ' ' || s[end] == '\t' {
				return i
			}
		}
	}
	return -1
}

// splitArgs splits on whitespace; "double quotes" and `backticks` group words.
func splitArgs(s string) ([]string, error) {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		in    bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '`':
			quote, in = r, true
		case r == ' ' || r == '\t':
			if in {
				out = append(out, cur.String())
				cur.Reset()
				in = false
			}
		default:
			cur.WriteRune(r)
			in = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if in {
		out = append(out, cur.String())
	}
	return out, nil
}

func splitWord(s string) (string, string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessData.register(sessionCmd.Flags())
	sessionCmd.Flags().StringVar(&sessReply, "reply", "", "answer every request with this JSON instead of calling a backend")
}
