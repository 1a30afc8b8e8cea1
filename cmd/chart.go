package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/chartloom-cli/internal/chart"
	"github.com/KaramelBytes/chartloom-cli/internal/prompt"
	"github.com/KaramelBytes/chartloom-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	chartData        dataFlags
	chartType        string
	chartX           string
	chartY           string
	chartGroup       string
	chartFilter      string
	chartTitle       string
	chartBins        int
	chartOutput      string
	chartPrintPrompt bool
	chartReply       string
)

var chartCmd = &cobra.Command{
	Use:   "chart [request...]",
	Short: "Draw a chart from a plain-language request or from flags",
	Example: `  chartloom chart --sample titanic "age distribution of adult men"
  chartloom chart --data sales.csv "monthly revenue over time" --backend ollama
  chartloom chart --sample tips --type bar --x day --y tip --group sex
  chartloom chart --sample titanic --type histogram --x age --filter 'sex == "male" and age >= 18'
  chartloom chart --sample iris "petal length vs width" --print-prompt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		src, err := chartData.source()
		if err != nil {
			return explainError(err)
		}
		if src == "" {
			return fmt.Errorf("--data or --sample is required")
		}
		query := strings.TrimSpace(strings.Join(args, " "))
		manual := chartType != ""
		if !manual && query == "" {
			return fmt.Errorf("describe the chart you want, or pass --type and --x for a manual chart")
		}
		if manual && query != "" {
			return fmt.Errorf("pass either a request or --type, not both")
		}

		opt, err := chartData.options(c)
		if err != nil {
			return err
		}
		var planner *prompt.Planner
		if !manual && !chartPrintPrompt {
			if planner, err = buildPlanner(c, chartReply); err != nil {
				return explainError(err)
			}
		}
		outDir := c.OutputDir
		if chartOutput != "" {
			outDir = ""
		}
		sess := newSession(c, planner, outDir, opt)
		ds, err := sess.Load(src)
		if err != nil {
			return explainError(err)
		}
		printNote(cmd.ErrOrStderr(), ds)

		if chartPrintPrompt {
			if manual {
				return fmt.Errorf("--print-prompt needs a request")
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt.Build(ds, query))
			return nil
		}

		var res *session.Result
		if manual {
			t, ok := chart.ParseType(chartType)
			if !ok {
				return fmt.Errorf("unknown chart type %q (use one of %v)", chartType, chart.Types())
			}
			res, err = sess.Draw(chart.Spec{
				Type:      t,
				Primary:   chartX,
				Secondary: chartY,
				Group:     chartGroup,
				Filter:    chartFilter,
				Title:     chartTitle,
				Bins:      chartBins,
			})
		} else {
			res, err = sess.Ask(cmd.Context(), query, chartFilter)
		}
		if res != nil {
			printTrace(cmd.OutOrStdout(), cmd.ErrOrStderr(), res.Trace)
		}
		if err != nil {
			return explainError(err)
		}
		if chartOutput != "" && res.Figure != nil {
			if err := res.Figure.WriteFile(chartOutput); err != nil {
				return err
			}
			res.Path = chartOutput
		}
		printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	f := chartCmd.Flags()
	chartData.register(f)
	f.StringVarP(&chartType, "type", "t", "", "manual chart type: histogram | bar | scatter | line | summary")
	f.StringVarP(&chartX, "x", "x", "", "manual: primary column")
	f.StringVarP(&chartY, "y", "y", "", "manual: secondary column")
	f.StringVarP(&chartGroup, "group", "g", "", "color/group-by column")
	f.StringVarP(&chartFilter, "filter", "f", "", `row filter, e.g. 'sex == "male" and age >= 18' (replaces any filter the model proposes)`)
	f.StringVar(&chartTitle, "title", "", "manual: chart title")
	f.IntVar(&chartBins, "bins", 0, "histogram bins (0 = config histogram_bins)")
	f.StringVarP(&chartOutput, "output", "o", "", "write the chart HTML to this path instead of output_dir")
	f.BoolVar(&chartPrintPrompt, "print-prompt", false, "print the prompt that would be sent and exit")
	f.StringVar(&chartReply, "reply", "", "use this JSON as the model reply instead of calling a backend")
}
