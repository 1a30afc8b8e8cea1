package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/KaramelBytes/chartloom-cli/internal/filter"
	"github.com/KaramelBytes/chartloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	sumData    dataFlags
	sumFilter  string
	sumColumns []string
	sumOutput  string
	sumHTML    string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print per-column statistics of a dataset",
	Example: `  chartloom summarize --sample titanic
  chartloom summarize --data sales.xlsx --sheet 2024 --columns region,revenue
  chartloom summarize --sample tips --filter 'time == "Dinner"' --html tips.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		src, err := sumData.source()
		if err != nil {
			return explainError(err)
		}
		if src == "" {
			return fmt.Errorf("--data or --sample is required")
		}
		opt, err := sumData.options(c)
		if err != nil {
			return err
		}
		ds, err := dataset.Resolve(src, opt)
		if err != nil {
			return explainError(err)
		}
		printNote(cmd.ErrOrStderr(), ds)
		ds, _, err = filter.Apply(ds, sumFilter)
		if err != nil {
			return explainError(err)
		}
		if len(sumColumns) > 0 {
			for _, name := range sumColumns {
				if !ds.HasColumn(name) {
					return fmt.Errorf("unknown column %q in --columns", name)
				}
			}
			ds = ds.Project(sumColumns...)
		}
		s := dataset.Summarize(ds)
		md := s.Markdown()

		written := false
		if sumOutput != "" {
			if err := writeWithDir(sumOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", sumOutput)
			written = true
		}
		if sumHTML != "" {
			html, err := s.HTML()
			if err != nil {
				return err
			}
			if err := writeWithDir(sumHTML, []byte(html)); err != nil {
				return fmt.Errorf("write html: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote HTML summary to %s\n", sumHTML)
			written = true
		}
		if !written {
			fmt.Fprintln(cmd.OutOrStdout(), md)
		}
		return nil
	},
}

func writeWithDir(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
	}
	return utils.SafeWriteFile(path, data)
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	f := summarizeCmd.Flags()
	sumData.register(f)
	f.StringVarP(&sumFilter, "filter", "f", "", "summarize only the rows matching this filter")
	f.StringSliceVar(&sumColumns, "columns", nil, "comma-separated columns to include (default all)")
	f.StringVarP(&sumOutput, "output", "o", "", "optional path to write the summary (Markdown)")
	f.StringVar(&sumHTML, "html", "", "optional path to write the summary as HTML")
}
