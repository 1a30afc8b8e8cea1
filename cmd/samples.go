package cmd

import (
	"fmt"

	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var samplesSchema bool

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "List the built-in sample datasets",
	Long: `List the built-in sample datasets.

Full copies are downloaded from sample_url on first use and cached under
~/.chartloom/samples. Offline, a bundled copy is used instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		opt := dataset.DefaultOptions()
		opt.SampleURL, opt.SampleCache = currentConfig().SampleSource()
		for _, s := range dataset.Samples() {
			fmt.Fprintf(w, "- %s: %s (%d rows)\n", s.Name, s.Description, s.Rows)
			if !samplesSchema {
				continue
			}
			ds, err := dataset.LoadSample(s.Name, opt)
			if err != nil {
				return explainError(err)
			}
			printNote(cmd.ErrOrStderr(), ds)
			fmt.Fprintln(w, ds.Schema())
			ds.WritePreview(w, 3)
			fmt.Fprintln(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(samplesCmd)
	samplesCmd.Flags().BoolVar(&samplesSchema, "schema", false, "also print each sample's columns and first rows")
}
