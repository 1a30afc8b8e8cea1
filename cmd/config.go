package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set ChartLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		if c == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("backend: %s\n", c.Backend)
		fmt.Printf("api_key: %s\n", mask(c.APIKey))
		if c.BaseURL != "" {
			fmt.Printf("base_url: %s\n", c.BaseURL)
		}
		fmt.Printf("model: %s\n", c.Model)
		fmt.Printf("ollama_host: %s\n", c.OllamaHost)
		fmt.Printf("ollama_model: %s\n", c.OllamaModel)
		fmt.Printf("max_tokens: %d\n", c.MaxTokens)
		fmt.Printf("temperature: %.3f\n", c.Temperature)
		fmt.Printf("timeout_sec: %d\n", c.TimeoutSec)
		fmt.Printf("output_dir: %s\n", c.OutputDir)
		fmt.Printf("max_rows: %d\n", c.MaxRows)
		fmt.Printf("histogram_bins: %d\n", c.HistogramBins)
		fmt.Printf("sample_url: %s\n", c.SampleURL)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long:  "Set a config value and save to disk. Valid keys: " + fmt.Sprint(cfgpkg.Keys()),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
