package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Backend flags (override config if set)
	flagBackend    string
	flagModel      string
	flagTimeoutSec int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "chartloom",
	Short: "ChartLoom CLI: describe a chart in plain language and get it drawn",
	Long: `ChartLoom loads a CSV/XLSX dataset (or a built-in sample), asks a language model
to translate your request into a chart command, checks the command against the
data and renders the chart as a standalone HTML page.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.chartloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print pipeline traces to stderr")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "language model backend: openai | openrouter | ollama (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagTimeoutSec, "timeout", 0, "backend timeout in seconds (overrides config)")
}

func loadConfig() {
	if err := cfgpkg.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: manual charts and samples work without config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c
	applyFlagOverrides(cfg)
}

// defaultConfig is used when the config file cannot be read.
func defaultConfig() *cfgpkg.Global {
	p := ai.Preset(ai.ProviderOllama)
	return &cfgpkg.Global{
		Backend:       ai.ProviderOpenAI,
		MaxTokens:     500,
		Temperature:   0.5,
		TimeoutSec:    60,
		OllamaHost:    p.BaseURL,
		OllamaModel:   p.Model,
		OutputDir:     "charts",
		HistogramBins: 20,
		SampleURL:     dataset.DefaultSampleURL,
	}
}

func applyFlagOverrides(c *cfgpkg.Global) {
	f := rootCmd.PersistentFlags()
	if f.Changed("backend") && flagBackend != "" {
		c.Backend = ai.NormalizeProvider(flagBackend)
	}
	if f.Changed("model") && flagModel != "" {
		c.Model = flagModel
	}
	if f.Changed("timeout") && flagTimeoutSec > 0 {
		c.TimeoutSec = flagTimeoutSec
	}
}

// currentConfig returns the loaded configuration, loading it on first use.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}
