package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/chartloom-cli/internal/config"
	"github.com/spf13/cobra"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "Inspect the language model backends",
	Example: `  chartloom backends check
  chartloom backends check --backend ollama
  chartloom backends models --backend ollama`,
}

var backendsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured backend is usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		w := cmd.OutOrStdout()
		bc := c.BackendConfig()
		model := selectModel(c.Backend, bc)
		fmt.Fprintf(w, "backend: %s\nmodel: %s\n", c.Backend, model)

		switch c.Backend {
		case ai.ProviderOllama:
			oc, err := ollamaClient(c)
			if err != nil {
				return explainError(err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			installed, err := oc.Ping(ctx)
			if err != nil {
				return explainError(err)
			}
			fmt.Fprintf(w, "✓ Ollama is running at %s\n", oc.Host())
			if !installed {
				fmt.Fprintf(w, "⚠ Warning: model %s is not installed. Run 'ollama pull %s'\n", oc.Model(), oc.Model())
			}
			return nil
		default:
			if _, err := ai.New(c.Backend, bc); err != nil {
				return explainError(err)
			}
			fmt.Fprintf(w, "✓ API key set (%s)\n", mask(c.APIKey))
			if _, ok := ai.LookupModel(model); !ok {
				fmt.Fprintf(w, "⚠ Warning: %s is not in the built-in catalog; context-size warnings are disabled\n", model)
			}
			return nil
		}
	},
}

var backendsModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List installed (Ollama) or suggested models",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		w := cmd.OutOrStdout()
		if c.Backend == ai.ProviderOllama {
			oc, err := ollamaClient(c)
			if err != nil {
				return explainError(err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			models, err := oc.ListModels(ctx)
			if err != nil {
				return explainError(err)
			}
			if len(models) == 0 {
				fmt.Fprintln(w, "(no models installed; try 'ollama pull llama3')")
				return nil
			}
			for _, m := range models {
				fmt.Fprintf(w, "- %s (%.1f GB)\n", m.Name, float64(m.Size)/1e9)
			}
			return nil
		}
		p := ai.Preset(c.Backend)
		fmt.Fprintf(w, "Suggested models for %s:\n", c.Backend)
		for _, name := range p.Suggested {
			line := "- " + name
			if mi, ok := ai.LookupModel(name); ok {
				line += fmt.Sprintf(" (context %dk", mi.ContextTokens/1000)
				if mi.InputPerK > 0 {
					line += fmt.Sprintf(", $%.5f/1K in, $%.5f/1K out", mi.InputPerK, mi.OutputPerK)
				}
				line += ")"
			}
			fmt.Fprintln(w, line)
		}
		var known []string
		for _, mi := range ai.Catalog() {
			known = append(known, mi.Name)
		}
		fmt.Fprintf(w, "Known models: %s\n", strings.Join(known, ", "))
		return nil
	},
}

func ollamaClient(c *cfgpkg.Global) (*ai.OllamaClient, error) {
	b, err := ai.New(ai.ProviderOllama, c.BackendConfig())
	if err != nil {
		return nil, err
	}
	oc, ok := b.(*ai.OllamaClient)
	if !ok {
		return nil, fmt.Errorf("unexpected backend type %T", b)
	}
	return oc, nil
}

func init() {
	rootCmd.AddCommand(backendsCmd)
	backendsCmd.AddCommand(backendsCheckCmd)
	backendsCmd.AddCommand(backendsModelsCmd)
}
