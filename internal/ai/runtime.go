package ai

import "context"

// Backend turns a prompt into a text reply. Remote APIs and local inference
// servers implement it identically from the caller's perspective.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderLocal      = "local"
	ProviderStatic     = "static"
)

// DefaultSystemPrompt frames every request sent to a chat backend.
const DefaultSystemPrompt = "You are a data visualization assistant. You translate requests about a dataset into a single JSON chart command and never answer with anything else."

// NormalizeProvider maps user spellings onto provider identifiers.
func NormalizeProvider(name string) string {
	switch name {
	case "openai", "OpenAI", "OPENAI", "remote":
		return ProviderOpenAI
	case "openrouter", "OpenRouter", "OPENROUTER":
		return ProviderOpenRouter
	case "ollama", "Ollama", "OLLAMA", "local", "LOCAL", "Local":
		return ProviderOllama
	case "static", "canned":
		return ProviderStatic
	}
	return name
}
