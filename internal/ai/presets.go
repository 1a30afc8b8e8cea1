package ai

// BackendPreset holds defaults for a known provider.
type BackendPreset struct {
	Provider string
	Model    string
	BaseURL  string
	// Suggested lists alternative models that follow JSON instructions well.
	Suggested []string
}

var presets = map[string]BackendPreset{
	ProviderOpenAI: {
		Provider:  ProviderOpenAI,
		Model:     "gpt-3.5-turbo",
		BaseURL:   "https://api.openai.com/v1",
		Suggested: []string{"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o"},
	},
	ProviderOpenRouter: {
		Provider:  ProviderOpenRouter,
		Model:     "openai/gpt-4o-mini",
		BaseURL:   "https://openrouter.ai/api/v1",
		Suggested: []string{"openai/gpt-4o-mini", "anthropic/claude-3.5-sonnet", "google/gemini-1.5-flash"},
	},
	ProviderOllama: {
		Provider:  ProviderOllama,
		Model:     "llama3",
		BaseURL:   "http://localhost:11434",
		Suggested: []string{"llama3", "mistral", "qwen2.5"},
	},
}

// Preset returns defaults for provider; unknown providers get a zero preset.
func Preset(provider string) BackendPreset {
	return presets[NormalizeProvider(provider)]
}
