package ai

import (
	"sort"
	"strings"
)

// ModelInfo is catalog metadata used for prompt-size warnings and cost hints.
// Prices are indicative only.
type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"gpt-3.5-turbo":               {Name: "gpt-3.5-turbo", ContextTokens: 16385, InputPerK: 0.0005, OutputPerK: 0.0015},
	"gpt-4o-mini":                 {Name: "gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4o":                      {Name: "gpt-4o", ContextTokens: 128000, InputPerK: 0.005, OutputPerK: 0.015},
	"openai/gpt-4o-mini":          {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.0006, OutputPerK: 0.0024},
	"anthropic/claude-3.5-sonnet": {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015},
	"google/gemini-1.5-flash":     {Name: "google/gemini-1.5-flash", ContextTokens: 1000000, InputPerK: 0.0002, OutputPerK: 0.0008},
	// local tags
	"llama3":  {Name: "llama3", ContextTokens: 8192},
	"mistral": {Name: "mistral", ContextTokens: 8192},
	"qwen2.5": {Name: "qwen2.5", ContextTokens: 32768},
	"phi3":    {Name: "phi3", ContextTokens: 4096},
}

// LookupModel returns catalog info for name. Ollama tags are matched without
// their ":latest" suffix.
func LookupModel(name string) (ModelInfo, bool) {
	if mi, ok := models[name]; ok {
		return mi, true
	}
	mi, ok := models[strings.TrimSuffix(name, ":latest")]
	return mi, ok
}

// EstimateCostUSD estimates the cost of one request. Unknown models return ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	in := (float64(promptTokens) / 1000.0) * mi.InputPerK
	out := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return in + out, true
}

// Catalog returns the known models sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
