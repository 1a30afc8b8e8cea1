package ai

import (
	"fmt"
	"sort"
	"time"
)

// BackendFactory builds a Backend from the generic config below.
type BackendFactory func(BackendConfig) (Backend, error)

// BackendConfig carries the knobs backends need. Callers build it from their
// own configuration and pass it in; backends never read the environment.
type BackendConfig struct {
	// Common
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	System      string
	// Remote APIs
	APIKey  string
	BaseURL string
	// Ollama
	Host string
	// Static
	Reply string
}

var registry = map[string]BackendFactory{}

// RegisterBackend registers a provider name with its factory.
func RegisterBackend(name string, f BackendFactory) { registry[name] = f }

// New creates the backend registered under name.
func New(name string, cfg BackendConfig) (Backend, error) {
	f, ok := registry[NormalizeProvider(name)]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %v)", name, Backends())
	}
	return f(cfg)
}

// Backends lists registered provider names.
func Backends() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	remote := func(provider string) BackendFactory {
		return func(c BackendConfig) (Backend, error) {
			p := Preset(provider)
			if c.Model == "" {
				c.Model = p.Model
			}
			if c.BaseURL == "" {
				c.BaseURL = p.BaseURL
			}
			applyCommonDefaults(&c)
			cl, err := NewClient(provider, c)
			if err != nil {
				return nil, WrapError(provider, c.Timeout, err)
			}
			return cl, nil
		}
	}
	RegisterBackend(ProviderOpenAI, remote(ProviderOpenAI))
	RegisterBackend(ProviderOpenRouter, remote(ProviderOpenRouter))
	RegisterBackend(ProviderOllama, func(c BackendConfig) (Backend, error) {
		p := Preset(ProviderOllama)
		if c.Model == "" {
			c.Model = p.Model
		}
		if c.Host == "" {
			c.Host = p.BaseURL
		}
		applyCommonDefaults(&c)
		return NewOllamaClient(c), nil
	})
	RegisterBackend(ProviderStatic, func(c BackendConfig) (Backend, error) {
		return NewStatic(c.Reply), nil
	})
}

func applyCommonDefaults(c *BackendConfig) {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.Temperature < 0 {
		c.Temperature = 0
	}
	if c.System == "" {
		c.System = DefaultSystemPrompt
	}
}
