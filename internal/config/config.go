package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
	"github.com/KaramelBytes/chartloom-cli/internal/dataset"
)

// Global configuration structure.
type Global struct {
	Backend     string  `mapstructure:"backend" yaml:"backend"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TimeoutSec  int     `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// Local runtimes (Ollama)
	OllamaHost  string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaModel string `mapstructure:"ollama_model" yaml:"ollama_model"`

	// Data and output
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	MaxRows       int    `mapstructure:"max_rows" yaml:"max_rows"`
	HistogramBins int    `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	// SampleURL is where full sample datasets are downloaded from; "off"
	// keeps to the bundled copies.
	SampleURL string `mapstructure:"sample_url" yaml:"sample_url"`
}

// DefaultDir returns ~/.chartloom.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".chartloom"), nil
}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env")
// into the process environment. Missing files are skipped; variables that
// are already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.chartloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command-line flags are applied
// by the caller on top of the result.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHARTLOOM")
	v.AutomaticEnv()

	v.SetDefault("backend", ai.ProviderOpenAI)
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "")
	v.SetDefault("max_tokens", 500)
	v.SetDefault("temperature", 0.5)
	v.SetDefault("timeout_sec", 60)
	v.SetDefault("ollama_host", ai.Preset(ai.ProviderOllama).BaseURL)
	v.SetDefault("ollama_model", ai.Preset(ai.ProviderOllama).Model)
	v.SetDefault("output_dir", "charts")
	v.SetDefault("max_rows", 0)
	v.SetDefault("histogram_bins", 20)
	v.SetDefault("sample_url", dataset.DefaultSampleURL)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Backend = ai.NormalizeProvider(strings.TrimSpace(c.Backend))
	if c.APIKey == "" {
		c.APIKey = envKey(c.Backend)
	}
	return &c, nil
}

// envKey returns the provider's well-known API key variable.
func envKey(backend string) string {
	if backend == ai.ProviderOpenRouter {
		if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
			return k
		}
	}
	return os.Getenv("OPENAI_API_KEY")
}

// Timeout returns the backend call bound.
func (c *Global) Timeout() time.Duration {
	if c.TimeoutSec <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSec) * time.Second
}

// SampleSource returns the download URL and cache directory for full sample
// datasets. An empty URL means only the bundled copies are used.
func (c *Global) SampleSource() (url, cache string) {
	url = strings.TrimSpace(c.SampleURL)
	switch strings.ToLower(url) {
	case "off", "none", "false":
		return "", ""
	}
	if dir, err := DefaultDir(); err == nil {
		cache = filepath.Join(dir, "samples")
	}
	return url, cache
}

// BackendConfig maps the configuration onto the knobs of the selected backend.
func (c *Global) BackendConfig() ai.BackendConfig {
	bc := ai.BackendConfig{
		Model:       c.Model,
		Timeout:     c.Timeout(),
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Host:        c.OllamaHost,
	}
	if c.Backend == ai.ProviderOllama && bc.Model == "" {
		bc.Model = c.OllamaModel
	}
	return bc
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, v string) error{
	"backend":        func(c *Global, v string) error { c.Backend = ai.NormalizeProvider(v); return nil },
	"api_key":        func(c *Global, v string) error { c.APIKey = v; return nil },
	"base_url":       func(c *Global, v string) error { c.BaseURL = v; return nil },
	"model":          func(c *Global, v string) error { c.Model = v; return nil },
	"ollama_host":    func(c *Global, v string) error { c.OllamaHost = v; return nil },
	"ollama_model":   func(c *Global, v string) error { c.OllamaModel = v; return nil },
	"output_dir":     func(c *Global, v string) error { c.OutputDir = v; return nil },
	"sample_url":     func(c *Global, v string) error { c.SampleURL = v; return nil },
	"max_tokens":     intSetter(func(c *Global) *int { return &c.MaxTokens }),
	"timeout_sec":    intSetter(func(c *Global) *int { return &c.TimeoutSec }),
	"max_rows":       intSetter(func(c *Global) *int { return &c.MaxRows }),
	"histogram_bins": intSetter(func(c *Global) *int { return &c.HistogramBins }),
	"temperature": func(c *Global, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("temperature must be a number between 0 and 2")
		}
		c.Temperature = f
		return nil
	},
}

func intSetter(field func(*Global) *int) func(*Global, string) error {
	return func(c *Global, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("expected a non-negative integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

// Set updates one key from its string form.
func (c *Global) Set(key, value string) error {
	f, ok := setters[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("unknown key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return f(c, strings.TrimSpace(value))
}
