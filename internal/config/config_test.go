package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/chartloom-cli/internal/ai"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Backend != ai.ProviderOpenAI || c.MaxTokens != 500 || c.Temperature != 0.5 || c.TimeoutSec != 60 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.OllamaHost != "http://localhost:11434" || c.OllamaModel != "llama3" || c.HistogramBins != 20 || c.OutputDir != "charts" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestEnvOverridesAndKeyFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CHARTLOOM_BACKEND", "local")
	t.Setenv("CHARTLOOM_TIMEOUT_SEC", "5")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Backend != ai.ProviderOllama || c.Timeout() != 5*time.Second || c.APIKey != "sk-env" {
		t.Fatalf("env not applied: %+v", c)
	}
	bc := c.BackendConfig()
	if bc.Model != "llama3" || bc.Host != "http://localhost:11434" {
		t.Fatalf("unexpected backend config: %+v", bc)
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := &Global{Backend: "openrouter", Model: "openai/gpt-4o-mini", MaxTokens: 300, TimeoutSec: 30, HistogramBins: 10}
	if err := c.Set("temperature", "0.2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("max_rows", "-3"); err == nil {
		t.Fatalf("expected error for negative max_rows")
	}
	if err := c.Set("colour", "blue"); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Backend != "openrouter" || got.Model != "openai/gpt-4o-mini" || got.MaxTokens != 300 || got.Temperature != 0.2 || got.HistogramBins != 10 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "test.env")
	if err := os.WriteFile(p, []byte("CHARTLOOM_DOTENV_PROBE=hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHARTLOOM_DOTENV_PROBE", "")
	os.Unsetenv("CHARTLOOM_DOTENV_PROBE")
	if err := LoadDotEnv(p, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if os.Getenv("CHARTLOOM_DOTENV_PROBE") != "hello" {
		t.Fatalf("env file not loaded")
	}
}
