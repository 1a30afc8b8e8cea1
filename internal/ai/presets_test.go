package ai

import (
	"errors"
	"testing"
)

func TestPresetDefaults(t *testing.T) {
	if p := Preset("openai"); p.Model != "gpt-3.5-turbo" || p.BaseURL == "" {
		t.Fatalf("unexpected openai preset: %+v", p)
	}
	if p := Preset("local"); p.Model != "llama3" || p.BaseURL != "http://localhost:11434" {
		t.Fatalf("unexpected ollama preset: %+v", p)
	}
	if p := Preset("nope"); p.Model != "" {
		t.Fatalf("expected zero preset, got %+v", p)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("carrier-pigeon", BackendConfig{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestNewRemoteWithoutKeyIsBackendError(t *testing.T) {
	for _, name := range []string{ProviderOpenAI, ProviderOpenRouter} {
		_, err := New(name, BackendConfig{})
		var be *BackendError
		if !errors.As(err, &be) || be.Backend != name {
			t.Fatalf("%s: expected *BackendError, got %T %v", name, err, err)
		}
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("%s: expected ErrMissingAPIKey inside, got %v", name, err)
		}
	}
}

func TestNewAppliesPresetModel(t *testing.T) {
	b, err := New("ollama", BackendConfig{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	oc, ok := b.(*OllamaClient)
	if !ok {
		t.Fatalf("expected *OllamaClient, got %T", b)
	}
	if oc.model != "llama3" || oc.host != "http://localhost:11434" {
		t.Fatalf("preset not applied: model=%s host=%s", oc.model, oc.host)
	}
}

func TestLookupModelToleratesLatestTag(t *testing.T) {
	mi, ok := LookupModel("llama3:latest")
	if !ok || mi.ContextTokens != 8192 {
		t.Fatalf("expected llama3 entry, got %+v ok=%v", mi, ok)
	}
	if _, ok := LookupModel("unknown-model"); ok {
		t.Fatalf("unexpected hit for unknown model")
	}
	cost, ok := EstimateCostUSD("gpt-4o", 1000, 1000)
	if !ok || cost < 0.0199 || cost > 0.0201 {
		t.Fatalf("unexpected cost %v ok=%v", cost, ok)
	}
	cat := Catalog()
	for i := 1; i < len(cat); i++ {
		if cat[i-1].Name > cat[i].Name {
			t.Fatalf("catalog not sorted at %d", i)
		}
	}
}
