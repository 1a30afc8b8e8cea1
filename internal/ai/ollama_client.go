package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OllamaClient is a minimal HTTP client for a local Ollama runtime.
type OllamaClient struct {
	http        *resty.Client
	host        string
	model       string
	maxTokens   int
	temperature float64
	system      string
	timeout     time.Duration
}

// NewOllamaClient creates a client targeting c.Host (e.g., http://localhost:11434).
// Requests are never retried; the caller decides whether to ask again.
func NewOllamaClient(c BackendConfig) *OllamaClient {
	host := strings.TrimRight(c.Host, "/")
	if host == "" {
		host = "http://localhost:11434"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	rc := resty.New().
		SetBaseURL(host).
		SetTimeout(c.Timeout).
		SetHeader("Content-Type", "application/json")
	return &OllamaClient{
		http:        rc,
		host:        host,
		model:       c.Model,
		maxTokens:   c.MaxTokens,
		temperature: c.Temperature,
		system:      c.System,
		timeout:     c.Timeout,
	}
}

func (c *OllamaClient) Name() string { return ProviderOllama }

// Host returns the base URL of the Ollama server.
func (c *OllamaClient) Host() string { return c.host }

// Model returns the model used for chat requests.
func (c *OllamaClient) Model() string { return c.model }

// Structures aligned with Ollama /api/chat (non-streaming)
type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}
type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// OllamaModel is one entry of /api/tags.
type OllamaModel struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Generate sends a chat request to Ollama and returns the assistant content.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c.model == "" {
		return "", errors.New("model cannot be empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt cannot be empty")
	}
	messages := []ollamaChatMessage{}
	if c.system != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: c.system})
	}
	messages = append(messages, ollamaChatMessage{Role: "user", Content: prompt})

	oreq := ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
		Format:   "json",
		Options:  map[string]any{},
	}
	if c.temperature > 0 {
		oreq.Options["temperature"] = c.temperature
	}
	if c.maxTokens > 0 {
		oreq.Options["num_predict"] = c.maxTokens
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(oreq).
		Post("/api/chat")
	if err != nil {
		return "", transportError(c.host, c.timeout, err)
	}
	if resp.IsError() {
		return "", statusError(resp)
	}
	var oresp ollamaChatResponse
	if err := json.Unmarshal(resp.Body(), &oresp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(oresp.Message.Content) == "" {
		return "", errors.New("no content returned from model")
	}
	return oresp.Message.Content, nil
}

// ListModels returns the models installed on the server (GET /api/tags).
func (c *OllamaClient) ListModels(ctx context.Context) ([]OllamaModel, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/api/tags")
	if err != nil {
		return nil, transportError(c.host, c.timeout, err)
	}
	if resp.IsError() {
		return nil, statusError(resp)
	}
	var out struct {
		Models []OllamaModel `json:"models"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return out.Models, nil
}

// Ping checks the server is up and reports whether the configured model is installed.
func (c *OllamaClient) Ping(ctx context.Context) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m.Name == c.model || strings.TrimSuffix(m.Name, ":latest") == c.model {
			return true, nil
		}
	}
	return false, nil
}

func statusError(resp *resty.Response) error {
	var raw map[string]any
	_ = json.Unmarshal(resp.Body(), &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode(), Raw: raw}
	if msg, ok := raw["error"].(string); ok {
		apiErr.Message = msg
	}
	if msg, ok := raw["message"].(string); ok && apiErr.Message == "" {
		apiErr.Message = msg
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		// Ollama answers 404 for models that are not pulled
		return &ModelNotFoundError{APIError: apiErr}
	case resp.StatusCode() >= 500:
		return &ServerError{APIError: apiErr}
	case resp.StatusCode() == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	}
	return classifyAPIError(apiErr, resp.Header().Get("Retry-After"))
}
