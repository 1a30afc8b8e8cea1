package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Client is a remote chat-completion backend for OpenAI-compatible APIs
// (OpenAI itself, OpenRouter, or any proxy speaking the same protocol).
// Each Generate is a single attempt bounded by the configured timeout.
type Client struct {
	provider    string
	client      *openai.Client
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	system      string
	timeout     time.Duration
}

// NewClient builds a remote backend. The API key is required.
func NewClient(provider string, c BackendConfig) (*Client, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: c.Timeout}
	return &Client{
		provider:    provider,
		client:      openai.NewClientWithConfig(cfg),
		baseURL:     cfg.BaseURL,
		model:       c.Model,
		maxTokens:   c.MaxTokens,
		temperature: c.Temperature,
		system:      c.System,
		timeout:     c.Timeout,
	}, nil
}

func (c *Client) Name() string { return c.provider }

// Model returns the model the client sends requests to.
func (c *Client) Model() string { return c.model }

// Generate sends the prompt as a single user message after the system prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.model == "" {
		return "", errors.New("model cannot be empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt cannot be empty")
	}
	messages := []openai.ChatCompletionMessage{}
	if c.system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: c.system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
	}
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", c.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no content returned from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps go-openai errors onto the package's typed errors.
func (c *Client) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		e := &APIError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		if code, ok := apiErr.Code.(string); ok {
			e.Code = code
		}
		return classifyAPIError(e, "")
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		e := &APIError{StatusCode: reqErr.HTTPStatusCode}
		if reqErr.Err != nil {
			e.Message = reqErr.Err.Error()
		}
		return classifyAPIError(e, "")
	}
	return transportError(c.baseURL, c.timeout, err)
}
