package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

// closedURL returns a URL on which nothing is listening.
func closedURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return "http://" + addr
}

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c, err := NewClient(ProviderOpenAI, BackendConfig{
		APIKey:    "test",
		BaseURL:   baseURL,
		Model:     "test-model",
		Timeout:   timeout,
		MaxTokens: 64,
		System:    DefaultSystemPrompt,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestClientGenerateSuccess(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody(`{"action":{"type":"histogram","column":"age"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2*time.Second)
	out, err := c.Generate(context.Background(), "plot ages")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out != `{"action":{"type":"histogram","column":"age"}}` {
		t.Fatalf("unexpected reply: %q", out)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "plot ages" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ProviderOpenAI, BackendConfig{Model: "m"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestClientClassifiesErrorsWithoutRetry(t *testing.T) {
	cases := []struct {
		status int
		code   string
		msg    string
		check  func(error) bool
	}{
		{http.StatusUnauthorized, "invalid_api_key", "bad key", func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusTooManyRequests, "rate_limit", "slow down", func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{http.StatusNotFound, "model_not_found", "The model does not exist", func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{http.StatusBadRequest, "invalid_request", "bad req", func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusInternalServerError, "server_error", "boom", func(err error) bool { var e *ServerError; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		var hits int32
		srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": tc.msg, "code": tc.code, "type": "error"}})
		}))
		c := newTestClient(t, srv.URL, 2*time.Second)
		_, err := c.Generate(context.Background(), "hi")
		srv.Close()
		if err == nil || !tc.check(err) {
			t.Fatalf("status %d: unexpected error type %T: %v", tc.status, err, err)
		}
		if n := atomic.LoadInt32(&hits); n != 1 {
			t.Fatalf("status %d: expected a single attempt, server saw %d", tc.status, n)
		}
	}
}

func TestClientUnreachable(t *testing.T) {
	c := newTestClient(t, closedURL(t), 2*time.Second)
	_, err := c.Generate(context.Background(), "hi")
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %T: %v", err, err)
	}
}

func TestClientTimeout(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, "hi")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestWrapErrorProducesBackendError(t *testing.T) {
	err := WrapError("ollama", 3*time.Second, context.DeadlineExceeded)
	var be *BackendError
	if !errors.As(err, &be) || be.Backend != "ollama" {
		t.Fatalf("expected BackendError, got %v", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) || te.After != 3*time.Second {
		t.Fatalf("expected TimeoutError inside, got %v", err)
	}
	if WrapError("x", 0, nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
	if again := WrapError("y", 0, err); again != err {
		t.Fatalf("already wrapped errors must pass through")
	}
}
