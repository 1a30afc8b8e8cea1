package ai

import (
	"context"
	"errors"
)

// Static replays a fixed reply. It backs dry runs and lets a user paste a
// corrected command after a parse failure.
type Static struct {
	Reply string
	// Prompts records every prompt received.
	Prompts []string
}

func NewStatic(reply string) *Static { return &Static{Reply: reply} }

func (s *Static) Name() string { return ProviderStatic }

func (s *Static) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.Prompts = append(s.Prompts, prompt)
	if s.Reply == "" {
		return "", errors.New("static backend has no reply configured")
	}
	return s.Reply, nil
}
