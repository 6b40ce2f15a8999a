// Package llm wraps the hosted text-generation models behind one interface.
// Callers treat a Generator as a black box: text in, text out, may fail.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/deusflow/econbrief/internal/config"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// Request is one system + user prompt exchange.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Name identifies the provider in logs and usage counters.
	Name() string
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (f GeneratorFunc) Name() string { return "func" }

// New builds the Generator selected by cfg.LLMProvider.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("%w for provider %s", config.ErrMissingCredential, cfg.LLMProvider)
	}
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAI(key, cfg.LLMModel), nil
	case "gemini":
		return NewGemini(ctx, key, cfg.LLMModel)
	case "anthropic":
		return NewAnthropic(key, cfg.LLMModel), nil
	}
	return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
}

// Close releases provider resources when the Generator holds any.
func Close(g Generator) error {
	if c, ok := g.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func clean(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyResponse
	}
	return s, nil
}
