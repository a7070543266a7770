// Package llm talks to the vision models that answer questions about a
// captured screen region.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// DefaultPrompt is the instruction sent with every image.
const DefaultPrompt = `You are a knowledgeable assistant. Analyze the image and:
1. If it's a multiple choice question, respond ONLY with the correct answer (e.g., 'APPLE')
2. If it's any other type of question, provide the shortest possible accurate answer
3. If it's a statement or information, summarize the key point in 3-5 words

Rules:
- Never explain your reasoning
- Never repeat the question
- Keep answers extremely concise
- If it's a calculation, just show the final number
- If it's a date, just show the date
- If it's a name, just show the name`

var (
	// ErrEmptyAnswer is returned when the model produced no usable text.
	ErrEmptyAnswer = errors.New("empty response from model")
	// ErrNotConfigured is returned when the client lacks a key or model.
	ErrNotConfigured = errors.New("llm client not configured")
)

// Params are the generation parameters sent with each request.
type Params struct {
	Prompt          string
	Temperature     float32
	CandidateCount  int32
	MaxOutputTokens int32
}

// DefaultParams keeps answers short and deterministic.
func DefaultParams() Params {
	return Params{
		Prompt:          DefaultPrompt,
		Temperature:     0.1,
		CandidateCount:  1,
		MaxOutputTokens: 20,
	}
}

type Config struct {
	Provider  string
	APIKey    string
	Model     string
	Providers []string
	Params    Params
}

func (c Config) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrNotConfigured)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrNotConfigured)
	}
	return nil
}

// Oracle answers a question shown in a PNG image.
type Oracle interface {
	Ask(ctx context.Context, png []byte) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// New returns the oracle for cfg.Provider.
func New(ctx context.Context, cfg Config) (Oracle, error) {
	if cfg.Params.Prompt == "" {
		cfg.Params = DefaultParams()
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderOpenRouter:
		return NewOpenRouter(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func nonEmpty(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyAnswer
	}
	return text, nil
}
