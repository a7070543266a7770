package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini is an Oracle backed by the Google Generative AI API.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	params Params
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Params.Temperature)
	model.SetCandidateCount(cfg.Params.CandidateCount)
	model.SetMaxOutputTokens(cfg.Params.MaxOutputTokens)
	return &Gemini{client: client, model: model, params: cfg.Params}, nil
}

func (g *Gemini) Ask(ctx context.Context, png []byte) (string, error) {
	res, err := g.model.GenerateContent(ctx, genai.Text(g.params.Prompt), genai.ImageData("png", png))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return responseText(res)
}

// Ping sends a text-only request to confirm the key and model work.
func (g *Gemini) Ping(ctx context.Context) error {
	_, err := g.model.GenerateContent(ctx, genai.Text("ping"))
	if err != nil {
		return fmt.Errorf("gemini ping failed: %w", err)
	}
	return nil
}

func (g *Gemini) Close() error { return g.client.Close() }

// responseText joins the text parts of the first candidate.
func responseText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil || len(res.Candidates) == 0 {
		return "", ErrEmptyAnswer
	}
	c := res.Candidates[0]
	if c.Content == nil {
		return "", ErrEmptyAnswer
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return nonEmpty(sb.String())
}
