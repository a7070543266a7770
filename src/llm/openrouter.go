package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// OpenRouter API structures
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type Content struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ProviderPreferences struct {
	Order          []string `json:"order,omitempty"`
	AllowFallbacks *bool    `json:"allow_fallbacks,omitempty"`
}

type ChatRequest struct {
	Model       string               `json:"model"`
	Messages    []Message            `json:"messages"`
	Temperature float32              `json:"temperature"`
	MaxTokens   int32                `json:"max_tokens"`
	N           int32                `json:"n,omitempty"`
	Provider    *ProviderPreferences `json:"provider,omitempty"`
}

type ChatResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Message ResponseMessage `json:"message"`
}

type ResponseMessage struct {
	Content string `json:"content"`
}

type APIError struct {
	Message string      `json:"message"`
	Type    string      `json:"type"`
	Code    interface{} `json:"code"` // Can be string or number
}

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	maxRetries        = 3
	initialDelay      = 1 * time.Second
)

// OpenRouter is an Oracle backed by the OpenRouter chat completions API.
type OpenRouter struct {
	cfg     Config
	baseURL string
	http    *http.Client
	delay   time.Duration
}

func NewOpenRouter(cfg Config) (*OpenRouter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &OpenRouter{
		cfg:     cfg,
		baseURL: openRouterBaseURL,
		http:    &http.Client{Timeout: 45 * time.Second},
		delay:   initialDelay,
	}, nil
}

// providerPreferences pins routing to the configured providers.
func (o *OpenRouter) providerPreferences() *ProviderPreferences {
	if len(o.cfg.Providers) == 0 {
		return nil
	}
	allowFallbacks := false
	return &ProviderPreferences{
		Order:          o.cfg.Providers,
		AllowFallbacks: &allowFallbacks,
	}
}

func (o *OpenRouter) request(png []byte) ChatRequest {
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
	return ChatRequest{
		Model: o.cfg.Model,
		Messages: []Message{{
			Role: "user",
			Content: []Content{
				{Type: "text", Text: o.cfg.Params.Prompt},
				{Type: "image_url", ImageURL: &ImageURL{URL: imageURL}},
			},
		}},
		Temperature: o.cfg.Params.Temperature,
		MaxTokens:   o.cfg.Params.MaxOutputTokens,
		N:           o.cfg.Params.CandidateCount,
		Provider:    o.providerPreferences(),
	}
}

func (o *OpenRouter) Ask(ctx context.Context, png []byte) (string, error) {
	request := o.request(png)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(o.delay) * (1.5 * float64(attempt)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		response, err := o.post(ctx, request)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Printf("OpenRouter attempt %d failed: %v", attempt+1, err)
			lastErr = err
			continue
		}
		if len(response.Choices) == 0 {
			lastErr = fmt.Errorf("no choices in API response")
			continue
		}
		return nonEmpty(response.Choices[0].Message.Content)
	}

	return "", fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func (o *OpenRouter) post(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	o.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("API error: %s (type: %s, code: %v)", response.Error.Message, response.Error.Type, response.Error.Code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return &response, nil
}

// Ping checks the key against the key-info endpoint.
func (o *OpenRouter) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/key", nil)
	if err != nil {
		return err
	}
	o.setHeaders(req)
	resp, err := o.http.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (o *OpenRouter) Close() error { return nil }

func (o *OpenRouter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(o.cfg.APIKey))
	req.Header.Set("HTTP-Referer", "https://github.com/flash-insight/flash-insight")
	req.Header.Set("X-Title", "Flash Insight")
}
