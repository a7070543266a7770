package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"flash-insight/src/llm"
)

// Profile is the generation profile, optionally read from a YAML file:
//
//	prompt: |
//	  Answer with one word.
//	model: gemini-2.0-flash
//	temperature: 0.1
//	candidate_count: 1
//	max_output_tokens: 20
type Profile struct {
	Prompt          string  `yaml:"prompt"`
	Model           string  `yaml:"model"`
	Temperature     float32 `yaml:"temperature"`
	CandidateCount  int32   `yaml:"candidate_count"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

func DefaultProfile() Profile {
	p := llm.DefaultParams()
	return Profile{
		Prompt:          p.Prompt,
		Temperature:     p.Temperature,
		CandidateCount:  p.CandidateCount,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}

// LoadProfile reads path on top of the defaults. Keys missing from the
// file keep their default value.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) Validate() error {
	if p.Prompt == "" {
		return fmt.Errorf("prompt is empty")
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0,2]", p.Temperature)
	}
	if p.CandidateCount < 1 {
		return fmt.Errorf("candidate_count must be at least 1")
	}
	if p.MaxOutputTokens < 1 {
		return fmt.Errorf("max_output_tokens must be at least 1")
	}
	return nil
}

// Params converts the profile to oracle generation parameters.
func (p Profile) Params() llm.Params {
	return llm.Params{
		Prompt:          p.Prompt,
		Temperature:     p.Temperature,
		CandidateCount:  p.CandidateCount,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}

// LLMConfig builds the oracle client configuration.
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:  c.Provider,
		APIKey:    c.APIKey,
		Model:     c.Model,
		Providers: c.Providers,
		Params:    c.Profile.Params(),
	}
}
