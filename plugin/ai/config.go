package ai

import (
	"errors"
	"time"

	"github.com/hrygo/helai/internal/profile"
)

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int           // default: 1024
	Temperature float32       // default: 0.7
	Timeout     time.Duration // default: 30s
}

// NewConfigFromProfile creates LLM config from profile.
func NewConfigFromProfile(p *profile.Profile) *LLMConfig {
	return &LLMConfig{
		APIKey:      p.AIAPIKey,
		BaseURL:     p.AIBaseURL,
		Model:       p.AIModel,
		MaxTokens:   1024,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
	}
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	return nil
}
