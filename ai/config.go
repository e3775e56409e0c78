// Package ai provides clients for the external embedding, LLM and reranker
// APIs. All heavy lifting happens on the provider side; this package is
// integration glue only.
package ai

import (
	"errors"

	"github.com/rackline/rackline/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig
	Reranker  RerankerConfig
	Enabled   bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // openai, deepseek, siliconflow, ollama
	Model       string // gpt-4o, deepseek-chat, etc.
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 120)
}

// RerankerConfig represents reranker configuration.
type RerankerConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Enabled  bool
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	cfg.Embedding = EmbeddingConfig{
		Provider:   p.EmbeddingProvider,
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: p.EmbeddingDimensions,
	}

	cfg.LLM = LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   2048,
		Temperature: 0.7,
		Timeout:     p.LLMTimeout,
	}

	cfg.Reranker = RerankerConfig{
		Enabled:  p.RerankAPIKey != "",
		Provider: p.RerankProvider,
		Model:    p.RerankModel,
		APIKey:   p.RerankAPIKey,
		BaseURL:  p.RerankBaseURL,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Embedding.Provider == "" {
		return errors.New("embedding provider is required")
	}
	if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	return nil
}
