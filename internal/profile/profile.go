package profile

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol)
	// All providers (openai, deepseek, siliconflow, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, siliconflow, ollama
	LLMAPIKey   string // LLM API key
	LLMBaseURL  string // LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-4o, deepseek-chat, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Embedding configuration
	EmbeddingProvider   string
	EmbeddingModel      string
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingDimensions int

	// Reranker configuration
	RerankProvider string
	RerankModel    string
	RerankAPIKey   string
	RerankBaseURL  string

	Mode        string
	Addr        string
	Port        int
	Driver      string
	DSN         string
	InstanceURL string
	Version     string
}

// Provider default configurations for the LLM.
// Used when RACKLINE_AI_LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

// Provider default configurations for embeddings.
var embeddingProviderDefaults = map[string]struct {
	BaseURL    string
	Model      string
	Dimensions int
}{
	"openai": {
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 1536,
	},
	"siliconflow": {
		BaseURL:    "https://api.siliconflow.cn/v1",
		Model:      "BAAI/bge-m3",
		Dimensions: 1024,
	},
	"ollama": {
		BaseURL:    "http://localhost:11434",
		Model:      "nomic-embed-text",
		Dimensions: 768,
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
// Local providers (ollama) do not require a key.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != "" || p.LLMProvider == "ollama"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads AI configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("RACKLINE_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("RACKLINE_AI_LLM_API_KEY", os.Getenv("OPENAI_API_KEY"))
	p.LLMBaseURL = getEnvOrDefault("RACKLINE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("RACKLINE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("RACKLINE_AI_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}

	// Embedding configuration
	p.EmbeddingProvider = getEnvOrDefault("RACKLINE_AI_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingAPIKey = getEnvOrDefault("RACKLINE_AI_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingModel = getEnvOrDefault("RACKLINE_AI_EMBEDDING_MODEL", "")
	p.EmbeddingBaseURL = getEnvOrDefault("RACKLINE_AI_EMBEDDING_BASE_URL", "")
	p.EmbeddingDimensions = getEnvOrDefaultInt("RACKLINE_AI_EMBEDDING_DIMENSIONS", 0)

	if defaults, ok := embeddingProviderDefaults[p.EmbeddingProvider]; ok {
		if p.EmbeddingBaseURL == "" {
			p.EmbeddingBaseURL = defaults.BaseURL
		}
		if p.EmbeddingModel == "" {
			p.EmbeddingModel = defaults.Model
		}
		if p.EmbeddingDimensions == 0 {
			p.EmbeddingDimensions = defaults.Dimensions
		}
	}

	// Reranker configuration (optional; disabled when no API key is set)
	p.RerankProvider = getEnvOrDefault("RACKLINE_AI_RERANK_PROVIDER", "siliconflow")
	p.RerankModel = getEnvOrDefault("RACKLINE_AI_RERANK_MODEL", "BAAI/bge-reranker-v2-m3")
	p.RerankAPIKey = getEnvOrDefault("RACKLINE_AI_RERANK_API_KEY", "")
	p.RerankBaseURL = getEnvOrDefault("RACKLINE_AI_RERANK_BASE_URL", "https://api.siliconflow.cn/v1")
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Driver == "" {
		p.Driver = "postgres"
	}
	if p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q (only postgres with pgvector is supported)", p.Driver)
	}
	if strings.TrimSpace(p.DSN) == "" {
		return errors.New("database DSN is required (set RACKLINE_DSN or --dsn)")
	}

	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("invalid embedding dimensions: %d", p.EmbeddingDimensions)
	}

	return nil
}
