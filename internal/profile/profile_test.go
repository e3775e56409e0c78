package profile

import (
	"os"
	"testing"
)

func clearAIEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RACKLINE_AI_LLM_PROVIDER",
		"RACKLINE_AI_LLM_API_KEY",
		"RACKLINE_AI_LLM_BASE_URL",
		"RACKLINE_AI_LLM_MODEL",
		"RACKLINE_AI_EMBEDDING_PROVIDER",
		"RACKLINE_AI_EMBEDDING_API_KEY",
		"RACKLINE_AI_EMBEDDING_MODEL",
		"RACKLINE_AI_EMBEDDING_BASE_URL",
		"RACKLINE_AI_EMBEDDING_DIMENSIONS",
		"RACKLINE_AI_RERANK_API_KEY",
		"OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestProfileDefaults(t *testing.T) {
	clearAIEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel default", "gpt-4o", profile.LLMModel},
		{"EmbeddingProvider default", "openai", profile.EmbeddingProvider},
		{"EmbeddingModel default", "text-embedding-3-small", profile.EmbeddingModel},
		{"RerankModel default", "BAAI/bge-reranker-v2-m3", profile.RerankModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.actual)
			}
		})
	}

	if profile.EmbeddingDimensions != 1536 {
		t.Errorf("EmbeddingDimensions default: expected 1536, got %d", profile.EmbeddingDimensions)
	}
	if profile.IsAIEnabled() {
		t.Error("IsAIEnabled should be false without an API key")
	}
}

func TestProfileFromEnv(t *testing.T) {
	clearAIEnvVars(t)

	t.Setenv("RACKLINE_AI_LLM_PROVIDER", "deepseek")
	t.Setenv("RACKLINE_AI_LLM_API_KEY", "test-key")
	t.Setenv("RACKLINE_AI_EMBEDDING_PROVIDER", "siliconflow")

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMProvider != "deepseek" {
		t.Errorf("LLMProvider: expected deepseek, got %q", profile.LLMProvider)
	}
	if profile.LLMBaseURL != "https://api.deepseek.com" {
		t.Errorf("LLMBaseURL: expected deepseek default, got %q", profile.LLMBaseURL)
	}
	if profile.LLMModel != "deepseek-chat" {
		t.Errorf("LLMModel: expected deepseek-chat, got %q", profile.LLMModel)
	}
	if profile.EmbeddingModel != "BAAI/bge-m3" {
		t.Errorf("EmbeddingModel: expected BAAI/bge-m3, got %q", profile.EmbeddingModel)
	}
	if profile.EmbeddingDimensions != 1024 {
		t.Errorf("EmbeddingDimensions: expected 1024, got %d", profile.EmbeddingDimensions)
	}
	// Embedding key falls back to the LLM key when not set separately
	if profile.EmbeddingAPIKey != "test-key" {
		t.Errorf("EmbeddingAPIKey: expected fallback to LLM key, got %q", profile.EmbeddingAPIKey)
	}
	if !profile.IsAIEnabled() {
		t.Error("IsAIEnabled should be true with an API key")
	}
}

func TestProfileFromEnv_UnknownLLMProvider(t *testing.T) {
	clearAIEnvVars(t)
	t.Setenv("RACKLINE_AI_LLM_PROVIDER", "not-a-provider")

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMProvider != "openai" {
		t.Errorf("unknown provider should fall back to openai, got %q", profile.LLMProvider)
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{
			name:    "valid postgres profile",
			profile: Profile{Mode: "dev", Driver: "postgres", DSN: "postgresql://localhost:5432/rackline", EmbeddingDimensions: 1536},
			wantErr: false,
		},
		{
			name:    "empty driver defaults to postgres",
			profile: Profile{Mode: "dev", DSN: "postgresql://localhost:5432/rackline", EmbeddingDimensions: 1536},
			wantErr: false,
		},
		{
			name:    "unsupported driver",
			profile: Profile{Mode: "dev", Driver: "sqlite", DSN: "rackline.db", EmbeddingDimensions: 1536},
			wantErr: true,
		},
		{
			name:    "missing DSN",
			profile: Profile{Mode: "dev", Driver: "postgres", EmbeddingDimensions: 1536},
			wantErr: true,
		},
		{
			name:    "invalid embedding dimensions",
			profile: Profile{Mode: "dev", Driver: "postgres", DSN: "postgresql://localhost:5432/rackline"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProfileValidate_NormalizesMode(t *testing.T) {
	profile := Profile{Mode: "bogus", Driver: "postgres", DSN: "postgresql://localhost:5432/rackline", EmbeddingDimensions: 1536}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if profile.Mode != "demo" {
		t.Errorf("invalid mode should normalize to demo, got %q", profile.Mode)
	}
}
