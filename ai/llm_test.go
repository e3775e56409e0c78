package ai

import (
	"testing"
)

func TestNewLLMService_OpenAI(t *testing.T) {
	cfg := &LLMConfig{
		Provider:    "openai",
		Model:       "gpt-4o",
		APIKey:      "test-key",
		MaxTokens:   4096,
		Temperature: 0.5,
	}

	svc, err := NewLLMService(cfg)
	if err != nil {
		t.Fatalf("NewLLMService() error = %v", err)
	}
	if svc == nil {
		t.Fatal("NewLLMService() returned nil service")
	}
}

func TestNewLLMService_Defaults(t *testing.T) {
	cfg := &LLMConfig{
		Provider: "deepseek",
		APIKey:   "test-key",
	}

	svc, err := NewLLMService(cfg)
	if err != nil {
		t.Fatalf("NewLLMService() error = %v", err)
	}

	impl, ok := svc.(*llmService)
	if !ok {
		t.Fatal("unexpected service implementation type")
	}
	if impl.timeout != 120 {
		t.Errorf("timeout default: expected 120, got %d", impl.timeout)
	}
	if impl.maxTokens != 2048 {
		t.Errorf("maxTokens default: expected 2048, got %d", impl.maxTokens)
	}
}

func TestNewLLMService_GenericProvider(t *testing.T) {
	cfg := &LLMConfig{
		Provider: "some-compatible-provider",
		Model:    "test-model",
		APIKey:   "test-key",
		BaseURL:  "https://example.com/v1",
	}

	svc, err := NewLLMService(cfg)
	if err != nil {
		t.Fatalf("NewLLMService() error = %v", err)
	}
	if svc == nil {
		t.Fatal("NewLLMService() returned nil service")
	}
}

func TestConvertMessages(t *testing.T) {
	messages := []Message{
		SystemPrompt("you are an audio engineer"),
		UserMessage("warm vocal chain for jazz"),
	}

	converted := convertMessages(messages)

	if len(converted) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(converted))
	}
	if converted[0].Role != "system" {
		t.Errorf("expected system role, got %q", converted[0].Role)
	}
	if converted[1].Content != "warm vocal chain for jazz" {
		t.Errorf("unexpected content: %q", converted[1].Content)
	}
}
