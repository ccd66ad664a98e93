package setup

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Empty values fall through to defaults
	t.Setenv("RAG_LLM_API_PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("REDIS_TTL", "")
	t.Setenv("SESSION_MAX_MESSAGES", "")
	t.Setenv("VECTOR_STORE", "")

	cfg := LoadConfig()

	if cfg.Port != "5002" {
		t.Errorf("Port = %q, want 5002", cfg.Port)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.Provider)
	}
	if cfg.OllamaBaseURL != "http://localhost:11435" {
		t.Errorf("OllamaBaseURL = %q", cfg.OllamaBaseURL)
	}
	if cfg.RedisTTL != 30*time.Minute {
		t.Errorf("RedisTTL = %v, want 30m", cfg.RedisTTL)
	}
	if cfg.SessionMaxMessages != 10 {
		t.Errorf("SessionMaxMessages = %d, want 10", cfg.SessionMaxMessages)
	}
	if cfg.VectorStore != "memory" {
		t.Errorf("VectorStore = %q, want memory", cfg.VectorStore)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("RAG_LLM_API_PORT", "9000")
	t.Setenv("LLM_PROVIDER", "bedrock")
	t.Setenv("REDIS_TTL", "1h")
	t.Setenv("RETRIEVAL_TOP_K", "5")

	cfg := LoadConfig()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want 9000", cfg.Port)
	}
	if cfg.Provider != "bedrock" {
		t.Errorf("Provider = %q, want bedrock", cfg.Provider)
	}
	if cfg.RedisTTL != time.Hour {
		t.Errorf("RedisTTL = %v, want 1h", cfg.RedisTTL)
	}
	if cfg.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.TopK)
	}
}

func TestWireMemoryBackends(t *testing.T) {
	t.Setenv("TONES_CONFIG_PATH", "../../configs/tones.yaml")
	logger := zerolog.Nop()

	cfg := LoadConfig()
	cfg.Provider = "ollama"
	cfg.RedisAddr = ""
	cfg.VectorStore = "memory"

	deps, err := Wire(context.Background(), cfg, &logger)
	if err != nil {
		t.Fatalf("Wire() error = %v", err)
	}
	if deps.Orchestrator == nil || deps.Retriever == nil || deps.Loader == nil || deps.Sessions == nil {
		t.Fatalf("Wire() returned incomplete dependencies: %+v", deps)
	}
	if deps.Retriever.Ready() {
		t.Error("retriever must not report ready before the first rebuild")
	}
}

func TestWireRejectsUnknownProvider(t *testing.T) {
	t.Setenv("TONES_CONFIG_PATH", "../../configs/tones.yaml")
	logger := zerolog.Nop()

	cfg := LoadConfig()
	cfg.Provider = "palm"

	if _, err := Wire(context.Background(), cfg, &logger); err == nil {
		t.Fatal("Wire() accepted an unknown provider")
	}
}

func TestWireRejectsUnknownVectorStore(t *testing.T) {
	t.Setenv("TONES_CONFIG_PATH", "../../configs/tones.yaml")
	logger := zerolog.Nop()

	cfg := LoadConfig()
	cfg.Provider = "ollama"
	cfg.RedisAddr = ""
	cfg.VectorStore = "chroma"

	if _, err := Wire(context.Background(), cfg, &logger); err == nil {
		t.Fatal("Wire() accepted an unknown vector store")
	}
}
