// Package setup loads the service configuration from the environment
// and wires the engine's components together for the entrypoints.
package setup

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/config"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/embedding"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/index"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/ingestion"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/llm"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/orchestrator"
	appredis "github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/redis"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/retriever"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/session"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/tone"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vectorstore"
	"github.com/nycu-acm/Digital-Avatar-LLM-Module-ITRI/internal/vision"
)

type Config struct {
	Port    string
	DataDir string

	Provider         string
	OllamaBaseURL    string
	OllamaModel      string
	OllamaEmbedModel string
	AWSRegion        string
	ClaudeModelID    string
	TitanEmbedModel  string
	OpenAIKey        string
	OpenAIModel      string
	OpenAIEmbedModel string

	VisionBaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTTL      time.Duration

	VectorStore    string
	EmbedDimension int
	Postgres       vectorstore.PostgresConfig

	SessionMaxMessages int
	TopK               int
	MaxTokens          int
	ChunkSize          int
	ChunkOverlap       int
	OverFetchFactor    int
}

// Dependencies is the wired engine handed to the entrypoints.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator
	Retriever    *retriever.Service
	Loader       *ingestion.Loader
	Sessions     session.Store
	Embedder     embedding.Embedder
	Generator    llm.Client
	Logger       *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		Port:    getEnv("RAG_LLM_API_PORT", "5002"),
		DataDir: getEnv("DATA_DIR", "itri_museum_docs"),

		Provider:         getEnv("LLM_PROVIDER", "ollama"),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11435"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "qwen2.5:7b"),
		OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "bge-m3:latest"),
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:    getEnv("CLAUDE_MODEL_ID", ""),
		TitanEmbedModel:  getEnv("TITAN_EMBED_MODEL_ID", "amazon.titan-embed-text-v2:0"),
		OpenAIKey:        getEnv("OPEN_AI_KEY", ""),
		OpenAIModel:      getEnv("OPEN_AI_MODEL_ID", "gpt-4o-mini"),
		OpenAIEmbedModel: getEnv("OPEN_AI_EMBED_MODEL_ID", "text-embedding-3-small"),

		VisionBaseURL: getEnv("VISION_API_URL", vision.DefaultBaseURL),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTTL:      getEnvDuration("REDIS_TTL", 30*time.Minute),

		VectorStore:    getEnv("VECTOR_STORE", "memory"),
		EmbedDimension: getEnvInt("EMBED_DIMENSION", 1024),
		Postgres: vectorstore.PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "avatar"),
			SSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
		},

		SessionMaxMessages: getEnvInt("SESSION_MAX_MESSAGES", session.DefaultMaxMessages),
		TopK:               getEnvInt("RETRIEVAL_TOP_K", retriever.DefaultTopK),
		MaxTokens:          getEnvInt("MAX_TOKENS", 0),
		ChunkSize:          getEnvInt("CHUNK_SIZE", 300),
		ChunkOverlap:       getEnvInt("CHUNK_OVERLAP", 50),
		OverFetchFactor:    getEnvInt("OVERFETCH_FACTOR", 2),
	}
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	tonesConfig, err := config.LoadTonesConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load tones config: %w", err)
	}
	selector := tone.NewSelector(*tonesConfig)

	embedder, err := createEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	generator, err := createLLMClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	var sessions session.Store = session.NewMemoryStore(cfg.SessionMaxMessages)
	if cfg.RedisAddr != "" {
		redisClient, err := appredis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, 5)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		sessions = session.NewRedisStore(redisClient, "session:", cfg.RedisTTL, cfg.SessionMaxMessages)
		embedder = embedding.NewCachedEmbedder(embedder, redisClient, "embed_cache:", cfg.RedisTTL, logger)
	}

	tokenizer, err := index.NewTokenizer()
	if err != nil {
		return nil, fmt.Errorf("failed to load segmenter dictionary: %w", err)
	}

	newStore, err := createStoreFactory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	retrieval := retriever.NewService(embedder, tokenizer, newStore, retriever.Config{
		OverFetchFactor: cfg.OverFetchFactor,
	}, logger)

	chunker := ingestion.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	loader := ingestion.NewLoader(chunker, logger)

	visionClient := vision.NewHTTPClient(cfg.VisionBaseURL, logger)

	orch := orchestrator.New(retrieval, generator, visionClient, sessions, selector, orchestrator.Config{
		TopK:      cfg.TopK,
		MaxTokens: cfg.MaxTokens,
	}, logger)

	return &Dependencies{
		Orchestrator: orch,
		Retriever:    retrieval,
		Loader:       loader,
		Sessions:     sessions,
		Embedder:     embedder,
		Generator:    generator,
		Logger:       logger,
	}, nil
}

func createEmbedder(ctx context.Context, cfg *Config) (embedding.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return embedding.NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.OllamaEmbedModel), nil
	case "bedrock":
		return embedding.NewBedrockEmbedder(ctx, cfg.AWSRegion, cfg.TitanEmbedModel)
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIEmbedModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func createLLMClient(ctx context.Context, cfg *Config) (llm.Client, error) {
	switch cfg.Provider {
	case "ollama":
		return llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel), nil
	case "bedrock":
		return llm.NewBedrockClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
	case "openai":
		return llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// createStoreFactory picks the dense store backend. The in-memory store
// gets a fresh instance per index generation; the Postgres store is one
// shared instance whose Replace runs transactionally.
func createStoreFactory(ctx context.Context, cfg *Config) (func() vectorstore.Store, error) {
	switch cfg.VectorStore {
	case "memory":
		return func() vectorstore.Store { return vectorstore.NewMemoryStore() }, nil
	case "postgres":
		store, err := vectorstore.NewPostgresStore(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if err := store.EnsureSchema(ctx, cfg.EmbedDimension); err != nil {
			return nil, fmt.Errorf("failed to prepare pgvector schema: %w", err)
		}
		return func() vectorstore.Store { return store }, nil
	default:
		return nil, fmt.Errorf("unsupported vector store: %s", cfg.VectorStore)
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		value = defaultValue
	}

	return value
}
