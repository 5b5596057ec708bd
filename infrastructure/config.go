package infrastructure

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Vector store backend selectors.
const (
	VectorStoreMemory = "memory"
	VectorStoreQdrant = "qdrant"
)

// Collaborator provider selectors.
const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// Config is the root application configuration, loaded once at startup and
// immutable for the process lifetime.
type Config struct {
	VectorStore VectorStoreConfig `yaml:"vector_store" validate:"required"`
	Rag         RagConfig         `yaml:"rag"`
	AI          AIConfig          `yaml:"ai" validate:"required"`
}

// VectorStoreConfig selects the backend variant and the target collection.
type VectorStoreConfig struct {
	Type       string        `yaml:"type" validate:"required,oneof=memory qdrant"`
	Collection string        `yaml:"collection" validate:"required"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty" validate:"required_if=Type qdrant"`
}

// QdrantConfig contains connection details for the networked backend.
type QdrantConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// RagConfig holds the tunable retrieval and ingestion parameters.
type RagConfig struct {
	TopK         int      `yaml:"top_k" validate:"min=1"`
	ChunkSize    int      `yaml:"chunk_size" validate:"min=1"`
	ChunkOverlap int      `yaml:"chunk_overlap" validate:"min=0"`
	BatchSize    int      `yaml:"batch_size" validate:"min=1"`
	Sources      []string `yaml:"sources,omitempty"`
}

// AIConfig configures the embedding and chat-completion collaborators.
type AIConfig struct {
	Embedding EmbeddingConfig `yaml:"embedding" validate:"required"`
	Chat      ChatConfig      `yaml:"chat" validate:"required"`
}

// EmbeddingConfig selects and configures the embedding collaborator.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" validate:"required,oneof=openai ollama"`
	Model      string `yaml:"model" validate:"required"`
	Dimensions int    `yaml:"dimensions" validate:"min=1"`
	BaseURL    string `yaml:"base_url,omitempty"`
}

// ChatConfig selects and configures the chat-completion collaborator.
type ChatConfig struct {
	Provider  string `yaml:"provider" validate:"required,oneof=anthropic ollama"`
	Model     string `yaml:"model" validate:"required"`
	MaxTokens int    `yaml:"max_tokens" validate:"min=1"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// LoadConfig reads the YAML config at path, expands ${ENV} references,
// applies defaults and validates the result. Any validation failure is a
// startup-fatal configuration error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Rag.ChunkOverlap >= cfg.Rag.ChunkSize {
		return nil, fmt.Errorf("invalid config: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.Rag.ChunkOverlap, cfg.Rag.ChunkSize)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Rag.TopK == 0 {
		cfg.Rag.TopK = 3
	}
	if cfg.Rag.ChunkSize == 0 {
		cfg.Rag.ChunkSize = 800
	}
	if cfg.Rag.BatchSize == 0 {
		cfg.Rag.BatchSize = 25
	}
	if cfg.AI.Chat.MaxTokens == 0 {
		cfg.AI.Chat.MaxTokens = 1024
	}
	if cfg.AI.Embedding.Dimensions == 0 {
		cfg.AI.Embedding.Dimensions = 1536
	}
}
