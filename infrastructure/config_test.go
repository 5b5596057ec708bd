package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
vector_store:
  type: memory
  collection: snippets
ai:
  embedding:
    provider: openai
    model: text-embedding-3-small
  chat:
    provider: anthropic
    model: claude-sonnet-4-20250514
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, VectorStoreMemory, cfg.VectorStore.Type)
	assert.Equal(t, "snippets", cfg.VectorStore.Collection)
	assert.Equal(t, 3, cfg.Rag.TopK)
	assert.Equal(t, 800, cfg.Rag.ChunkSize)
	assert.Equal(t, 25, cfg.Rag.BatchSize)
	assert.Equal(t, 1536, cfg.AI.Embedding.Dimensions)
	assert.Equal(t, 1024, cfg.AI.Chat.MaxTokens)
}

func TestLoadConfigQdrantBackend(t *testing.T) {
	path := writeConfig(t, `
vector_store:
  type: qdrant
  collection: snippets
  qdrant:
    addr: localhost:6334
rag:
  top_k: 5
  chunk_size: 400
  chunk_overlap: 50
  batch_size: 10
ai:
  embedding:
    provider: ollama
    model: nomic-embed-text
    dimensions: 768
  chat:
    provider: ollama
    model: llama3.1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "localhost:6334", cfg.VectorStore.Qdrant.Addr)
	assert.Equal(t, 5, cfg.Rag.TopK)
	assert.Equal(t, 50, cfg.Rag.ChunkOverlap)
	assert.Equal(t, 768, cfg.AI.Embedding.Dimensions)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
vector_store:
  type: redis
  collection: snippets
ai:
  embedding:
    provider: openai
    model: text-embedding-3-small
  chat:
    provider: anthropic
    model: claude-sonnet-4-20250514
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadConfigRequiresQdrantAddress(t *testing.T) {
	path := writeConfig(t, `
vector_store:
  type: qdrant
  collection: snippets
ai:
  embedding:
    provider: openai
    model: text-embedding-3-small
  chat:
    provider: anthropic
    model: claude-sonnet-4-20250514
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	path := writeConfig(t, `
vector_store:
  type: memory
  collection: snippets
rag:
  chunk_size: 100
  chunk_overlap: 100
ai:
  embedding:
    provider: openai
    model: text-embedding-3-small
  chat:
    provider: anthropic
    model: claude-sonnet-4-20250514
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoadConfigExpandsEnvironment(t *testing.T) {
	t.Setenv("QDRANT_ADDR", "qdrant.internal:6334")
	path := writeConfig(t, `
vector_store:
  type: qdrant
  collection: snippets
  qdrant:
    addr: ${QDRANT_ADDR}
ai:
  embedding:
    provider: openai
    model: text-embedding-3-small
  chat:
    provider: anthropic
    model: claude-sonnet-4-20250514
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "qdrant.internal:6334", cfg.VectorStore.Qdrant.Addr)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
