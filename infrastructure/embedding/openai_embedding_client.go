package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vectorstore-rag/domain"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIEmbeddingClient implements the domain.EmbeddingClient interface using the OpenAI API.
type OpenAIEmbeddingClient struct {
	client     *openai.Client
	model      openai.EmbeddingModel // e.g., text-embedding-3-small
	dimensions int
}

// NewOpenAIEmbeddingClient creates a new OpenAIEmbeddingClient producing
// vectors of the given dimension. It reads the API key from the
// OPENAI_API_KEY environment variable.
func NewOpenAIEmbeddingClient(model string, dimensions int) (*OpenAIEmbeddingClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	client := openai.NewClient(apiKey)
	return &OpenAIEmbeddingClient{
		client:     client,
		model:      openai.EmbeddingModel(model),
		dimensions: dimensions,
	}, nil
}

// Dimensions returns the configured vector dimension.
func (c *OpenAIEmbeddingClient) Dimensions() int { return c.dimensions }

// GenerateEmbeddings generates embeddings for the given texts using the specified OpenAI model.
func (c *OpenAIEmbeddingClient) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openai.EmbeddingRequest{
		Input:      texts,
		Model:      c.model,
		Dimensions: c.dimensions,
	}

	resp, err := c.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	embeddings := make([]domain.Embedding, len(resp.Data))
	for i, data := range resp.Data {
		if len(data.Embedding) != c.dimensions {
			return nil, &domain.DimensionError{Want: c.dimensions, Got: len(data.Embedding)}
		}
		embeddings[i] = domain.Embedding(data.Embedding)
	}

	return embeddings, nil
}
