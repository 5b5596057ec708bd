package domain

import "context"

// Embedding represents a numerical vector representation of text.
type Embedding []float32

// EmbeddingClient defines the interface for generating embeddings from text.
type EmbeddingClient interface {
	// GenerateEmbeddings generates embeddings for the given texts, one per
	// input, in input order.
	GenerateEmbeddings(ctx context.Context, texts []string) ([]Embedding, error)
	// Dimensions returns the fixed dimension of the vectors this client
	// produces. Every record in a collection must match it.
	Dimensions() int
}
