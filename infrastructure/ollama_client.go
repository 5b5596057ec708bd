package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vectorstore-rag/domain"
)

// OllamaClient talks to a local Ollama instance over its HTTP JSON API. It
// serves as both the chat-completion and the embedding collaborator, so a
// deployment can run entirely against local models.
type OllamaClient struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewOllamaClient creates a client for the Ollama instance at baseURL
// (e.g. http://localhost:11434) using the given model for both chat and
// embeddings.
func NewOllamaClient(baseURL, model string, dimensions int) (*OllamaClient, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model is not set")
	}
	return &OllamaClient{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{},
	}, nil
}

// Dimensions returns the configured vector dimension.
func (c *OllamaClient) Dimensions() int { return c.dimensions }

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}

// Complete sends the conversation to the chat endpoint and returns the text
// of the model's response.
func (c *OllamaClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	reqBody := ollamaChatRequest{Model: c.model, Stream: false}
	for _, m := range messages {
		reqBody.Messages = append(reqBody.Messages, ollamaChatMessage{Role: m.Role, Content: m.Content})
	}

	var resp ollamaChatResponse
	if err := c.postJSON(ctx, "/api/chat", reqBody, &resp); err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	return resp.Message.Content, nil
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// GenerateEmbeddings embeds the given texts one request at a time; the Ollama
// embeddings endpoint takes a single prompt per call.
func (c *OllamaClient) GenerateEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	embeddings := make([]domain.Embedding, len(texts))
	for i, text := range texts {
		var resp ollamaEmbeddingResponse
		if err := c.postJSON(ctx, "/api/embeddings", ollamaEmbeddingRequest{Model: c.model, Prompt: text}, &resp); err != nil {
			return nil, fmt.Errorf("ollama embeddings: %w", err)
		}
		if len(resp.Embedding) != c.dimensions {
			return nil, &domain.DimensionError{Want: c.dimensions, Got: len(resp.Embedding)}
		}
		embeddings[i] = domain.Embedding(resp.Embedding)
	}
	return embeddings, nil
}

func (c *OllamaClient) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %s: %s", resp.Status, payload)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
