package infrastructure

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"vectorstore-rag/domain"
)

// AnthropicClient is a wrapper around the Anthropic API client implementing
// the domain.ChatClient interface.
type AnthropicClient struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropicClient creates a new Anthropic chat client for the given model.
// It returns an error if the ANTHROPIC_API_KEY environment variable is not set.
func NewAnthropicClient(model string, maxTokens int) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is not set")
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &AnthropicClient{
		client:    &client,
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
	}, nil
}

// Complete sends the conversation to the Anthropic API and returns the text
// content of the response.
func (a *AnthropicClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	conversation := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		switch m.Role {
		case domain.RoleAssistant:
			conversation = append(conversation, anthropic.NewAssistantMessage(block))
		default:
			conversation = append(conversation, anthropic.NewUserMessage(block))
		}
	}

	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  conversation,
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			text.WriteString(content.Text)
		}
	}
	return text.String(), nil
}
