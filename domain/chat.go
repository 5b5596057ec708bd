package domain

import "context"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatClient defines the interface for the chat-completion collaborator.
type ChatClient interface {
	// Complete sends the conversation to the model and returns the text of
	// its response.
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// UserMessageProvider is an interface that provides user messages.
// It abstracts the source of user input, allowing the chat service to receive
// queries from the console or any other front end.
type UserMessageProvider interface {
	GetUserMessage() (string, bool)
}
