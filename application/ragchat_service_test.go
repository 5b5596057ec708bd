package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vectorstore-rag/domain"
	"vectorstore-rag/infrastructure/vectorstore"
)

// fakeChat records the conversation it was asked to complete and returns a
// canned answer.
type fakeChat struct {
	lastMessages []domain.ChatMessage
	answer       string
	err          error
}

func (f *fakeChat) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// erroringStore fails similarity searches with a configurable error.
type erroringStore struct {
	*vectorstore.MemoryStore[string]
	searchErr error
}

func (e *erroringStore) SearchByVector(ctx context.Context, query domain.Embedding, topK int, filter domain.Filter[string]) ([]domain.ScoredSnippet[string], error) {
	return nil, e.searchErr
}

// scriptedProvider feeds a fixed list of user messages, then reports EOF.
type scriptedProvider struct {
	messages []string
	next     int
}

func (p *scriptedProvider) GetUserMessage() (string, bool) {
	if p.next >= len(p.messages) {
		return "", false
	}
	msg := p.messages[p.next]
	p.next++
	return msg, true
}

func newChatService(t *testing.T, store domain.VectorStore[string], chat domain.ChatClient, provider domain.UserMessageProvider, out *bytes.Buffer) *RagChatService[string] {
	t.Helper()
	if out == nil {
		out = &bytes.Buffer{}
	}
	return NewRagChatService(store, &fakeEmbedder{}, chat, provider, 3, zap.NewNop(), out)
}

func seedParisSnippet(t *testing.T, store domain.VectorStore[string]) {
	t.Helper()
	_, err := store.Upsert(context.Background(), domain.TextSnippet[string]{
		Key:                  "k-paris",
		Text:                 "Paris is the capital of France",
		Embedding:            keywordEmbedding("Paris is the capital of France"),
		ReferenceDescription: "doc1",
	})
	require.NoError(t, err)
}

func TestAnswerAugmentsRequestWithRetrievedContext(t *testing.T) {
	store := newMemoryStore(t)
	seedParisSnippet(t, store)
	_, err := store.Upsert(context.Background(), domain.TextSnippet[string]{
		Key:       "k-berlin",
		Text:      "Berlin is the capital of Germany",
		Embedding: keywordEmbedding("Berlin is the capital of Germany"),
	})
	require.NoError(t, err)

	chat := &fakeChat{answer: "Paris, according to doc1."}
	service := newChatService(t, store, chat, nil, nil)

	answer, err := service.Answer(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "Paris, according to doc1.", answer)

	require.NotEmpty(t, chat.lastMessages)
	prompt := chat.lastMessages[len(chat.lastMessages)-1]
	assert.Equal(t, domain.RoleUser, prompt.Role)
	assert.Contains(t, prompt.Content, "Paris is the capital of France")
	assert.Contains(t, prompt.Content, "Reference: doc1")
	assert.Contains(t, prompt.Content, "What is the capital of France?")

	// the best match comes before weaker matches in the context block
	parisIdx := strings.Index(prompt.Content, "Paris is the capital")
	berlinIdx := strings.Index(prompt.Content, "Berlin is the capital")
	require.GreaterOrEqual(t, berlinIdx, 0)
	assert.Less(t, parisIdx, berlinIdx)
}

func TestAnswerDegradesToNoContextWhenSearchFails(t *testing.T) {
	store := &erroringStore{
		MemoryStore: newMemoryStore(t),
		searchErr:   errors.New("malformed filter"),
	}
	chat := &fakeChat{answer: "best effort answer"}
	service := newChatService(t, store, chat, nil, nil)

	answer, err := service.Answer(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "best effort answer", answer)

	prompt := chat.lastMessages[len(chat.lastMessages)-1]
	assert.Equal(t, "What is the capital of France?", prompt.Content)
}

func TestAnswerFailsWhenStoreUnavailable(t *testing.T) {
	store := &erroringStore{
		MemoryStore: newMemoryStore(t),
		searchErr:   fmt.Errorf("search: %w", domain.ErrStoreUnavailable),
	}
	service := newChatService(t, store, &fakeChat{answer: "unused"}, nil, nil)

	_, err := service.Answer(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "service unavailable")
}

func TestAnswerPropagatesChatFailure(t *testing.T) {
	store := newMemoryStore(t)
	seedParisSnippet(t, store)
	service := newChatService(t, store, &fakeChat{err: errors.New("rate limited")}, nil, nil)

	_, err := service.Answer(context.Background(), "What is the capital of France?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion")
}

func TestRunFailsFastWithoutCollaborators(t *testing.T) {
	service := NewRagChatService[string](nil, nil, nil, nil, 3, zap.NewNop(), &bytes.Buffer{})

	err := service.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateStopped, service.State())
}

func TestRunAnswersAndStopsOnEOF(t *testing.T) {
	store := newMemoryStore(t)
	seedParisSnippet(t, store)

	out := &bytes.Buffer{}
	provider := &scriptedProvider{messages: []string{"What is the capital of France?"}}
	service := newChatService(t, store, &fakeChat{answer: "Paris."}, provider, out)

	err := service.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Paris.")
	assert.Equal(t, StateStopped, service.State())
}

func TestRunObservesShutdownSignal(t *testing.T) {
	store := newMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{messages: []string{"never asked"}}
	service := newChatService(t, store, &fakeChat{answer: "unused"}, provider, nil)

	err := service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateStopped, service.State())
	assert.Zero(t, provider.next, "no request should start after shutdown")
}

func TestAnswerKeepsConversationHistory(t *testing.T) {
	store := newMemoryStore(t)
	seedParisSnippet(t, store)
	chat := &fakeChat{answer: "Paris."}
	service := newChatService(t, store, chat, nil, nil)

	_, err := service.Answer(context.Background(), "What is the capital of France?")
	require.NoError(t, err)
	_, err = service.Answer(context.Background(), "And its population?")
	require.NoError(t, err)

	// second request carries the first exchange
	require.Len(t, chat.lastMessages, 3)
	assert.Equal(t, domain.RoleUser, chat.lastMessages[0].Role)
	assert.Equal(t, domain.RoleAssistant, chat.lastMessages[1].Role)
	assert.Equal(t, "Paris.", chat.lastMessages[1].Content)
}
