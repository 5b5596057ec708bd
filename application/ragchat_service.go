package application

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"vectorstore-rag/domain"
)

// State names the phases of the chat service lifecycle. The service moves
// Starting -> Ready, cycles Retrieving -> Augmenting -> Generating -> Ready
// per request, and ends ShuttingDown -> Stopped. A fatal configuration error
// moves Starting straight to Stopped.
type State string

const (
	StateStarting     State = "starting"
	StateReady        State = "ready"
	StateRetrieving   State = "retrieving"
	StateAugmenting   State = "augmenting"
	StateGenerating   State = "generating"
	StateShuttingDown State = "shutting_down"
	StateStopped      State = "stopped"
)

// RagChatService is the long-running chat loop: it retrieves relevant
// snippets for each user query, augments the generation request with them and
// invokes the chat-completion collaborator.
type RagChatService[K comparable] struct {
	store    domain.VectorStore[K]
	embedder domain.EmbeddingClient
	chat     domain.ChatClient
	provider domain.UserMessageProvider
	topK     int
	logger   *zap.Logger
	out      io.Writer

	mu      sync.Mutex
	state   State
	history []domain.ChatMessage
}

// NewRagChatService creates a new RagChatService writing responses to out.
func NewRagChatService[K comparable](
	store domain.VectorStore[K],
	embedder domain.EmbeddingClient,
	chat domain.ChatClient,
	provider domain.UserMessageProvider,
	topK int,
	logger *zap.Logger,
	out io.Writer,
) *RagChatService[K] {
	if topK <= 0 {
		topK = 3
	}
	if out == nil {
		out = os.Stdout
	}
	return &RagChatService[K]{
		store:    store,
		embedder: embedder,
		chat:     chat,
		provider: provider,
		topK:     topK,
		logger:   logger,
		out:      out,
		state:    StateStarting,
	}
}

// State returns the current lifecycle state.
func (s *RagChatService[K]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *RagChatService[K]) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run executes the chat loop until the user stops providing input or the
// shutdown signal is raised. The signal is observed at every iteration
// boundary: an in-flight request is completed, never abandoned mid-way.
func (s *RagChatService[K]) Run(ctx context.Context) error {
	s.setState(StateStarting)
	if s.store == nil || s.embedder == nil || s.chat == nil || s.provider == nil {
		s.setState(StateStopped)
		return errors.New("rag chat service is missing a required collaborator")
	}
	if err := s.store.EnsureCollection(ctx); err != nil {
		s.setState(StateStopped)
		return fmt.Errorf("vector store initialization failed: %w", err)
	}
	s.setState(StateReady)
	fmt.Fprintln(s.out, "Chat with the assistant (use 'ctrl-c' to quit)")

	for {
		select {
		case <-ctx.Done():
			s.setState(StateShuttingDown)
			s.logger.Info("shutdown requested, stopping chat loop")
			s.setState(StateStopped)
			return nil
		default:
		}

		userInput, ok := s.provider.GetUserMessage()
		if !ok {
			break
		}
		if strings.TrimSpace(userInput) == "" {
			continue
		}

		answer, err := s.Answer(ctx, userInput)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Error("request failed", zap.Error(err))
			fmt.Fprintf(s.out, "Error: %s\n", err.Error())
			s.setState(StateReady)
			continue
		}
		fmt.Fprintf(s.out, "\x1b[96mAssistant\x1b[0m: %s\n", answer)
		s.setState(StateReady)
	}

	s.setState(StateShuttingDown)
	s.setState(StateStopped)
	return nil
}

// Answer handles one user query end to end: retrieve, augment, generate.
// A retrieval failure degrades to generation without context unless the
// vector store is unreachable, in which case the request fails.
func (s *RagChatService[K]) Answer(ctx context.Context, question string) (string, error) {
	s.setState(StateRetrieving)
	results, err := s.retrieve(ctx, question)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return "", fmt.Errorf("service unavailable: %w", err)
		}
		s.logger.Warn("retrieval failed, answering without context", zap.Error(err))
		results = nil
	}

	s.setState(StateAugmenting)
	prompt := buildAugmentedPrompt(question, results)

	s.setState(StateGenerating)
	s.mu.Lock()
	conversation := append(append([]domain.ChatMessage(nil), s.history...),
		domain.ChatMessage{Role: domain.RoleUser, Content: prompt})
	s.mu.Unlock()

	answer, err := s.chat.Complete(ctx, conversation)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	s.mu.Lock()
	s.history = append(s.history,
		domain.ChatMessage{Role: domain.RoleUser, Content: prompt},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: answer})
	s.mu.Unlock()
	return answer, nil
}

// retrieve embeds the query and searches the collection, mapping each hit
// into the generic search-result shape.
func (s *RagChatService[K]) retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	embeddings, err := s.embedder.GenerateEmbeddings(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, errors.New("embed query: no embedding returned")
	}

	hits, err := s.store.SearchByVector(ctx, embeddings[0], s.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]domain.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = domain.MapSearchResult(hit.Snippet)
	}
	s.logger.Debug("retrieved context", zap.Int("hits", len(results)))
	return results, nil
}

// buildAugmentedPrompt combines the user question with the retrieved context,
// concatenating snippets in descending score order and annotating each with
// its reference when present.
func buildAugmentedPrompt(question string, results []domain.SearchResult) string {
	if len(results) == 0 {
		return question
	}
	var b strings.Builder
	b.WriteString("Use the following context to answer the question. Cite the reference of any context you use.\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "Context %d:\n%s\n", i+1, r.Value)
		if r.Name != "" {
			fmt.Fprintf(&b, "Reference: %s", r.Name)
			if r.Link != "" {
				fmt.Fprintf(&b, " (%s)", r.Link)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Question: %s\n", question)
	return b.String()
}

// ConsoleUserMessageProvider provides user messages from the console.
// It uses a bufio.Scanner to read input from the standard input.
type ConsoleUserMessageProvider struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewConsoleUserMessageProvider creates a provider reading from stdin.
func NewConsoleUserMessageProvider() *ConsoleUserMessageProvider {
	return &ConsoleUserMessageProvider{
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
}

// GetUserMessage reads a message from the user via the console. It returns
// the message and a boolean indicating whether the read was successful; on
// EOF it returns an empty string and false.
func (p *ConsoleUserMessageProvider) GetUserMessage() (string, bool) {
	fmt.Fprint(p.out, "\x1b[95mYou\x1b[0m: ")
	if !p.scanner.Scan() {
		return "", false
	}
	return p.scanner.Text(), true
}
