package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyText is returned when a snippet with no text is written.
var ErrEmptyText = errors.New("snippet text is empty")

// ErrStoreUnavailable marks errors caused by an unreachable backend, as
// opposed to a rejected request. Callers use errors.Is to distinguish the
// two when deciding whether a chat request can degrade gracefully.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// DimensionError reports an embedding whose dimension does not match the
// collection's configured dimension.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Want, e.Got)
}

// BatchError aggregates a failed batched write, listing the keys that were
// not committed.
type BatchError struct {
	FailedKeys []string
	Err        error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch write failed for keys [%s]: %v", strings.Join(e.FailedKeys, ", "), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// ScoredSnippet pairs a retrieved snippet with its similarity score.
type ScoredSnippet[K comparable] struct {
	Snippet TextSnippet[K]
	Score   float64
}

// Filter restricts a similarity search to snippets matching the predicate.
// A nil Filter matches everything.
type Filter[K comparable] func(TextSnippet[K]) bool

// VectorStore defines the interface for interacting with a vector database.
// Implementations cover heterogeneous backends (in-process map, networked
// document store) behind the same contract; adding a backend means
// implementing these operations without touching callers.
type VectorStore[K comparable] interface {
	// EnsureCollection initializes the target collection. It is idempotent:
	// calling it on an already initialized collection is a no-op.
	EnsureCollection(ctx context.Context) error
	// Upsert inserts or replaces a snippet by key and returns the key.
	Upsert(ctx context.Context, snippet TextSnippet[K]) (K, error)
	// UpsertBatch writes snippets in one round trip. It is all-or-nothing:
	// on failure no snippet of the batch is stored and a *BatchError lists
	// the uncommitted keys.
	UpsertBatch(ctx context.Context, snippets []TextSnippet[K]) ([]K, error)
	// Get returns the snippet stored under key, or nil if absent.
	Get(ctx context.Context, key K) (*TextSnippet[K], error)
	// Delete removes the snippet stored under key and reports whether a
	// record existed.
	Delete(ctx context.Context, key K) (bool, error)
	// SearchByVector returns up to topK snippets ordered by descending
	// similarity score, ties broken by insertion order. Asking for more
	// results than there are records returns all available records.
	SearchByVector(ctx context.Context, query Embedding, topK int, filter Filter[K]) ([]ScoredSnippet[K], error)
}
