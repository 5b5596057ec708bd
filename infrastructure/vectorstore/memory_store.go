package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"vectorstore-rag/domain"
)

// MemoryStore implements domain.VectorStore with an in-process map and
// brute-force cosine similarity. It holds no state across process restarts
// and is suitable for tests and single-node deployments.
type MemoryStore[K comparable] struct {
	mu         sync.RWMutex
	dimensions int
	index      map[K]int
	records    []domain.TextSnippet[K]
}

// NewMemoryStore creates an in-memory store for embeddings of the given
// dimension.
func NewMemoryStore[K comparable](dimensions int) (*MemoryStore[K], error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &MemoryStore[K]{
		dimensions: dimensions,
		index:      make(map[K]int),
	}, nil
}

// EnsureCollection is a no-op for the in-memory backend; the collection
// exists as soon as the store is constructed. Safe to call repeatedly.
func (s *MemoryStore[K]) EnsureCollection(ctx context.Context) error {
	return nil
}

// Upsert inserts or replaces a snippet by key. Replacing keeps the record's
// original insertion position so search tie-breaking stays stable.
func (s *MemoryStore[K]) Upsert(ctx context.Context, snippet domain.TextSnippet[K]) (K, error) {
	if err := snippet.Validate(s.dimensions); err != nil {
		return snippet.Key, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(snippet)
	return snippet.Key, nil
}

// UpsertBatch writes all snippets or none: every snippet is validated before
// the first one is stored, and a validation failure surfaces as a single
// *domain.BatchError listing the uncommitted keys.
func (s *MemoryStore[K]) UpsertBatch(ctx context.Context, snippets []domain.TextSnippet[K]) ([]K, error) {
	for _, snippet := range snippets {
		if err := snippet.Validate(s.dimensions); err != nil {
			failed := make([]string, len(snippets))
			for i, sn := range snippets {
				failed[i] = fmt.Sprint(sn.Key)
			}
			return nil, &domain.BatchError{FailedKeys: failed, Err: err}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]K, len(snippets))
	for i, snippet := range snippets {
		s.put(snippet)
		keys[i] = snippet.Key
	}
	return keys, nil
}

// put stores a snippet, assuming the caller holds the write lock.
func (s *MemoryStore[K]) put(snippet domain.TextSnippet[K]) {
	snippet.Embedding = append(domain.Embedding(nil), snippet.Embedding...)
	if pos, ok := s.index[snippet.Key]; ok {
		s.records[pos] = snippet
		return
	}
	s.index[snippet.Key] = len(s.records)
	s.records = append(s.records, snippet)
}

// Get returns a copy of the snippet stored under key, or nil if absent.
func (s *MemoryStore[K]) Get(ctx context.Context, key K) (*domain.TextSnippet[K], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[key]
	if !ok {
		return nil, nil
	}
	snippet := s.records[pos]
	snippet.Embedding = append(domain.Embedding(nil), snippet.Embedding...)
	return &snippet, nil
}

// Delete removes the snippet stored under key and reports whether it existed.
func (s *MemoryStore[K]) Delete(ctx context.Context, key K) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.index[key]
	if !ok {
		return false, nil
	}
	s.records = append(s.records[:pos], s.records[pos+1:]...)
	delete(s.index, key)
	for i := pos; i < len(s.records); i++ {
		s.index[s.records[i].Key] = i
	}
	return true, nil
}

// SearchByVector ranks all records by cosine similarity to the query vector
// and returns the topK best matches in descending score order. The sort is
// stable, so equal scores keep insertion order.
func (s *MemoryStore[K]) SearchByVector(ctx context.Context, query domain.Embedding, topK int, filter domain.Filter[K]) ([]domain.ScoredSnippet[K], error) {
	if len(query) != s.dimensions {
		return nil, &domain.DimensionError{Want: s.dimensions, Got: len(query)}
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be at least 1, got %d", topK)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.ScoredSnippet[K], 0, len(s.records))
	for _, record := range s.records {
		if filter != nil && !filter(record) {
			continue
		}
		results = append(results, domain.ScoredSnippet[K]{
			Snippet: record,
			Score:   cosineSimilarity(query, record.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Size returns the number of stored records.
func (s *MemoryStore[K]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosineSimilarity(a, b domain.Embedding) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
