package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"vectorstore-rag/domain"
)

// DocumentSource is one raw document handed to the loader: its content plus
// the citation metadata every snippet cut from it will carry.
type DocumentSource struct {
	Name    string
	Link    string
	Content string
}

// FileSource builds a DocumentSource from a file on disk. The base name
// becomes the reference description and a file URI the reference link.
func FileSource(path string) (DocumentSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentSource{}, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return DocumentSource{
		Name:    filepath.Base(path),
		Link:    "file://" + filepath.ToSlash(abs),
		Content: string(data),
	}, nil
}

// IngestionReport summarizes an ingestion run. When a shutdown request stops
// the run early or a storage write aborts a batch, Completed is false and the
// counters describe the partial result.
type IngestionReport struct {
	Documents       int
	Snippets        int
	Stored          int
	Skipped         int
	UncommittedKeys []string
	Completed       bool
}

// DataLoaderService is the ingestion pipeline: it splits documents into
// bounded-size snippets, embeds them, assigns each one a unique key and
// upserts them into the vector store in batches.
type DataLoaderService[K comparable] struct {
	chunker   *domain.TextChunker
	embedder  domain.EmbeddingClient
	keys      *domain.UniqueKeyGenerator[K]
	store     domain.VectorStore[K]
	batchSize int
	logger    *zap.Logger
}

// NewDataLoaderService creates a new DataLoaderService.
func NewDataLoaderService[K comparable](
	chunker *domain.TextChunker,
	embedder domain.EmbeddingClient,
	keys *domain.UniqueKeyGenerator[K],
	store domain.VectorStore[K],
	batchSize int,
	logger *zap.Logger,
) *DataLoaderService[K] {
	if batchSize <= 0 {
		batchSize = 25
	}
	return &DataLoaderService[K]{
		chunker:   chunker,
		embedder:  embedder,
		keys:      keys,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

type pendingSnippet struct {
	text string
	name string
	link string
}

// Load ingests the given documents. It checks the shutdown signal before
// starting each batch: once cancellation is requested, in-flight work is
// completed, nothing new is started, and the report describes the partial
// result. A batch is either fully upserted or not stored at all.
func (s *DataLoaderService[K]) Load(ctx context.Context, sources []DocumentSource) (*IngestionReport, error) {
	report := &IngestionReport{}

	if err := s.store.EnsureCollection(ctx); err != nil {
		return report, fmt.Errorf("ensure collection: %w", err)
	}

	var queue []pendingSnippet
	for _, doc := range sources {
		chunks := s.chunker.Chunk(doc.Content)
		report.Documents++
		for _, text := range chunks {
			queue = append(queue, pendingSnippet{text: text, name: doc.Name, link: doc.Link})
		}
	}
	report.Snippets = len(queue)
	s.logger.Info("starting ingestion",
		zap.Int("documents", report.Documents),
		zap.Int("snippets", report.Snippets),
		zap.Int("batch_size", s.batchSize))

	for start := 0; start < len(queue); start += s.batchSize {
		select {
		case <-ctx.Done():
			s.logger.Info("shutdown requested, stopping ingestion after completed batches",
				zap.Int("stored", report.Stored),
				zap.Int("remaining", len(queue)-start))
			return report, nil
		default:
		}

		end := start + s.batchSize
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]

		snippets, skipped := s.embedBatch(ctx, batch)
		report.Skipped += skipped
		if len(snippets) == 0 {
			continue
		}

		keys, err := s.store.UpsertBatch(ctx, snippets)
		if err != nil {
			for _, snippet := range snippets {
				report.UncommittedKeys = append(report.UncommittedKeys, fmt.Sprint(snippet.Key))
			}
			return report, fmt.Errorf("upsert batch: %w", err)
		}
		report.Stored += len(keys)
	}

	report.Completed = true
	s.logger.Info("ingestion complete",
		zap.Int("stored", report.Stored),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// embedBatch embeds one batch of pending snippets and assigns keys. The whole
// batch is embedded in one call; if that fails, snippets are embedded one at
// a time so a single bad snippet is logged and skipped rather than sinking
// the batch.
func (s *DataLoaderService[K]) embedBatch(ctx context.Context, batch []pendingSnippet) ([]domain.TextSnippet[K], int) {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.text
	}

	embeddings, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		s.logger.Warn("batch embedding failed, retrying snippets individually", zap.Error(err))
		embeddings = make([]domain.Embedding, len(texts))
		for i, text := range texts {
			single, err := s.embedder.GenerateEmbeddings(ctx, []string{text})
			if err != nil || len(single) == 0 {
				s.logger.Warn("skipping snippet, embedding failed",
					zap.Int("index", i),
					zap.Error(err))
				continue
			}
			embeddings[i] = single[0]
		}
	}

	snippets := make([]domain.TextSnippet[K], 0, len(batch))
	skipped := 0
	for i, p := range batch {
		if i >= len(embeddings) || embeddings[i] == nil {
			skipped++
			continue
		}
		snippets = append(snippets, domain.TextSnippet[K]{
			Key:                  s.keys.Generate(),
			Text:                 p.text,
			Embedding:            embeddings[i],
			ReferenceDescription: p.name,
			ReferenceLink:        p.link,
		})
	}
	return snippets, skipped
}
