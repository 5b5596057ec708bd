package domain

import "strings"

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// TextChunker splits raw document text into bounded-size snippets using a
// fixed rune window with optional overlap between consecutive chunks.
type TextChunker struct {
	size    int
	overlap int
}

// NewTextChunker creates a chunker with the given window size and overlap,
// both in runes. Non-positive size falls back to the default; overlap is
// clamped below the window size so the window always advances.
func NewTextChunker(size, overlap int) *TextChunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &TextChunker{size: size, overlap: overlap}
}

// Chunk splits text into chunks. Whitespace-only chunks are dropped, so every
// returned chunk has non-empty text.
func (c *TextChunker) Chunk(text string) []string {
	runes := []rune(text)
	var chunks []string
	for start := 0; start < len(runes); start += c.size - c.overlap {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
