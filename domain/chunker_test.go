package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkWithoutOverlap(t *testing.T) {
	chunker := NewTextChunker(100, 0)
	text := strings.Repeat("a", 250)

	chunks := chunker.Chunk(text)
	require.Len(t, chunks, 3) // ceil(250/100)
	assert.Len(t, chunks[0], 100)
	assert.Len(t, chunks[1], 100)
	assert.Len(t, chunks[2], 50)
}

func TestChunkWithOverlap(t *testing.T) {
	chunker := NewTextChunker(4, 1)

	chunks := chunker.Chunk("abcdefghij")
	require.Equal(t, []string{"abcd", "defg", "ghij"}, chunks)
}

func TestChunkProducesNonEmptyChunks(t *testing.T) {
	chunker := NewTextChunker(5, 0)

	chunks := chunker.Chunk("hello     world")
	for _, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestChunkEmptyText(t *testing.T) {
	chunker := NewTextChunker(100, 10)
	assert.Empty(t, chunker.Chunk(""))
	assert.Empty(t, chunker.Chunk("   \n\t  "))
}

func TestChunkerClampsOverlap(t *testing.T) {
	// overlap >= size must still advance the window
	chunker := NewTextChunker(3, 5)
	chunks := chunker.Chunk("abcdef")
	assert.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 10)
}

func TestSnippetValidate(t *testing.T) {
	snippet := TextSnippet[string]{Key: "k", Text: "text", Embedding: Embedding{1, 2, 3}}
	require.NoError(t, snippet.Validate(3))

	var dimErr *DimensionError
	err := snippet.Validate(4)
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Want)
	assert.Equal(t, 3, dimErr.Got)

	empty := TextSnippet[string]{Key: "k", Embedding: Embedding{1, 2, 3}}
	assert.ErrorIs(t, empty.Validate(3), ErrEmptyText)
}
