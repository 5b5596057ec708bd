package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSearchResult(t *testing.T) {
	snippet := TextSnippet[string]{
		Key:                  "k1",
		Text:                 "Paris is the capital of France",
		ReferenceDescription: "doc1",
		ReferenceLink:        "file:///docs/doc1.txt",
	}

	result := MapSearchResult(snippet)
	assert.Equal(t, snippet.Text, result.Value)
	assert.Equal(t, "doc1", result.Name)
	assert.Equal(t, "file:///docs/doc1.txt", result.Link)
}

func TestMapSearchResultAbsentReferences(t *testing.T) {
	snippet := TextSnippet[string]{Key: "k1", Text: "some text"}

	result := MapSearchResult(snippet)
	assert.Equal(t, "some text", result.Value)
	assert.Empty(t, result.Name)
	assert.Empty(t, result.Link)
}

func TestSnippetText(t *testing.T) {
	snippet := TextSnippet[string]{Key: "k1", Text: "relevance text"}
	assert.Equal(t, "relevance text", SnippetText(snippet))
}
