package domain

import "strings"

// TextSnippet is one stored unit of knowledge: a chunk of source text together
// with its embedding and an optional citation back to the source document.
// The key is assigned once at ingestion and the record is immutable after it
// has been stored.
type TextSnippet[K comparable] struct {
	Key                  K         `json:"key"`
	Text                 string    `json:"text"`
	Embedding            Embedding `json:"embedding"`
	ReferenceDescription string    `json:"reference_description,omitempty"`
	ReferenceLink        string    `json:"reference_link,omitempty"`
}

// Validate checks the write-time invariants: non-empty text and an embedding
// of exactly the collection's dimension.
func (s TextSnippet[K]) Validate(dimensions int) error {
	if strings.TrimSpace(s.Text) == "" {
		return ErrEmptyText
	}
	if len(s.Embedding) != dimensions {
		return &DimensionError{Want: dimensions, Got: len(s.Embedding)}
	}
	return nil
}
