package domain

import "github.com/google/uuid"

// UniqueKeyGenerator produces collision-resistant keys for new records.
// Generation is stateless per call, so concurrent ingestion workers can share
// one generator with no coordination.
type UniqueKeyGenerator[K comparable] struct {
	generate func() K
}

// NewUniqueKeyGenerator creates a generator from the given key factory.
func NewUniqueKeyGenerator[K comparable](generate func() K) *UniqueKeyGenerator[K] {
	return &UniqueKeyGenerator[K]{generate: generate}
}

// Generate returns a fresh key.
func (g *UniqueKeyGenerator[K]) Generate() K {
	return g.generate()
}

// NewGUIDKeyGenerator returns a generator producing textual GUID keys backed
// by a cryptographically strong random source.
func NewGUIDKeyGenerator() *UniqueKeyGenerator[string] {
	return NewUniqueKeyGenerator(uuid.NewString)
}

// NewUUIDKeyGenerator returns a generator producing opaque 128-bit keys.
func NewUUIDKeyGenerator() *UniqueKeyGenerator[uuid.UUID] {
	return NewUniqueKeyGenerator(uuid.New)
}
