package ai

import (
	"context"

	"github.com/poiesic/semindex/core"
)

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in one call.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Provider owns an Embedder for the lifetime of a build.
// A provider is expensive to initialize: create it once, reuse it for every
// batch and release it with Close when the build ends.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Dimensions returns the configured vector length, or 0 if it is only
	// known after the first embedding call.
	Dimensions() int

	// ModelName returns the model identifier used for embeddings.
	ModelName() string

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

// VectorCache persists vectors keyed by content hash across builds.
// storage/badger provides the BadgerDB implementation.
type VectorCache interface {
	// GetVectors returns the cached vectors for the keys that are present.
	GetVectors(ctx context.Context, keys []core.ID) (map[core.ID][]float32, error)

	// PutVectors stores vectors under their keys, replacing existing values.
	PutVectors(ctx context.Context, vectors map[core.ID][]float32) error
}
