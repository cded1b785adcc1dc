package storage

import (
	"context"

	"github.com/poiesic/semindex/core"
)

// VectorCache persists embedding vectors keyed by content hash.
// Implementations must be thread-safe and support concurrent access.
type VectorCache interface {
	// GetVectors returns the cached vectors for the keys that are present.
	// Missing keys are absent from the result; they are not an error.
	GetVectors(ctx context.Context, keys []core.ID) (map[core.ID][]float32, error)

	// PutVectors stores vectors under their keys, replacing existing values.
	PutVectors(ctx context.Context, vectors map[core.ID][]float32) error

	// Count returns the number of cached vectors.
	Count(ctx context.Context) (int, error)

	// Clear removes every cached vector.
	Clear(ctx context.Context) error
}

// CheckpointRepository stores the record of the last successful build.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint, replacing the previous one.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for an artifact path.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, artifact string) (*core.Checkpoint, error)
}
