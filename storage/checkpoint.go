package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	"github.com/poiesic/semindex/core"
)

// CheckpointSuffix is appended to the artifact path to name the checkpoint
// file kept by FileCheckpointRepository.
const CheckpointSuffix = ".checkpoint"

// FileCheckpointRepository stores each artifact's checkpoint in a small
// binary file beside it, so the build record exists without a cache database.
type FileCheckpointRepository struct{}

var _ CheckpointRepository = FileCheckpointRepository{}

// NewFileCheckpointRepository creates a file-backed checkpoint repository.
func NewFileCheckpointRepository() FileCheckpointRepository {
	return FileCheckpointRepository{}
}

// SaveCheckpoint atomically writes <artifact>.checkpoint. A zero BuiltAt is
// stamped with the current time.
func (FileCheckpointRepository) SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if checkpoint.BuiltAt.IsZero() {
		checkpoint.BuiltAt = time.Now().UTC()
	}
	path := checkpoint.Artifact + CheckpointSuffix
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}
	if err := renameio.WriteFile(path, MarshalCheckpoint(checkpoint), 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads <artifact>.checkpoint. Returns nil, nil if it does not
// exist.
func (FileCheckpointRepository) LoadCheckpoint(ctx context.Context, artifact string) (*core.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(artifact + CheckpointSuffix)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrSourceAccess, artifact+CheckpointSuffix, err)
	}
	return UnmarshalCheckpoint(data)
}
