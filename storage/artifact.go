// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
	"github.com/poiesic/semindex/core"
)

// ArtifactStore reads and writes the JSON index artifact.
type ArtifactStore struct {
	path string
	lock *flock.Flock
}

// NewArtifactStore creates a store for the artifact at path. The lock file
// lives next to it as <path>.lock.
func NewArtifactStore(path string) *ArtifactStore {
	return &ArtifactStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the artifact location.
func (s *ArtifactStore) Path() string {
	return s.path
}

// Load reads the artifact. A missing artifact yields an empty slice and no
// error; an artifact that cannot be decoded is an error.
func (s *ArtifactStore) Load() ([]core.IndexEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.IndexEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrSourceAccess, s.path, err)
	}

	var entries []core.IndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptArtifact, s.path, err)
	}
	if entries == nil {
		entries = []core.IndexEntry{}
	}
	return entries, nil
}

// LoadPrevious loads the artifact as a PreviousIndex for change detection.
func (s *ArtifactStore) LoadPrevious() (*core.PreviousIndex, error) {
	entries, err := s.Load()
	if err != nil {
		return nil, err
	}
	return core.NewPreviousIndex(entries), nil
}

// Save atomically replaces the artifact with entries. Readers observe either
// the old artifact or the new one, never a partial write.
func (s *ArtifactStore) Save(entries []core.IndexEntry) error {
	if entries == nil {
		entries = []core.IndexEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("%w: encode index: %w", ErrSerializationFailed, err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

// Lock takes an exclusive lock on the artifact for the duration of a build.
// It does not block: if another process holds the lock, ErrLocked is returned.
// The returned function releases the lock.
func (s *ArtifactStore) Lock() (func() error, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create lock directory: %w", err)
		}
	}

	acquired, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: %s", ErrLocked, s.lock.Path())
	}
	return s.lock.Unlock, nil
}
