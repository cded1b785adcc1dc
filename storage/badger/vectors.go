package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
)

// VectorCache implements storage.VectorCache for BadgerDB. Vectors are stored
// under their content hash and encoded with storage.MarshalVector.
type VectorCache struct {
	backend *Backend
}

var (
	_ storage.VectorCache = (*VectorCache)(nil)
	_ ai.VectorCache      = (*VectorCache)(nil)
)

// NewVectorCache creates a vector cache on backend.
func NewVectorCache(backend *Backend) *VectorCache {
	return &VectorCache{backend: backend}
}

// GetVectors returns the vectors present for keys. Missing keys are omitted.
func (c *VectorCache) GetVectors(ctx context.Context, keys []core.ID) (map[core.ID][]float32, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	found := make(map[core.ID][]float32, len(keys))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeVectorKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				vec, err := storage.UnmarshalVector(val)
				if err != nil {
					return fmt.Errorf("vector %d: %w", key, err)
				}
				found[key] = vec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// PutVectors stores vectors, replacing any existing value for a key.
func (c *VectorCache) PutVectors(ctx context.Context, vectors map[core.ID][]float32) error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(vectors) == 0 {
		return nil
	}
	return c.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for key, vec := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeVectorKey(key), storage.MarshalVector(vec)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of cached vectors.
func (c *VectorCache) Count(ctx context.Context) (int, error) {
	if c.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Clear removes every cached vector. Checkpoints are kept.
func (c *VectorCache) Clear(ctx context.Context) error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return c.backend.dropPrefix([]byte(vectorPrefix))
}
