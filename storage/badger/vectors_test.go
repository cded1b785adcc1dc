package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCache_PutGet(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	a := core.IDFromContent("alpha")
	b := core.IDFromContent("beta")
	missing := core.IDFromContent("gamma")

	require.NoError(t, cache.PutVectors(ctx, map[core.ID][]float32{
		a: {0.6, 0.8},
		b: {1, 0},
	}))

	got, err := cache.GetVectors(ctx, []core.ID{a, missing, b})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, []float32{0.6, 0.8}, got[a])
	assert.Equal(t, []float32{1, 0}, got[b])
	_, ok := got[missing]
	assert.False(t, ok)
}

func TestVectorCache_Overwrite(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := core.IDFromContent("text")

	require.NoError(t, cache.PutVectors(ctx, map[core.ID][]float32{key: {1, 0}}))
	require.NoError(t, cache.PutVectors(ctx, map[core.ID][]float32{key: {0, 1}}))

	got, err := cache.GetVectors(ctx, []core.ID{key})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, got[key])
}

func TestVectorCache_CountAndClear(t *testing.T) {
	cache, checkpoints, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	vectors := make(map[core.ID][]float32)
	for i := range 50 {
		vectors[core.IDFromContent(fmt.Sprintf("text-%d", i))] = []float32{float32(i)}
	}
	require.NoError(t, cache.PutVectors(ctx, vectors))
	require.NoError(t, checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Artifact: "index.json", Model: "m"}))

	count, err := cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, count)

	require.NoError(t, cache.Clear(ctx))

	count, err = cache.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	cp, err := checkpoints.LoadCheckpoint(ctx, "index.json")
	require.NoError(t, err)
	require.NotNil(t, cp, "clearing vectors must keep checkpoints")
}

func TestVectorCache_EmptyPut(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, cache.PutVectors(context.Background(), nil))
}

func TestVectorCache_Closed(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	ctx := context.Background()
	_, err = cache.GetVectors(ctx, []core.ID{1})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, cache.PutVectors(ctx, map[core.ID][]float32{1: {1}}), storage.ErrStorageClosed)
}

func TestVectorCache_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := core.IDFromContent("persistent")

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NoError(t, NewVectorCache(backend).PutVectors(ctx, map[core.ID][]float32{key: {0.5, 0.5}}))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	got, err := NewVectorCache(backend).GetVectors(ctx, []core.ID{key})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, got[key])
}
