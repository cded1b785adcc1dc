package ai

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/poiesic/semindex/core"
)

// DefaultEmbeddingCacheSize is the default number of vectors kept in memory.
// At 384 dimensions * 4 bytes * 4096 entries that is about 6MB.
const DefaultEmbeddingCacheSize = 4096

// CachedEmbedder wraps an Embedder with an in-memory LRU and an optional
// persistent VectorCache. Keys are content hashes of the model name and text,
// so a model change never returns stale vectors.
type CachedEmbedder struct {
	inner      Embedder
	model      string
	memory     *lru.Cache[core.ID, []float32]
	persistent VectorCache
	logger     *slog.Logger
}

// CachedEmbedderOption configures a CachedEmbedder.
type CachedEmbedderOption func(*CachedEmbedder)

// WithVectorCache adds a persistent cache layer behind the LRU.
func WithVectorCache(cache VectorCache) CachedEmbedderOption {
	return func(c *CachedEmbedder) {
		c.persistent = cache
	}
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) CachedEmbedderOption {
	return func(c *CachedEmbedder) {
		c.logger = logger
	}
}

// NewCachedEmbedder creates a cached embedder wrapping inner.
func NewCachedEmbedder(inner Embedder, model string, size int, opts ...CachedEmbedderOption) *CachedEmbedder {
	if size <= 0 {
		size = DefaultEmbeddingCacheSize
	}
	memory, _ := lru.New[core.ID, []float32](size)
	c := &CachedEmbedder{
		inner:  inner,
		model:  model,
		memory: memory,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "cached-embedder")
	return c
}

func (c *CachedEmbedder) key(text string) core.ID {
	return core.IDFromContent(c.model + "\x00" + text)
}

// EmbedText returns the cached vector for text, computing it on a miss.
func (c *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts looks every text up in memory, then in the persistent cache, and
// sends the remaining misses to the inner embedder in a single call.
func (c *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	keys := make([]core.ID, len(texts))
	missing := make([]int, 0, len(texts))

	for i, text := range texts {
		keys[i] = c.key(text)
		if vec, ok := c.memory.Get(keys[i]); ok {
			results[i] = vec
		} else {
			missing = append(missing, i)
		}
	}

	if len(missing) > 0 && c.persistent != nil {
		lookup := make([]core.ID, len(missing))
		for j, idx := range missing {
			lookup[j] = keys[idx]
		}
		found, err := c.persistent.GetVectors(ctx, lookup)
		if err != nil {
			c.logger.Warn("persistent cache lookup failed", "err", err)
		} else {
			remaining := missing[:0]
			for _, idx := range missing {
				if vec, ok := found[keys[idx]]; ok {
					results[idx] = vec
					c.memory.Add(keys[idx], vec)
				} else {
					remaining = append(remaining, idx)
				}
			}
			missing = remaining
		}
	}

	if len(missing) == 0 {
		return results, nil
	}

	uncached := make([]string, len(missing))
	for j, idx := range missing {
		uncached[j] = texts[idx]
	}
	c.logger.Debug("cache miss", "count", len(uncached), "hits", len(texts)-len(uncached))

	computed, err := c.inner.EmbedTexts(ctx, uncached)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(uncached) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(computed), len(uncached))
	}

	fresh := make(map[core.ID][]float32, len(missing))
	for j, idx := range missing {
		results[idx] = computed[j]
		c.memory.Add(keys[idx], computed[j])
		fresh[keys[idx]] = computed[j]
	}
	if c.persistent != nil {
		if err := c.persistent.PutVectors(ctx, fresh); err != nil {
			c.logger.Warn("persistent cache write failed", "err", err)
		}
	}

	return results, nil
}

// Inner returns the wrapped embedder.
func (c *CachedEmbedder) Inner() Embedder {
	return c.inner
}
