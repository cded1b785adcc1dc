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

package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"

	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/core"
)

// Batching defaults.
const (
	DefaultBatchSize      = 16
	DefaultMaxConcurrency = 2
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = 200 * time.Millisecond
)

// Pending is a fragment waiting to be embedded, annotated with its document's metadata.
type Pending struct {
	Fragment    core.Fragment
	Title       string
	Description string
	Mtime       int64
}

// Text returns the provider input for the fragment: title, description and
// paragraph joined with ". ".
func (p Pending) Text() string {
	return p.Title + ". " + p.Description + ". " + p.Fragment.Text
}

// BatcherConfig holds the Batcher's tunables.
type BatcherConfig struct {
	BatchSize      int
	MaxConcurrency int
	// Dimensions is the expected vector length; 0 learns it from the first vector.
	Dimensions  int
	Normalize   bool
	MaxAttempts int
	RetryDelay  time.Duration
	// RateLimit caps provider calls per second; 0 disables throttling.
	RateLimit float64
}

// DefaultBatcherConfig returns the default batching configuration.
func DefaultBatcherConfig() BatcherConfig {
	return BatcherConfig{
		BatchSize:      DefaultBatchSize,
		MaxConcurrency: DefaultMaxConcurrency,
		Normalize:      true,
		MaxAttempts:    DefaultMaxAttempts,
		RetryDelay:     DefaultRetryDelay,
	}
}

// Batcher embeds queued fragments in fixed-size batches.
//
// Fragments are pushed in document-enumeration order. Once the queue holds
// BatchSize*MaxConcurrency fragments, every complete batch is dispatched on
// a pool of MaxConcurrency workers; Flush dispatches the remainder. Results
// are written at their batch offset, so Entries preserves push order
// regardless of which batch finishes first.
//
// A Batcher is driven by a single goroutine. After the first failure every
// call returns that error and Entries returns nothing.
type Batcher struct {
	embedder ai.Embedder
	cfg      BatcherConfig
	pool     *ants.Pool
	limiter  *rate.Limiter
	logger   *slog.Logger

	queue   []Pending
	entries []core.IndexEntry
	batches int
	err     error

	dimsMu sync.Mutex
	dims   int
}

// NewBatcher creates a batcher. Release must be called to stop its worker pool.
func NewBatcher(embedder ai.Embedder, cfg BatcherConfig, logger *slog.Logger) (*Batcher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cfg.BatchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	if cfg.MaxConcurrency < 1 {
		return nil, ErrInvalidConcurrency
	}
	if cfg.MaxAttempts < 1 {
		return nil, ErrInvalidMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(cfg.MaxConcurrency)
	if err != nil {
		return nil, err
	}

	b := &Batcher{
		embedder: embedder,
		cfg:      cfg,
		pool:     pool,
		logger:   logger.With("component", "batcher"),
		dims:     cfg.Dimensions,
	}
	if cfg.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return b, nil
}

// Push queues a fragment, dispatching complete batches once the queue
// reaches its threshold.
func (b *Batcher) Push(ctx context.Context, p Pending) error {
	if b.err != nil {
		return b.err
	}
	b.queue = append(b.queue, p)
	if len(b.queue) >= b.threshold() {
		return b.flush(ctx, false)
	}
	return nil
}

// Flush dispatches everything still queued, including a final partial batch.
func (b *Batcher) Flush(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	return b.flush(ctx, true)
}

// Entries returns the embedded entries in push order.
func (b *Batcher) Entries() ([]core.IndexEntry, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.entries, nil
}

// Batches returns the number of provider batches dispatched so far.
func (b *Batcher) Batches() int {
	return b.batches
}

// Pending returns the number of queued fragments not yet dispatched.
func (b *Batcher) Pending() int {
	return len(b.queue)
}

// Dimensions returns the vector length enforced so far, or 0 if unknown.
func (b *Batcher) Dimensions() int {
	b.dimsMu.Lock()
	defer b.dimsMu.Unlock()
	return b.dims
}

// Release stops the worker pool.
func (b *Batcher) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}

func (b *Batcher) threshold() int {
	return b.cfg.BatchSize * b.cfg.MaxConcurrency
}

func (b *Batcher) flush(ctx context.Context, all bool) error {
	n := len(b.queue)
	if !all {
		n -= n % b.cfg.BatchSize
	}
	if n == 0 {
		return nil
	}

	work := b.queue[:n]
	count := (n + b.cfg.BatchSize - 1) / b.cfg.BatchSize
	results := make([]core.IndexEntry, n)
	errs := make([]error, count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		start := i * b.cfg.BatchSize
		end := min(start+b.cfg.BatchSize, n)
		batchNum := b.batches + i

		wg.Add(1)
		submitErr := b.pool.Submit(func() {
			defer wg.Done()
			errs[i] = b.embedBatch(ctx, batchNum, work[start:end], results[start:end])
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()

	b.batches += count
	if err := errors.Join(errs...); err != nil {
		b.err = err
		b.queue = nil
		b.entries = nil
		return err
	}

	b.entries = append(b.entries, results...)
	b.queue = append(b.queue[:0], b.queue[n:]...)
	return nil
}

// embedBatch embeds one batch and writes its entries into out.
func (b *Batcher) embedBatch(ctx context.Context, batchNum int, batch []Pending, out []core.IndexEntry) error {
	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.Text()
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var callErr error
		vectors, callErr = b.embedder.EmbedTexts(ctx, texts)
		return callErr
	}, b.cfg.MaxAttempts, b.cfg.RetryDelay)
	if err != nil {
		b.logger.Error("embedding batch failed", "batch", batchNum, "size", len(batch), "err", err)
		return fmt.Errorf("%w: batch %d: %w", core.ErrEmbeddingProvider, batchNum, err)
	}
	b.logger.Debug("embedded batch", "batch", batchNum, "size", len(batch))

	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: batch %d: %w: got %d vectors for %d texts",
			core.ErrEmbeddingProvider, batchNum, ErrMisalignedResponse, len(vectors), len(batch))
	}

	for i, vec := range vectors {
		if err := b.checkDimensions(len(vec)); err != nil {
			return fmt.Errorf("%w: batch %d item %d: %w", core.ErrEmbeddingProvider, batchNum, i, err)
		}
		if b.cfg.Normalize {
			vec = ai.NormalizeVector(vec)
		}
		p := batch[i]
		out[i] = core.IndexEntry{
			ID:          p.Fragment.ID,
			Slug:        p.Fragment.Slug,
			Title:       p.Title,
			Description: p.Description,
			Mtime:       p.Mtime,
			Vector:      vec,
		}
	}
	return nil
}

func (b *Batcher) checkDimensions(n int) error {
	b.dimsMu.Lock()
	defer b.dimsMu.Unlock()

	if n == 0 {
		return core.ErrEmptyVector
	}
	if b.dims == 0 {
		b.dims = n
		return nil
	}
	if n != b.dims {
		return fmt.Errorf("%w: got %d, want %d", core.ErrDimensionMismatch, n, b.dims)
	}
	return nil
}
