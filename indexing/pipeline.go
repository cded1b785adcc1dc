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
	"time"

	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/source"
)

// DocumentSource enumerates and loads corpus documents.
// source.Loader is the filesystem implementation.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, rel string) (*core.Document, error)
}

// Stats summarizes one build.
type Stats struct {
	Documents  int // Documents listed by the source
	Recomputed int
	Skipped    int // Unchanged documents whose entries were carried
	Drafts     int
	Malformed  int
	Duplicates int
	Fragments  int // Fresh fragments sent to the provider
	Carried    int // Entries carried from the previous build
	Purged     int // Prior entries dropped because their document became a draft
	Batches    int
	Duration   time.Duration
}

// Result is the outcome of a successful build.
type Result struct {
	Entries []core.IndexEntry
	Stats   Stats
}

// Pipeline drives one build: list, load, detect, chunk, embed, assemble.
type Pipeline struct {
	source    DocumentSource
	embedder  ai.Embedder
	batching  BatcherConfig
	minLength int
	plainText func(string) string
	progress  Progress
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithBatchSize sets the number of fragments per provider call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batching.BatchSize = size
		return nil
	}
}

// WithMaxConcurrency sets the number of batches in flight at once.
// The queue is flushed when it holds BatchSize*MaxConcurrency fragments.
func WithMaxConcurrency(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		p.batching.MaxConcurrency = n
		return nil
	}
}

// WithDimensions enforces a vector length. Zero learns it from the provider.
func WithDimensions(dims int) Option {
	return func(p *Pipeline) error {
		p.batching.Dimensions = dims
		return nil
	}
}

// WithNormalize enables or disables client-side unit-length normalization.
func WithNormalize(normalize bool) Option {
	return func(p *Pipeline) error {
		p.batching.Normalize = normalize
		return nil
	}
}

// WithRetry sets the attempts per provider call and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.batching.MaxAttempts = maxAttempts
		p.batching.RetryDelay = baseDelay
		return nil
	}
}

// WithRateLimit caps provider calls per second. Zero disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(p *Pipeline) error {
		p.batching.RateLimit = perSecond
		return nil
	}
}

// WithMinFragmentLength sets the shortest paragraph kept as a fragment.
func WithMinFragmentLength(n int) Option {
	return func(p *Pipeline) error {
		p.minLength = n
		return nil
	}
}

// WithPlainText replaces the markdown-to-plain-text converter.
func WithPlainText(fn func(string) string) Option {
	return func(p *Pipeline) error {
		if fn != nil {
			p.plainText = fn
		}
		return nil
	}
}

// WithProgress sets a progress reporter.
func WithProgress(progress Progress) Option {
	return func(p *Pipeline) error {
		if progress == nil {
			progress = nopProgress{}
		}
		p.progress = progress
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline reading from src and embedding with embedder.
func NewPipeline(src DocumentSource, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		source:    src,
		embedder:  embedder,
		batching:  DefaultBatcherConfig(),
		minLength: DefaultMinFragmentLength,
		plainText: source.PlainText,
		progress:  nopProgress{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Run builds the index. prev is the last successful build, or nil for a full
// rebuild. On error no entries are returned.
func (p *Pipeline) Run(ctx context.Context, prev *core.PreviousIndex) (*Result, error) {
	started := time.Now()

	if dims := p.batching.Dimensions; prev != nil && dims > 0 && prev.Dimensions() != 0 && prev.Dimensions() != dims {
		p.logger.Warn("previous index has a different vector dimension, rebuilding everything",
			"previous", prev.Dimensions(), "provider", dims)
		prev = nil
	}

	result, err := p.run(ctx, prev)
	if errors.Is(err, errStaleIndex) {
		// Carried entries cannot be mixed with vectors of another width.
		p.logger.Warn("rebuilding everything", "err", err)
		result, err = p.run(ctx, nil)
	}
	if err != nil {
		return nil, err
	}

	stats := &result.Stats
	stats.Duration = time.Since(started)
	p.logger.Info("build complete",
		"documents", stats.Documents,
		"recomputed", stats.Recomputed,
		"skipped", stats.Skipped,
		"drafts", stats.Drafts,
		"entries", len(result.Entries),
		"batches", stats.Batches,
		"duration", stats.Duration)

	return result, nil
}

// run performs one pass over the corpus. It returns errStaleIndex when the
// provider's vectors turn out to differ in width from carried entries.
func (p *Pipeline) run(ctx context.Context, prev *core.PreviousIndex) (*Result, error) {
	batcher, err := NewBatcher(p.embedder, p.batching, p.logger)
	if err != nil {
		return nil, err
	}
	defer batcher.Release()

	paths, err := p.source.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := Stats{Documents: len(paths)}
	detector := NewChangeDetector(prev)
	chunker := NewChunker(p.minLength)
	assembler := NewAssembler()
	seen := make(map[string]string, len(paths))

	p.progress.Start(len(paths))
	for _, rel := range paths {
		doc, err := p.source.Load(ctx, rel)
		if err != nil {
			if core.IsRecoverable(err) {
				p.logger.Warn("skipping document", "path", rel, "err", err)
				stats.Malformed++
				p.progress.Increment(1)
				continue
			}
			return nil, err
		}

		if first, dup := seen[doc.Slug]; dup {
			p.logger.Warn("skipping document",
				"path", rel, "slug", doc.Slug,
				"err", fmt.Errorf("%w: already used by %s", core.ErrDuplicateSlug, first))
			stats.Duplicates++
			p.progress.Increment(1)
			continue
		}
		seen[doc.Slug] = rel

		change := detector.Detect(doc)
		switch {
		case doc.Draft:
			stats.Drafts++
			stats.Purged += change.Purged
			if change.Purged > 0 {
				p.logger.Debug("purged draft entries", "slug", doc.Slug, "entries", change.Purged)
			}
		case change.Decision == core.DecisionSkip:
			assembler.Carry(doc.Slug, change.Carry)
			stats.Skipped++
			stats.Carried += len(change.Carry)
		default:
			fragments := chunker.Chunk(doc.Slug, p.plainText(doc.Body))
			assembler.Expect(doc.Slug, len(fragments))
			stats.Recomputed++
			stats.Fragments += len(fragments)
			for _, f := range fragments {
				pending := Pending{Fragment: f, Title: doc.Title, Description: doc.Description, Mtime: doc.Mtime}
				if err := batcher.Push(ctx, pending); err != nil {
					return nil, err
				}
			}
		}
		p.progress.Increment(1)
	}

	if err := batcher.Flush(ctx); err != nil {
		return nil, err
	}
	if dims := batcher.Dimensions(); stats.Carried > 0 && dims > 0 && prev.Dimensions() != dims {
		return nil, fmt.Errorf("%w: previous %d, provider %d", errStaleIndex, prev.Dimensions(), dims)
	}
	fresh, err := batcher.Entries()
	if err != nil {
		return nil, err
	}
	if err := assembler.Fill(fresh); err != nil {
		return nil, err
	}
	entries, err := assembler.Entries()
	if err != nil {
		return nil, err
	}
	p.progress.Finish()

	stats.Batches = batcher.Batches()
	return &Result{Entries: entries, Stats: stats}, nil
}
