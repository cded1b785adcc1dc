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

// Package semindex builds a static semantic-search index from a markdown
// corpus.
//
// An Indexer owns the embedding provider, the optional persistent vector
// cache and the index artifact. Each Build runs the incremental pipeline:
// unchanged documents carry their previous entries forward, changed ones are
// re-chunked and re-embedded, and the artifact is replaced atomically only if
// the whole build succeeds.
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	idx, err := semindex.NewIndexer(cfg)
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//
//	result, err := idx.Build(ctx, semindex.BuildOptions{})
package semindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/ai/ollama"
	"github.com/poiesic/semindex/ai/openai"
	"github.com/poiesic/semindex/config"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/indexing"
	"github.com/poiesic/semindex/source"
	"github.com/poiesic/semindex/storage"
	"github.com/poiesic/semindex/storage/badger"
)

// Indexer builds and rebuilds the index artifact for one corpus.
type Indexer struct {
	cfg         *config.Config
	provider    ai.Provider
	embedder    ai.Embedder
	backend     *badger.Backend
	checkpoints storage.CheckpointRepository
	store       *storage.ArtifactStore
	loader      *source.Loader
	logger      *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*indexerOptions)

type indexerOptions struct {
	provider ai.Provider
	logger   *slog.Logger
}

// WithProvider uses provider instead of constructing one from the
// configuration. The Indexer takes ownership and closes it.
func WithProvider(provider ai.Provider) IndexerOption {
	return func(o *indexerOptions) {
		o.provider = provider
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) IndexerOption {
	return func(o *indexerOptions) {
		o.logger = logger
	}
}

// BuildOptions controls a single build.
type BuildOptions struct {
	// Full ignores the previous artifact and recomputes every document.
	Full bool

	// Progress receives per-document progress. May be nil.
	Progress indexing.Progress
}

// NewProvider constructs the embedding provider selected by cfg.Backend.
func NewProvider(cfg *ai.Config) (ai.Provider, error) {
	cfg.Canonicalize()
	switch cfg.Backend {
	case ai.BackendOllama:
		return ollama.NewProvider(cfg)
	case ai.BackendOpenAI:
		return openai.NewProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownBackend, cfg.Backend)
	}
}

// NewIndexer acquires the provider and opens the vector cache. The provider
// is held for the Indexer's lifetime, so watch mode reuses it across builds.
func NewIndexer(cfg *config.Config, opts ...IndexerOption) (*Indexer, error) {
	if cfg == nil {
		return nil, errors.New("semindex: config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &indexerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger.With("component", "indexer")

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(cfg.AIConfig())
		if err != nil {
			return nil, err
		}
	}

	idx := &Indexer{
		cfg:      cfg,
		provider: provider,
		embedder: provider.Embedder(),
		store:    storage.NewArtifactStore(cfg.Output.Path),
		loader: source.NewLoader(cfg.Source.Root,
			source.WithPrivatePrefix(cfg.Source.PrivatePrefix),
			source.WithExtensions(cfg.Source.Extensions...),
			source.WithLogger(options.logger),
		),
		checkpoints: storage.NewFileCheckpointRepository(),
		logger:      logger,
	}

	if cfg.Cache.Enabled {
		var cacheOpts []ai.CachedEmbedderOption
		cacheOpts = append(cacheOpts, ai.WithCacheLogger(options.logger))
		if cfg.Cache.Dir != "" {
			backend, err := badger.OpenBackend(cfg.Cache.Dir, false)
			if err != nil {
				provider.Close()
				return nil, fmt.Errorf("open cache: %w", err)
			}
			idx.backend = backend
			idx.checkpoints = badger.NewCheckpointRepository(backend)
			cacheOpts = append(cacheOpts, ai.WithVectorCache(badger.NewVectorCache(backend)))
		}
		idx.embedder = ai.NewCachedEmbedder(provider.Embedder(), provider.ModelName(), cfg.Cache.Size, cacheOpts...)
	}

	logger.Debug("indexer ready",
		"root", cfg.Source.Root,
		"output", cfg.Output.Path,
		"model", provider.ModelName(),
		"cache", cfg.Cache.Dir)
	return idx, nil
}

// Source returns the document loader, which watch mode uses as its filter.
func (idx *Indexer) Source() *source.Loader {
	return idx.loader
}

// Build runs one build and replaces the artifact on success. On any error the
// previous artifact is left untouched.
func (idx *Indexer) Build(ctx context.Context, opts BuildOptions) (*indexing.Result, error) {
	unlock, err := idx.store.Lock()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			idx.logger.Warn("failed to release artifact lock", "err", err)
		}
	}()

	prev, err := idx.previous(ctx, opts.Full)
	if err != nil {
		return nil, err
	}

	retryDelay, err := idx.cfg.RetryDelay()
	if err != nil {
		return nil, err
	}
	pipeline, err := indexing.NewPipeline(idx.loader, idx.embedder,
		indexing.WithBatchSize(idx.cfg.Indexing.BatchSize),
		indexing.WithMaxConcurrency(idx.cfg.Indexing.MaxConcurrency),
		indexing.WithDimensions(idx.provider.Dimensions()),
		indexing.WithNormalize(idx.cfg.Embedding.Normalize),
		indexing.WithRetry(idx.cfg.Indexing.MaxAttempts, retryDelay),
		indexing.WithRateLimit(idx.cfg.Indexing.RateLimit),
		indexing.WithMinFragmentLength(idx.cfg.Indexing.MinFragmentLength),
		indexing.WithProgress(opts.Progress),
		indexing.WithLogger(idx.logger),
	)
	if err != nil {
		return nil, err
	}

	result, err := pipeline.Run(ctx, prev)
	if err != nil {
		return nil, err
	}

	if err := idx.store.Save(result.Entries); err != nil {
		return nil, err
	}

	idx.recordCheckpoint(ctx, result.Entries)
	return result, nil
}

// previous loads the last artifact for change detection. A full build, or a
// checkpoint recorded with a different model, yields nil.
func (idx *Indexer) previous(ctx context.Context, full bool) (*core.PreviousIndex, error) {
	if full {
		idx.logger.Info("full rebuild requested")
		return nil, nil
	}

	cp, err := idx.checkpoints.LoadCheckpoint(ctx, idx.store.Path())
	if err != nil {
		idx.logger.Warn("failed to load checkpoint", "err", err)
	} else if cp != nil && cp.Model != idx.provider.ModelName() {
		idx.logger.Info("embedding model changed, rebuilding everything",
			"previous", cp.Model, "current", idx.provider.ModelName())
		return nil, nil
	}

	prev, err := idx.store.LoadPrevious()
	if err != nil {
		return nil, err
	}
	return prev, nil
}

func (idx *Indexer) recordCheckpoint(ctx context.Context, entries []core.IndexEntry) {
	cp := &core.Checkpoint{
		Artifact:   idx.store.Path(),
		Model:      idx.provider.ModelName(),
		Dimensions: core.NewPreviousIndex(entries).Dimensions(),
		Entries:    len(entries),
	}
	// The artifact is already in place; a stale checkpoint only costs a
	// rebuild later.
	if err := idx.checkpoints.SaveCheckpoint(ctx, cp); err != nil {
		idx.logger.Warn("failed to save checkpoint", "err", err)
	}
}

// Close releases the provider and the cache.
func (idx *Indexer) Close() error {
	var errs []error
	if err := idx.provider.Close(); err != nil {
		idx.logger.Error("error closing embedding provider", "err", err)
		errs = append(errs, err)
	}
	if idx.backend != nil {
		if err := idx.backend.Close(); err != nil {
			idx.logger.Error("error closing cache", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
