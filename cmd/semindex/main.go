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

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/poiesic/semindex"
	"github.com/poiesic/semindex/assets"
	"github.com/poiesic/semindex/config"
	"github.com/poiesic/semindex/indexing"
	"github.com/poiesic/semindex/watch"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "semindex",
		Usage: "Build a static semantic-search index from a markdown corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default: semindex.yaml if present)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
		},
		Before: before,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build or incrementally update the index",
				Action: buildCommand,
				Flags: append(indexFlags(),
					&cli.BoolFlag{
						Name:  "full",
						Usage: "Ignore the previous index and recompute every document",
					},
				),
			},
			{
				Name:   "watch",
				Usage:  "Build, then rebuild whenever the corpus changes",
				Action: watchCommand,
				Flags: append(indexFlags(),
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Quiet period after the last change before rebuilding",
					},
				),
			},
			{
				Name:   "inspect",
				Usage:  "Summarize an index artifact",
				Action: inspectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "index",
						Aliases: []string{"i"},
						Usage:   "Path to the index artifact (default: output.path from config)",
					},
				},
			},
			{
				Name:   "assets",
				Usage:  "Copy model assets into a servable directory if missing",
				Action: assetsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "from",
						Usage: "Source directory of the model assets",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Destination directory",
					},
				},
			},
		},
	}
}

func indexFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "root",
			Aliases: []string{"r"},
			Usage:   "Corpus root directory",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Index artifact path",
		},
		&cli.StringFlag{
			Name:  "embedding-backend",
			Usage: "Embedding backend (openai, ollama)",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Expected vector length (0 learns it from the provider)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of fragments per provider call",
		},
		&cli.IntFlag{
			Name:  "max-concurrency",
			Usage: "Number of provider calls in flight",
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum attempts per provider call",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
		},
		&cli.Float64Flag{
			Name:  "rate-limit",
			Usage: "Maximum provider calls per second (0 = unlimited)",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Directory for the persistent embedding cache",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "Disable the embedding cache",
		},
	}
}

func before(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the configuration file and applies command-line overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("root") {
		cfg.Source.Root = c.String("root")
	}
	if c.IsSet("out") {
		cfg.Output.Path = c.String("out")
	}
	if c.IsSet("embedding-backend") {
		cfg.Embedding.Backend = c.String("embedding-backend")
	}
	if c.IsSet("embedding-host") {
		cfg.Embedding.Host = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.Embedding.Model = c.String("embedding-model")
	}
	if c.IsSet("dimensions") {
		cfg.Embedding.Dimensions = c.Int("dimensions")
	}
	if c.IsSet("batch-size") {
		cfg.Indexing.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("max-concurrency") {
		cfg.Indexing.MaxConcurrency = c.Int("max-concurrency")
	}
	if c.IsSet("max-retries") {
		cfg.Indexing.MaxAttempts = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		cfg.Indexing.RetryDelay = c.Duration("retry-delay").String()
	}
	if c.IsSet("rate-limit") {
		cfg.Indexing.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Dir = c.String("cache-dir")
	}
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.IsSet("debounce") {
		cfg.Watch.Debounce = c.Duration("debounce").String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, err := semindex.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	printHeader(cfg)

	result, err := idx.Build(ctx, semindex.BuildOptions{
		Full:     c.Bool("full"),
		Progress: newProgress(os.Stderr),
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	printStats(cfg.Output.Path, result.Stats)
	return nil
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	debounce, err := cfg.DebounceInterval()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	idx, err := semindex.NewIndexer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create indexer: %w", err)
	}
	defer idx.Close()

	printHeader(cfg)

	result, err := idx.Build(ctx, semindex.BuildOptions{Progress: newProgress(os.Stderr)})
	if err != nil {
		return fmt.Errorf("initial build failed: %w", err)
	}
	printStats(cfg.Output.Path, result.Stats)

	watcher, err := watch.NewWatcher(cfg.Source.Root, idx.Source(), watch.WithDebounce(debounce))
	if err != nil {
		return err
	}

	return watcher.Run(ctx, func(ctx context.Context, changed []string) error {
		started := time.Now()
		result, err := idx.Build(ctx, semindex.BuildOptions{})
		if err != nil {
			color.Red("Rebuild failed: %v\n", err)
			return err
		}
		color.Cyan("%d changed path(s), rebuilt in %s\n", len(changed), time.Since(started).Round(time.Millisecond))
		printStats(cfg.Output.Path, result.Stats)
		return nil
	})
}

func assetsCommand(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	from, to := cfg.Assets.From, cfg.Assets.To
	if c.IsSet("from") {
		from = c.String("from")
	}
	if c.IsSet("to") {
		to = c.String("to")
	}
	if from == "" || to == "" {
		return errors.New("both --from and --to (or assets.from and assets.to in the config) are required")
	}

	copied, err := assets.CopyIfMissing(c.Context, from, to)
	if err != nil {
		return fmt.Errorf("asset copy failed: %w", err)
	}
	if copied {
		color.Green("✓ Copied assets %s -> %s\n", from, to)
	} else {
		fmt.Fprintf(os.Stderr, "Assets already present in %s\n", to)
	}
	return nil
}

func printHeader(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "Corpus: %s\n", cfg.Source.Root)
	fmt.Fprintf(os.Stderr, "Output: %s\n", cfg.Output.Path)
	fmt.Fprintf(os.Stderr, "Embedding: %s %s (%s)\n", cfg.Embedding.Backend, cfg.Embedding.Model, cfg.Embedding.Host)
	fmt.Fprintln(os.Stderr)
}

func printStats(out string, stats indexing.Stats) {
	color.Green("✓ Indexed %d documents into %s\n", stats.Documents, out)
	fmt.Fprintf(os.Stderr, "  recomputed: %d, unchanged: %d, drafts: %d, skipped with errors: %d\n",
		stats.Recomputed, stats.Skipped, stats.Drafts, stats.Malformed+stats.Duplicates)
	fmt.Fprintf(os.Stderr, "  fragments embedded: %d in %d batches, entries carried: %d, took %s\n",
		stats.Fragments, stats.Batches, stats.Carried, stats.Duration.Round(time.Millisecond))
}
