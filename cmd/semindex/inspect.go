package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/config"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
	"github.com/urfave/cli/v2"
)

// indexSummary describes an artifact without printing its vectors.
type indexSummary struct {
	Documents  int
	Entries    int
	Dimensions int
	MinNorm    float64
	MaxNorm    float64
	Valid      error
}

func summarize(entries []core.IndexEntry) indexSummary {
	s := indexSummary{
		Entries: len(entries),
		Valid:   core.ValidateIndex(entries),
	}
	if len(entries) == 0 {
		return s
	}

	s.MinNorm = math.Inf(1)
	s.MaxNorm = math.Inf(-1)
	slugs := make(map[string]struct{})
	for _, entry := range entries {
		slugs[entry.Slug] = struct{}{}
		norm := ai.Norm(entry.Vector)
		s.MinNorm = math.Min(s.MinNorm, norm)
		s.MaxNorm = math.Max(s.MaxNorm, norm)
	}
	s.Documents = len(slugs)
	s.Dimensions = len(entries[0].Vector)
	return s
}

func printSummary(w io.Writer, path string, s indexSummary) {
	fmt.Fprintf(w, "Index: %s\n", path)
	fmt.Fprintf(w, "  documents:  %d\n", s.Documents)
	fmt.Fprintf(w, "  entries:    %d\n", s.Entries)
	fmt.Fprintf(w, "  dimensions: %d\n", s.Dimensions)
	if s.Entries > 0 {
		fmt.Fprintf(w, "  norm:       %.4f .. %.4f\n", s.MinNorm, s.MaxNorm)
	}
}

func inspectCommand(c *cli.Context) error {
	path := c.String("index")
	if path == "" {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		path = cfg.Output.Path
	}

	entries, err := storage.NewArtifactStore(path).Load()
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	summary := summarize(entries)
	printSummary(os.Stdout, path, summary)
	if summary.Valid != nil {
		color.Red("Index is invalid: %v\n", summary.Valid)
		return summary.Valid
	}
	return nil
}
