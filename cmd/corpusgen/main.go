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

// Command corpusgen writes a synthetic markdown corpus for exercising and
// benchmarking semindex builds.
package main

import (
	"bufio"
	"fmt"
	"iter"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
)

var sentences = []string{
	"Install the command line tool with your system package manager.",
	"Every page in the documentation has a title and a short description.",
	"The build reads markdown files and writes a single JSON index.",
	"Configuration lives in a YAML file next to your content directory.",
	"Draft pages are kept out of the published search index.",
	"Paragraphs shorter than the minimum length are not indexed.",
	"The embedding server can run locally or as a hosted service.",
	"Incremental builds only recompute documents whose timestamps changed.",
	"Search quality depends on the model used to embed each paragraph.",
	"A slug identifies a document and is derived from its file path.",
	"Front matter may override the slug for pages that moved.",
	"Batches of paragraphs are sent to the provider concurrently.",
	"The index artifact is replaced atomically after a successful build.",
	"Private directories start with an underscore and are skipped.",
	"Vectors are normalized so similarity is a plain dot product.",
	"Watch mode rebuilds the index a moment after files stop changing.",
	"Cached vectors make a full rebuild with the same model nearly free.",
	"Switching the embedding model forces every document to be recomputed.",
	"Tables, code fences and images are stripped before chunking.",
	"Headings are kept as plain text so they still carry meaning.",
	"The search widget loads the index once and ranks results in the browser.",
	"Release notes summarize what changed between published versions.",
	"Troubleshooting guides list symptoms first and causes second.",
	"API reference pages are generated from annotated source comments.",
	"Tutorials walk through a complete example from start to finish.",
	"Glossary entries define terms that appear across many pages.",
	"Deployment guides describe how to publish the static site.",
	"Contributors preview their changes locally before opening a review.",
	"Style guidelines keep the tone of the documentation consistent.",
	"Broken links are reported during the site build.",
}

var sections = []string{"guides", "reference", "tutorials", "blog", "ops"}

type genOptions struct {
	Documents  int
	Paragraphs int
	DraftEvery int
	Seed       uint64
	Source     iter.Seq[string]
}

func main() {
	app := &cli.App{
		Name:  "corpusgen",
		Usage: "Generate a synthetic markdown corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Directory to write the corpus into",
				Value:   "content",
			},
			&cli.IntFlag{
				Name:    "documents",
				Aliases: []string{"n"},
				Usage:   "Number of documents to generate",
				Value:   100,
			},
			&cli.IntFlag{
				Name:  "paragraphs",
				Usage: "Maximum paragraphs per document",
				Value: 6,
			},
			&cli.IntFlag{
				Name:  "draft-every",
				Usage: "Mark every Nth document as a draft (0 disables)",
				Value: 10,
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "Random seed; the same seed produces the same corpus",
				Value: 1,
			},
			&cli.StringFlag{
				Name:  "src",
				Usage: "File of sentences to draw from, one per line",
			},
		},
		Action: func(c *cli.Context) error {
			opts := genOptions{
				Documents:  c.Int("documents"),
				Paragraphs: c.Int("paragraphs"),
				DraftEvery: c.Int("draft-every"),
				Seed:       c.Uint64("seed"),
				Source:     linesFromSlice(sentences),
			}
			if path := c.String("src"); path != "" {
				lines, err := linesFromFile(path)
				if err != nil {
					return err
				}
				opts.Source = lines
			}
			n, err := generate(c.String("out"), opts)
			if err != nil {
				return err
			}
			slog.Info("corpus written", "dir", c.String("out"), "documents", n)
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// linesFromFile returns an iterator over non-blank lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// generate writes opts.Documents markdown files under dir and returns the
// number written.
func generate(dir string, opts genOptions) (int, error) {
	if opts.Documents < 0 || opts.Paragraphs < 1 {
		return 0, fmt.Errorf("documents must be non-negative and paragraphs positive")
	}

	var pool []string
	for line := range opts.Source {
		pool = append(pool, line)
	}
	if len(pool) == 0 {
		return 0, fmt.Errorf("no sentences to draw from")
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	pick := func() string { return pool[rng.IntN(len(pool))] }

	for i := range opts.Documents {
		section := sections[i%len(sections)]
		rel := filepath.Join(section, fmt.Sprintf("page-%04d.md", i))
		draft := opts.DraftEvery > 0 && (i+1)%opts.DraftEvery == 0

		var b strings.Builder
		fmt.Fprintf(&b, "---\ntitle: %q\ndescription: %q\n", titleFor(section, i), pick())
		if draft {
			b.WriteString("draft: true\n")
		}
		b.WriteString("---\n\n")
		fmt.Fprintf(&b, "# %s\n\n", titleFor(section, i))

		paragraphs := 1 + rng.IntN(opts.Paragraphs)
		for p := range paragraphs {
			sentencesInParagraph := 1 + rng.IntN(3)
			for s := range sentencesInParagraph {
				if s > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(pick())
			}
			b.WriteString("\n\n")
			if p == 0 && rng.IntN(4) == 0 {
				b.WriteString("```sh\nsemindex build --full\n```\n\n")
			}
		}

		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return i, err
		}
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return i, err
		}
	}
	return opts.Documents, nil
}

func titleFor(section string, i int) string {
	return fmt.Sprintf("%s%s page %d", strings.ToUpper(section[:1]), section[1:], i)
}
