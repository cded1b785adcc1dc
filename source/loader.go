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

package source

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/semindex/core"
)

// DefaultPrivatePrefix marks files and directories excluded from the corpus.
const DefaultPrivatePrefix = "_"

// DefaultExtensions are the file extensions recognized as documents.
var DefaultExtensions = []string{".md", ".markdown", ".mdx"}

// Loader enumerates and loads documents under a corpus root.
type Loader struct {
	root          string
	privatePrefix string
	extensions    map[string]bool
	logger        *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPrivatePrefix sets the name prefix of excluded entries.
// An empty prefix disables the rule.
func WithPrivatePrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.privatePrefix = prefix
	}
}

// WithExtensions replaces the set of recognized extensions.
// Extensions are matched case-insensitively and may omit the leading dot.
func WithExtensions(exts ...string) LoaderOption {
	return func(l *Loader) {
		l.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			l.extensions[ext] = true
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for the corpus rooted at root.
func NewLoader(root string, opts ...LoaderOption) *Loader {
	l := &Loader{
		root:          root,
		privatePrefix: DefaultPrivatePrefix,
		logger:        slog.Default(),
	}
	WithExtensions(DefaultExtensions...)(l)
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "loader")
	return l
}

// Root returns the corpus root directory.
func (l *Loader) Root() string {
	return l.root
}

// IsPrivate reports whether an entry name is excluded from the corpus.
// Dot-prefixed names (.git, .cache) are always excluded.
func (l *Loader) IsPrivate(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return l.privatePrefix != "" && strings.HasPrefix(name, l.privatePrefix)
}

// IsDocument reports whether a file name has a recognized extension.
func (l *Loader) IsDocument(name string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(name))]
}

// List walks the corpus root depth-first in lexical order and returns the
// slash-separated relative paths of every document. Private files and the
// whole subtree of private directories are skipped.
// Any walk failure wraps core.ErrSourceAccess.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrSourceAccess, err)
		}
		if path == l.root {
			return nil
		}

		if l.IsPrivate(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !l.IsDocument(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrSourceAccess, err)
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug("listed corpus", "root", l.root, "documents", len(paths))
	return paths, nil
}

// Load reads the document at the slash-separated relative path rel.
// Read and stat failures wrap core.ErrSourceAccess; front-matter failures
// wrap core.ErrMalformedDocument.
func (l *Loader) Load(ctx context.Context, rel string) (*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(l.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceAccess, err)
	}
	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrSourceAccess, err)
	}

	body, fm, err := ParseFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	return &core.Document{
		Path:        rel,
		Slug:        DeriveSlug(rel, fm.Slug),
		Title:       strings.TrimSpace(fm.Title),
		Description: strings.TrimSpace(fm.Description),
		Draft:       fm.Draft,
		Mtime:       info.ModTime().UnixMilli(),
		Body:        body,
	}, nil
}
