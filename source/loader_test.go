package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/semindex/core"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func TestLoaderList(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "b")
	writeFile(t, root, "a.md", "a")
	writeFile(t, root, "guides/intro/index.md", "intro")
	writeFile(t, root, "guides/setup.markdown", "setup")
	writeFile(t, root, "guides/_partial.md", "private file")
	writeFile(t, root, "_drafts/wip.md", "private dir")
	writeFile(t, root, ".git/HEAD.md", "hidden")
	writeFile(t, root, "notes.txt", "not markdown")
	writeFile(t, root, "UPPER.MD", "upper")

	loader := NewLoader(root)
	paths, err := loader.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"UPPER.MD",
		"a.md",
		"b.md",
		"guides/intro/index.md",
		"guides/setup.markdown",
	}, paths)
}

func TestLoaderList_Options(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_kept.md", "x")
	writeFile(t, root, "~skipped.md", "x")
	writeFile(t, root, "notes.txt", "x")

	loader := NewLoader(root, WithPrivatePrefix("~"), WithExtensions("txt", ".MD"))
	paths, err := loader.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"_kept.md", "notes.txt"}, paths)
}

func TestLoaderList_MissingRoot(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing"))

	_, err := loader.List(context.Background())
	assert.ErrorIs(t, err, core.ErrSourceAccess)
	assert.False(t, core.IsRecoverable(err))
}

func TestLoaderList_Empty(t *testing.T) {
	paths, err := NewLoader(t.TempDir()).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLoaderLoad(t *testing.T) {
	root := t.TempDir()
	full := writeFile(t, root, "guides/intro/index.md",
		"---\ntitle: \" Intro \"\ndescription: First steps\n---\nHello there.\n")
	mtime := time.UnixMilli(1_700_000_000_123)
	require.NoError(t, os.Chtimes(full, mtime, mtime))

	doc, err := NewLoader(root).Load(context.Background(), "guides/intro/index.md")
	require.NoError(t, err)

	assert.Equal(t, &core.Document{
		Path:        "guides/intro/index.md",
		Slug:        "guides/intro",
		Title:       "Intro",
		Description: "First steps",
		Mtime:       1_700_000_000_123,
		Body:        "Hello there.\n",
	}, doc)
}

func TestLoaderLoad_SlugOverrideAndDraft(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "post.md", "---\nslug: Custom-Slug\ndraft: true\n---\nBody")

	doc, err := NewLoader(root).Load(context.Background(), "post.md")
	require.NoError(t, err)

	assert.Equal(t, "Custom-Slug", doc.Slug)
	assert.True(t, doc.Draft)
}

func TestLoaderLoad_Errors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.md", "---\ntitle: [\n---\n")
	loader := NewLoader(root)

	_, err := loader.Load(context.Background(), "bad.md")
	assert.ErrorIs(t, err, core.ErrMalformedDocument)
	assert.Contains(t, err.Error(), "bad.md")

	_, err = loader.Load(context.Background(), "gone.md")
	assert.ErrorIs(t, err, core.ErrSourceAccess)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, "bad.md")
	assert.ErrorIs(t, err, context.Canceled)
}
