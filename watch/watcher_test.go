package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markdownFilter struct{}

func (markdownFilter) IsPrivate(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func (markdownFilter) IsDocument(name string) bool {
	return filepath.Ext(name) == ".md"
}

type rebuildRecorder struct {
	mu      sync.Mutex
	batches [][]string
	calls   chan struct{}
	err     error
}

func newRebuildRecorder() *rebuildRecorder {
	return &rebuildRecorder{calls: make(chan struct{}, 16)}
}

func (r *rebuildRecorder) rebuild(_ context.Context, changed []string) error {
	r.mu.Lock()
	r.batches = append(r.batches, changed)
	r.mu.Unlock()
	r.calls <- struct{}{}
	return r.err
}

func (r *rebuildRecorder) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-r.calls:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for rebuild")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[len(r.batches)-1]
}

func startWatcher(t *testing.T, root string, rec *rebuildRecorder) (cancel func()) {
	t.Helper()
	w, err := NewWatcher(root, markdownFilter{}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)

	ctx, cancelFn := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.rebuild) }()

	// Give fsnotify time to register directories.
	time.Sleep(100 * time.Millisecond)

	return func() {
		cancelFn()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	}
}

func TestWatcher_RebuildsOnDocumentChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "posts"), 0o755))

	rec := newRebuildRecorder()
	stop := startWatcher(t, root, rec)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "posts", "hello.md"), []byte("# Hello"), 0o644))

	changed := rec.wait(t)
	assert.Contains(t, changed, "posts/hello.md")
}

func TestWatcher_IgnoresPrivateAndForeignFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "_drafts"), 0o755))

	rec := newRebuildRecorder()
	stop := startWatcher(t, root, rec)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "_drafts", "wip.md"), []byte("draft"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "_notes.md"), []byte("private"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte("png"), 0o644))

	select {
	case <-rec.calls:
		t.Fatalf("unexpected rebuild: %v", rec.batches)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()

	rec := newRebuildRecorder()
	stop := startWatcher(t, root, rec)
	defer stop()

	dir := filepath.Join(root, "guides")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	rec.wait(t) // the directory itself

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.md"), []byte("# Setup"), 0o644))

	changed := rec.wait(t)
	assert.Contains(t, changed, "guides/setup.md")
}

func TestWatcher_ContinuesAfterRebuildError(t *testing.T) {
	root := t.TempDir()

	rec := newRebuildRecorder()
	rec.err = errors.New("provider down")
	stop := startWatcher(t, root, rec)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("a"), 0o644))
	rec.wait(t)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.md"), []byte("b"), 0o644))
	changed := rec.wait(t)
	assert.Contains(t, changed, "b.md")
}

func TestWatcher_HandleEvent(t *testing.T) {
	root := t.TempDir()
	w, err := NewWatcher(root, markdownFilter{})
	require.NoError(t, err)

	tests := []struct {
		name  string
		event fsnotify.Event
		want  string
		ok    bool
	}{
		{"write document", fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Write}, "a.md", true},
		{"remove document", fsnotify.Event{Name: filepath.Join(root, "x", "b.md"), Op: fsnotify.Remove}, "x/b.md", true},
		{"remove directory", fsnotify.Event{Name: filepath.Join(root, "gone"), Op: fsnotify.Remove}, "gone", true},
		{"chmod ignored", fsnotify.Event{Name: filepath.Join(root, "a.md"), Op: fsnotify.Chmod}, "", false},
		{"foreign extension", fsnotify.Event{Name: filepath.Join(root, "a.txt"), Op: fsnotify.Write}, "", false},
		{"private directory", fsnotify.Event{Name: filepath.Join(root, "_x", "a.md"), Op: fsnotify.Write}, "", false},
		{"hidden file", fsnotify.Event{Name: filepath.Join(root, ".a.md.swp"), Op: fsnotify.Write}, "", false},
		{"root itself", fsnotify.Event{Name: root, Op: fsnotify.Write}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := w.handleEvent(tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
