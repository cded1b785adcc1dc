// Package assets copies model assets into a servable location once.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// ErrSourceMissing indicates the asset source directory does not exist.
var ErrSourceMissing = errors.New("asset source not found")

const lockRetryDelay = 50 * time.Millisecond

// CopyIfMissing copies the tree at src to dst unless dst already holds a
// non-empty directory. It reports whether a copy happened.
//
// Concurrent callers are serialized on <dst>.lock. The tree is assembled in a
// temporary sibling directory and renamed into place, so dst is either absent
// or complete.
func CopyIfMissing(ctx context.Context, src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("%w: %s", ErrSourceMissing, src)
		}
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s is not a directory", src)
	}

	if populated(dst) {
		return false, nil
	}

	parent := filepath.Dir(dst)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return false, fmt.Errorf("failed to create asset directory: %w", err)
	}

	lock := flock.New(dst + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return false, fmt.Errorf("failed to acquire lock on %s", lock.Path())
	}
	defer lock.Unlock()

	// Another process may have finished while we waited.
	if populated(dst) {
		return false, nil
	}

	tmp, err := os.MkdirTemp(parent, "."+filepath.Base(dst)+"-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := copyTree(ctx, src, tmp); err != nil {
		return false, err
	}

	// An empty dst directory would make the rename fail.
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return false, fmt.Errorf("failed to rename: %w", err)
	}
	return true, nil
}

// populated reports whether dir exists and has at least one entry.
func populated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			// Symlinks and devices are not assets.
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("failed to sync: %w", err)
	}
	return out.Close()
}
