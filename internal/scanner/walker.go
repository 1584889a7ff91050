// Package scanner walks library folders and feeds video files through the
// probe and thumbnail tools into the catalog.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
)

// Entry is one filesystem node seen by the walker.
type Entry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	IsDir   bool   `json:"is_dir"`
	IsVideo bool   `json:"is_video"`
	Size    int64  `json:"size"`
}

// WalkResult represents a file discovered during walking.
type WalkResult struct {
	Error error
	Entry
}

// Walker traverses a filesystem and discovers files.
type Walker struct {
	fs         afero.Fs
	logger     *slog.Logger
	skipHidden bool
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// SkipHidden leaves dot-files and dot-directories out of every listing.
func SkipHidden(skip bool) WalkerOption {
	return func(w *Walker) {
		w.skipHidden = skip
	}
}

// NewWalker creates a new walker over fs. By default every entry is listed.
func NewWalker(fs afero.Fs, logger *slog.Logger, opts ...WalkerOption) *Walker {
	w := &Walker{
		fs:     fs,
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Fs returns the underlying filesystem.
func (w *Walker) Fs() afero.Fs {
	return w.fs
}

func isHidden(name string) bool {
	return name != "." && strings.HasPrefix(name, ".")
}

// walk visits every entry under root in lexical order, root excluded.
// Unreadable entries are logged and skipped.
func (w *Walker) walk(ctx context.Context, root string, fn func(Entry) error) error {
	return afero.Walk(w.fs, root, func(path string, info fs.FileInfo, err error) error {
		// Check context cancellation.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		// Handle walk errors.
		if err != nil {
			w.logger.Warn("walk error", "path", path, "error", err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		if w.skipHidden && isHidden(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		return fn(Entry{
			Name:    info.Name(),
			Path:    path,
			IsDir:   info.IsDir(),
			IsVideo: !info.IsDir() && normalize.IsVideoFile(info.Name()),
			Size:    info.Size(),
		})
	})
}

// Walk streams the files under root. The channel closes when the walk is
// complete or ctx is canceled.
func (w *Walker) Walk(ctx context.Context, root string) <-chan WalkResult {
	results := make(chan WalkResult, 100)

	go func() {
		defer close(results)

		err := w.walk(ctx, root, func(e Entry) error {
			if e.IsDir {
				return nil
			}
			select {
			case results <- WalkResult{Entry: e}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("walk failed", "root", root, "error", err)
		}
	}()

	return results
}

// WalkVideos calls fn for each video file under root in scan order.
// Returning an error from fn stops the walk.
func (w *Walker) WalkVideos(ctx context.Context, root string, fn func(Entry) error) error {
	return w.walk(ctx, root, func(e Entry) error {
		if !e.IsVideo {
			return nil
		}
		return fn(e)
	})
}

// CountVideos counts the video files under root.
func (w *Walker) CountVideos(ctx context.Context, root string) (int, error) {
	n := 0
	err := w.WalkVideos(ctx, root, func(Entry) error {
		n++
		return nil
	})
	return n, err
}

// ScanRecursive lists every entry under root, directories included.
func (w *Walker) ScanRecursive(ctx context.Context, root string) ([]Entry, error) {
	if err := w.requireDir(root); err != nil {
		return nil, err
	}
	entries := []Entry{}
	err := w.walk(ctx, root, func(e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ReadDirectory lists the direct children of dir, directories first, then
// by name.
func (w *Walker) ReadDirectory(dir string) ([]Entry, error) {
	if err := w.requireDir(dir); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(w.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if w.skipHidden && isHidden(info.Name()) {
			continue
		}
		entries = append(entries, Entry{
			Name:    info.Name(),
			Path:    filepath.Join(dir, info.Name()),
			IsDir:   info.IsDir(),
			IsVideo: !info.IsDir() && normalize.IsVideoFile(info.Name()),
			Size:    info.Size(),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// FileExists reports whether path exists.
func (w *Walker) FileExists(path string) bool {
	ok, err := afero.Exists(w.fs, path)
	return err == nil && ok
}

// ReadTextFile returns the contents of a text file such as a subtitle sidecar.
func (w *Walker) ReadTextFile(path string) (string, error) {
	data, err := afero.ReadFile(w.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domainerrors.NotFoundf("file %s", path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func (w *Walker) requireDir(path string) error {
	ok, err := afero.IsDir(w.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return domainerrors.NotFoundf("directory %s", path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !ok {
		return domainerrors.Validationf("%s is not a directory", path)
	}
	return nil
}
