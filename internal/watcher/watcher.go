// Package watcher re-indexes library folders when video files appear,
// change or disappear underneath them.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jonboulle/clockwork"

	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
)

// Trigger receives folders that need indexing.
type Trigger interface {
	Enqueue(folder string) bool
}

// FolderSource lists the library folders that should be watched.
type FolderSource interface {
	FolderPaths(ctx context.Context) ([]string, error)
}

// Watcher watches library folders recursively and triggers one indexing
// pass per folder once its changes have settled.
type Watcher struct {
	fsw     *fsnotify.Watcher
	trigger Trigger
	source  FolderSource
	clock   clockwork.Clock
	logger  *slog.Logger
	opts    Options

	mu     sync.Mutex
	roots  map[string]string // normalized key -> folder path
	timers map[string]clockwork.Timer
}

// New creates a watcher. source may be nil, in which case only folders
// passed to Watch or Sync are watched. clock may be nil for the real clock.
func New(trigger Trigger, source FolderSource, clock clockwork.Clock, logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsw:     fsw,
		trigger: trigger,
		source:  source,
		clock:   clock,
		logger:  logger,
		opts:    opts,
		roots:   make(map[string]string),
		timers:  make(map[string]clockwork.Timer),
	}, nil
}

// Sync makes the watched set equal to folders.
func (w *Watcher) Sync(folders []string) {
	want := make(map[string]string, len(folders))
	for _, f := range folders {
		want[normalize.Path(f)] = f
	}

	w.mu.Lock()
	var removed []string
	for key, path := range w.roots {
		if _, ok := want[key]; !ok {
			removed = append(removed, path)
			delete(w.roots, key)
			if t, ok := w.timers[key]; ok {
				t.Stop()
				delete(w.timers, key)
			}
		}
	}
	var added []string
	for key, path := range want {
		if _, ok := w.roots[key]; !ok {
			w.roots[key] = path
			added = append(added, path)
		}
	}
	w.mu.Unlock()

	for _, path := range removed {
		w.unwatchTree(path)
	}
	for _, path := range added {
		if err := w.watchTree(path); err != nil {
			w.logger.Warn("cannot watch library folder", "folder", path, "error", err)
		}
	}
}

// Watch adds one library folder.
func (w *Watcher) Watch(folder string) error {
	w.mu.Lock()
	w.roots[normalize.Path(folder)] = folder
	w.mu.Unlock()
	return w.watchTree(folder)
}

// Run processes file system events until ctx is done, then releases the
// underlying watches. With a folder source the watched set is refreshed
// every ResyncInterval.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()

	var resync <-chan time.Time
	if w.source != nil {
		w.resync(ctx)
		ticker := w.clock.NewTicker(w.opts.ResyncInterval)
		defer ticker.Stop()
		resync = ticker.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-resync:
			w.resync(ctx)
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) resync(ctx context.Context) {
	folders, err := w.source.FolderPaths(ctx)
	if err != nil {
		w.logger.Warn("cannot list library folders to watch", "error", err)
		return
	}
	w.Sync(folders)
}

// handle maps one fsnotify event to its library folder and restarts that
// folder's debounce timer.
func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name
	if w.opts.shouldIgnore(path) || event.Op == fsnotify.Chmod {
		return
	}

	isDir := false
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isDir = true
			if err := w.watchTree(path); err != nil {
				w.logger.Warn("cannot watch new directory", "path", path, "error", err)
			}
		}
	}

	// Removed and renamed directories cannot be stat'ed; treat any
	// non-video name as a possible directory.
	if !isDir && !normalize.IsVideoFile(path) && event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	key, root, ok := w.rootFor(path)
	if !ok {
		return
	}
	w.schedule(key, root)
}

// rootFor returns the deepest watched folder containing path.
func (w *Watcher) rootFor(path string) (key, root string, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for k, r := range w.roots {
		if normalize.IsDescendant(path, r) && len(k) >= len(key) {
			key, root, ok = k, r, true
		}
	}
	return key, root, ok
}

func (w *Watcher) schedule(key, root string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[key]; ok {
		t.Reset(w.opts.Debounce)
		return
	}
	w.timers[key] = w.clock.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, key)
		_, still := w.roots[key]
		w.mu.Unlock()

		if still {
			w.logger.Info("library folder changed, re-indexing", "folder", root)
			w.trigger.Enqueue(root)
		}
	})
}

// watchTree adds a watch on dir and every non-hidden directory below it.
func (w *Watcher) watchTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			w.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && w.opts.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			w.logger.Warn("failed to add watch", "path", p, "error", err)
		}
		return nil
	})
}

func (w *Watcher) unwatchTree(dir string) {
	for _, p := range w.fsw.WatchList() {
		if p == dir || normalize.IsDescendant(p, dir) {
			_ = w.fsw.Remove(p)
		}
	}
}

func (w *Watcher) close() {
	w.mu.Lock()
	for key, t := range w.timers {
		t.Stop()
		delete(w.timers, key)
	}
	w.mu.Unlock()
	if err := w.fsw.Close(); err != nil {
		w.logger.Debug("closing file watcher", "error", err)
	}
}
