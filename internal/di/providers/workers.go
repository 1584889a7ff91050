package providers

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
	"github.com/vidshelfapp/vidshelf-core/internal/watcher"
)

// FileWatcherHandle wraps the library watcher. Watcher is nil when
// watching is disabled.
type FileWatcherHandle struct {
	*watcher.Watcher
}

// ProvideFileWatcher provides the library watcher. The caller runs it.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Watcher.Enabled {
		log.Info("File watcher disabled")
		return &FileWatcherHandle{}, nil
	}

	indexer := do.MustInvoke[*scanner.Indexer](i)
	library := do.MustInvoke[*service.LibraryService](i)
	clock := do.MustInvoke[clockwork.Clock](i)

	w, err := watcher.New(indexer, librarySource{library: library}, clock, log.Logger, watcher.Options{
		Debounce: cfg.Watcher.Debounce,
	})
	if err != nil {
		// A watcher that cannot start leaves manual re-indexing available.
		log.Warn("File watcher unavailable", "error", err)
		return &FileWatcherHandle{}, nil
	}
	return &FileWatcherHandle{Watcher: w}, nil
}

// QueueLibraryFolders queues every library folder for indexing so files
// added while the app was closed are picked up.
func QueueLibraryFolders(ctx context.Context, i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	tools := do.MustInvoke[media.Availability](i)
	if !tools.Ready() {
		return
	}

	library := do.MustInvoke[*service.LibraryService](i)
	indexer := do.MustInvoke[*scanner.Indexer](i)

	paths, err := librarySource{library: library}.FolderPaths(ctx)
	if err != nil {
		log.Error("Failed to list library folders", "error", err)
		return
	}
	for _, p := range paths {
		indexer.Enqueue(p)
	}
	log.Info("Startup indexing queued", "folders", len(paths))
}
