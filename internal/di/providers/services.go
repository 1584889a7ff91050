package providers

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/vidshelfapp/vidshelf-core/internal/backup"
	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
	"github.com/vidshelfapp/vidshelf-core/internal/validation"
)

// folderQueue starts watching a folder before queueing it for indexing,
// so changes made during the first pass are not missed.
type folderQueue struct {
	indexer *scanner.Indexer
	i       do.Injector
	logger  *slog.Logger
}

func (q *folderQueue) Enqueue(folder string) bool {
	if h, err := do.Invoke[*FileWatcherHandle](q.i); err == nil && h.Watcher != nil {
		if err := h.Watch(folder); err != nil {
			q.logger.Warn("failed to watch folder", "folder", folder, "error", err)
		}
	}
	return q.indexer.Enqueue(folder)
}

// librarySource lists library folder paths for the watcher's resync.
type librarySource struct {
	library *service.LibraryService
}

func (s librarySource) FolderPaths(ctx context.Context) ([]string, error) {
	folders, err := s.library.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(folders))
	for _, f := range folders {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideWatchService provides the watch-state service.
func ProvideWatchService(i do.Injector) (*service.WatchService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	clock := do.MustInvoke[clockwork.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewWatchService(db.Store, clock, log.Logger), nil
}

// ProvideMembershipService provides folder membership queries.
func ProvideMembershipService(i do.Injector) (*service.MembershipService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewMembershipService(db.Store, log.Logger), nil
}

// ProvideStatsService provides library aggregates.
func ProvideStatsService(i do.Injector) (*service.StatsService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	membership := do.MustInvoke[*service.MembershipService](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewStatsService(db.Store, membership, log.Logger), nil
}

// ProvideTagService provides tag management.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewTagService(db.Store, log.Logger), nil
}

// ProvideLibraryService provides folder management. Added folders are
// watched and queued for indexing.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	watch := do.MustInvoke[*service.WatchService](i)
	tags := do.MustInvoke[*service.TagService](i)
	indexer := do.MustInvoke[*scanner.Indexer](i)
	log := do.MustInvoke[*logger.Logger](i)

	queue := &folderQueue{indexer: indexer, i: i, logger: log.Logger}
	return service.NewLibraryService(db.Store, v, watch, tags, queue, log.Logger), nil
}

// ProvideVideoService provides per-video operations.
func ProvideVideoService(i do.Injector) (*service.VideoService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	walker := do.MustInvoke[*scanner.Walker](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewVideoService(db.Store, walker, v, log.Logger), nil
}

// ProvideSearchService provides catalog and filesystem search.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	db := do.MustInvoke[*StoreHandle](i)
	walker := do.MustInvoke[*scanner.Walker](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewSearchService(db.Store, walker, log.Logger), nil
}

// ProvideBackupService provides snapshot export, import, and backups.
func ProvideBackupService(i do.Injector) (*backup.BackupService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	db := do.MustInvoke[*StoreHandle](i)
	fs := do.MustInvoke[afero.Fs](i)
	clock := do.MustInvoke[clockwork.Clock](i)
	log := do.MustInvoke[*logger.Logger](i)
	return backup.NewBackupService(db.Store, fs, cfg.Data.BackupDir, clock, log.Logger), nil
}
