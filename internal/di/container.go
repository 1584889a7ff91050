// Package di provides dependency injection configuration for VidShelf.
package di

import (
	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/vidshelfapp/vidshelf-core/internal/backup"
	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/di/providers"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/media/images"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
	"github.com/vidshelfapp/vidshelf-core/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideClock)
	do.Provide(injector, providers.ProvideFilesystem)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Media layer
	do.Provide(injector, providers.ProvideToolAvailability)
	do.Provide(injector, providers.ProvideFFmpeg)
	do.Provide(injector, providers.ProvideThumbnailStorage)

	// Indexing layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideWalker)
	do.Provide(injector, providers.ProvideIndexer)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideWatchService)
	do.Provide(injector, providers.ProvideMembershipService)
	do.Provide(injector, providers.ProvideStatsService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideVideoService)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideBackupService)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services so configuration and database errors
// surface before the server starts listening.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[clockwork.Clock](injector)
	_ = do.MustInvoke[afero.Fs](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[media.Availability](injector)
	_ = do.MustInvoke[*media.FFmpeg](injector)
	if _, err := do.Invoke[*images.Storage](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*scanner.Walker](injector)
	_ = do.MustInvoke[*scanner.Indexer](injector)

	// Business services
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*service.WatchService](injector)
	_ = do.MustInvoke[*service.MembershipService](injector)
	_ = do.MustInvoke[*service.StatsService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.VideoService](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*backup.BackupService](injector)

	// Workers
	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
