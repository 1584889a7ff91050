package api

import (
	"github.com/vidshelfapp/vidshelf-core/internal/backup"
	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/media/images"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
)

// IndexRunner is the part of the indexer the API drives.
type IndexRunner interface {
	Enqueue(folder string) bool
	Running() bool
}

// Services groups all business logic services used by the API server.
type Services struct {
	Library    *service.LibraryService
	Video      *service.VideoService
	Watch      *service.WatchService
	Tag        *service.TagService
	Stats      *service.StatsService
	Membership *service.MembershipService
	Search     *service.SearchService
	Backup     *backup.BackupService
	Indexer    IndexRunner
	Thumbnails *images.Storage // optional
}

// Environment describes the runtime the API reports to the UI.
type Environment struct {
	Config *config.Config
	Tools  media.Availability
}
