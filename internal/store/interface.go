// Package store defines the persistence contract for the VidShelf catalog.
package store

import (
	"context"
	"time"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
)

// Store defines the interface for all catalog persistence operations.
// Every multi-row write runs inside one transaction.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	VideoStore
	WatchStore
	TagStore
	FolderStore
	StatsStore
	SnapshotStore
}

// VideoStore covers the video rows themselves.
type VideoStore interface {
	UpsertVideo(ctx context.Context, in *domain.VideoInput, mode UpsertMode) (*domain.Video, error)
	GetVideo(ctx context.Context, id int64) (*domain.Video, error)
	GetVideoByPath(ctx context.Context, path string) (*domain.Video, error)
	ListVideosUnderPrefix(ctx context.Context, folderPath string, order OrderMode, limit int) ([]*domain.Video, error)
	ListAllVideos(ctx context.Context) ([]*domain.Video, error)
	UpdateVideoDetails(ctx context.Context, id int64, title, description string) (*domain.Video, error)
	DeleteVideo(ctx context.Context, id int64) error
	SearchVideos(ctx context.Context, term string) ([]*domain.Video, error)
}

// WatchStore persists watch transitions and history.
type WatchStore interface {
	SaveWatchState(ctx context.Context, videoID int64, u domain.WatchUpdate) (*domain.Video, error)
	MarkFolder(ctx context.Context, folderPath string, target domain.WatchTarget, now time.Time) (int, error)
	ResetLibrary(ctx context.Context, scope domain.ResetScope) error
	ListWatchHistory(ctx context.Context, videoID int64) ([]*domain.WatchHistoryEvent, error)
}

// TagStore covers tags and video-tag associations.
type TagStore interface {
	GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, bool, error)
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	RenameTag(ctx context.Context, id int64, name string) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id int64) error
	DeleteAllTags(ctx context.Context) (int, error)
	AddTagToVideo(ctx context.Context, videoID, tagID int64) error
	RemoveTagFromVideo(ctx context.Context, videoID, tagID int64) error
	RemoveTagFromAllVideos(ctx context.Context, tagID int64) (int, error)
	ListVideoTags(ctx context.Context, videoID int64) ([]*domain.Tag, error)
	TagFolderVideos(ctx context.Context, folderPath string, tagID int64) (int, error)
}

// FolderStore covers library folders.
type FolderStore interface {
	AddFolder(ctx context.Context, path string, icon *string) (*domain.LibraryFolder, bool, error)
	GetFolder(ctx context.Context, id int64) (*domain.LibraryFolder, error)
	GetFolderByPath(ctx context.Context, path string) (*domain.LibraryFolder, error)
	ListFolders(ctx context.Context) ([]*domain.LibraryFolder, error)
	SetFolderIcon(ctx context.Context, id int64, icon *string) (*domain.LibraryFolder, error)
	RemoveFolder(ctx context.Context, id int64) (int, error)
	DetachFolder(ctx context.Context, id int64) error
}

// StatsStore answers membership and aggregate queries.
type StatsStore interface {
	FolderCounts(ctx context.Context, folderPath string) (total, watched int, err error)
	ListOrphanedVideos(ctx context.Context) ([]*domain.Video, error)
	DeleteOrphanedVideos(ctx context.Context) (int, error)
	LibraryStats(ctx context.Context, excludeOrphans bool) (*domain.LibraryStats, error)
}

// SnapshotStore dumps and replaces the whole catalog.
type SnapshotStore interface {
	ExportSnapshot(ctx context.Context) (*Snapshot, error)
	ReplaceFromSnapshot(ctx context.Context, snap *Snapshot) error
}
