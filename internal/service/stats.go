package service

import (
	"context"
	"log/slog"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// DefaultPreviewLimit is how many videos a home card shows.
const DefaultPreviewLimit = 4

// StatsService aggregates the catalog for dashboards.
type StatsService struct {
	store      store.Store
	membership *MembershipService
	logger     *slog.Logger
}

// NewStatsService creates a new stats service.
func NewStatsService(store store.Store, membership *MembershipService, logger *slog.Logger) *StatsService {
	return &StatsService{
		store:      store,
		membership: membership,
		logger:     logger,
	}
}

// LibraryStats counts only videos some library folder covers.
func (s *StatsService) LibraryStats(ctx context.Context) (*domain.LibraryStats, error) {
	st, err := s.store.LibraryStats(ctx, true)
	return st, persistence(err, "library stats")
}

// LibraryStatsUncorrected counts every video row, orphans included.
func (s *StatsService) LibraryStatsUncorrected(ctx context.Context) (*domain.LibraryStats, error) {
	st, err := s.store.LibraryStats(ctx, false)
	return st, persistence(err, "library stats")
}

// FolderPreview returns the first limit videos of a folder in watch-status
// order, so unwatched videos lead.
func (s *StatsService) FolderPreview(ctx context.Context, folderPath string, limit int) ([]*domain.Video, error) {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	videos, err := s.store.ListVideosUnderPrefix(ctx, folderPath, store.OrderWatchStatus, limit)
	return videos, persistence(err, "folder preview")
}

// HomeCards builds one card per library folder.
func (s *StatsService) HomeCards(ctx context.Context, previewLimit int) ([]*domain.FolderCard, error) {
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return nil, persistence(err, "list folders")
	}

	cards := make([]*domain.FolderCard, 0, len(folders))
	for _, f := range folders {
		stats, err := s.membership.ComputeFolderStats(ctx, f.Path)
		if err != nil {
			return nil, err
		}
		preview, err := s.FolderPreview(ctx, f.Path, previewLimit)
		if err != nil {
			return nil, err
		}
		cards = append(cards, &domain.FolderCard{Folder: f, Stats: stats, Preview: preview})
	}
	return cards, nil
}
