package service

import (
	"context"
	"log/slog"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// MembershipService answers which videos belong to which folder.
// Membership is a path-prefix rule evaluated on demand, never stored.
type MembershipService struct {
	store  store.Store
	logger *slog.Logger
}

// NewMembershipService creates a new membership service.
func NewMembershipService(store store.Store, logger *slog.Logger) *MembershipService {
	return &MembershipService{store: store, logger: logger}
}

// ComputeFolderStats counts the videos under folderPath.
func (s *MembershipService) ComputeFolderStats(ctx context.Context, folderPath string) (domain.FolderStats, error) {
	total, watched, err := s.store.FolderCounts(ctx, folderPath)
	if err != nil {
		return domain.FolderStats{}, persistence(err, "count folder videos")
	}
	return domain.NewFolderStats(total, watched), nil
}

// FindOrphanedVideos lists videos no library folder covers.
func (s *MembershipService) FindOrphanedVideos(ctx context.Context) ([]*domain.Video, error) {
	videos, err := s.store.ListOrphanedVideos(ctx)
	return videos, persistence(err, "find orphaned videos")
}

// CleanOrphanedVideos deletes every orphan with its tag links.
func (s *MembershipService) CleanOrphanedVideos(ctx context.Context) (int, error) {
	n, err := s.store.DeleteOrphanedVideos(ctx)
	if err != nil {
		return 0, persistence(err, "clean orphaned videos")
	}
	if n > 0 {
		s.logger.Info("orphaned videos removed", "count", n)
	}
	return n, nil
}
