package service

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// WatchService applies watch transitions to videos.
type WatchService struct {
	store  store.Store
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWatchService creates a new watch service.
func NewWatchService(store store.Store, clock clockwork.Clock, logger *slog.Logger) *WatchService {
	return &WatchService{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// UpdateProgress records the player position of a video. Reaching 75% of
// duration marks it watched; lower positions never unmark it.
func (s *WatchService) UpdateProgress(ctx context.Context, videoID, currentSeconds, durationSeconds int64) (*domain.Video, error) {
	if currentSeconds < 0 || durationSeconds < 0 {
		return nil, domainerrors.ValidationWithDetails("progress must not be negative", map[string]int64{
			"current_seconds":  currentSeconds,
			"duration_seconds": durationSeconds,
		})
	}

	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, persistence(err, "load video")
	}

	u := domain.ApplyProgress(v, currentSeconds, durationSeconds, s.clock.Now())
	saved, err := s.store.SaveWatchState(ctx, videoID, u)
	if err != nil {
		return nil, persistence(err, "save watch progress")
	}

	if u.BecameWatched {
		s.logger.Info("video watched",
			"video_id", videoID,
			"progress_seconds", currentSeconds,
			"duration_seconds", u.DurationSeconds,
		)
	}
	return saved, nil
}

// ToggleWatched flips the watched flag of a video.
func (s *WatchService) ToggleWatched(ctx context.Context, videoID int64) (*domain.Video, error) {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, persistence(err, "load video")
	}
	return s.setWatched(ctx, v, !v.IsWatched)
}

// SetWatched marks a video watched or unwatched. Repeating the current
// state changes nothing and appends no history.
func (s *WatchService) SetWatched(ctx context.Context, videoID int64, watched bool) (*domain.Video, error) {
	v, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, persistence(err, "load video")
	}
	if v.IsWatched == watched {
		return v, nil
	}
	return s.setWatched(ctx, v, watched)
}

func (s *WatchService) setWatched(ctx context.Context, v *domain.Video, watched bool) (*domain.Video, error) {
	u := domain.ApplyManual(v, watched, s.clock.Now())
	saved, err := s.store.SaveWatchState(ctx, v.ID, u)
	if err != nil {
		return nil, persistence(err, "save watch state")
	}
	s.logger.Info("watch state set", "video_id", v.ID, "watched", watched)
	return saved, nil
}

// MarkAllInFolder moves every video under folderPath to target and
// returns how many changed. Running it twice changes nothing the second time.
func (s *WatchService) MarkAllInFolder(ctx context.Context, folderPath string, target domain.WatchTarget) (int, error) {
	if folderPath == "" {
		return 0, domainerrors.Validation("folder path is required")
	}
	n, err := s.store.MarkFolder(ctx, folderPath, target, s.clock.Now())
	if err != nil {
		return 0, persistence(err, "mark folder")
	}
	s.logger.Info("folder marked",
		"folder", folderPath,
		"target", target.String(),
		"affected", n,
	)
	return n, nil
}

// ResetLibrary clears watch state everywhere; ResetEverything also drops
// every tag association.
func (s *WatchService) ResetLibrary(ctx context.Context, scope domain.ResetScope) error {
	if err := s.store.ResetLibrary(ctx, scope); err != nil {
		return persistence(err, "reset library")
	}
	s.logger.Warn("library reset", "tags_cleared", scope == domain.ResetEverything)
	return nil
}

// History lists the completed viewings of a video.
func (s *WatchService) History(ctx context.Context, videoID int64) ([]*domain.WatchHistoryEvent, error) {
	events, err := s.store.ListWatchHistory(ctx, videoID)
	return events, persistence(err, "list watch history")
}
