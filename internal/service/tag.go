package service

import (
	"context"
	"log/slog"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// maxTagNameLength bounds user tag names in runes.
const maxTagNameLength = 64

// TagService orchestrates tag operations.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

func cleanTagName(raw string) (string, error) {
	name := normalize.TagName(raw)
	if name == "" {
		return "", domainerrors.Validation("tag name is empty")
	}
	if len([]rune(name)) > maxTagNameLength {
		return "", domainerrors.Validationf("tag name exceeds %d characters", maxTagNameLength)
	}
	return name, nil
}

// ListTags returns every tag with its video count.
func (s *TagService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	return tags, persistence(err, "list tags")
}

// GetTag returns a tag by ID.
func (s *TagService) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	t, err := s.store.GetTag(ctx, id)
	return t, persistence(err, "get tag")
}

// CreateTag returns the tag with this name, creating it when needed.
func (s *TagService) CreateTag(ctx context.Context, raw string) (*domain.Tag, bool, error) {
	name, err := cleanTagName(raw)
	if err != nil {
		return nil, false, err
	}
	t, created, err := s.store.GetOrCreateTag(ctx, name)
	if err != nil {
		return nil, false, persistence(err, "create tag")
	}
	if created {
		s.logger.Info("tag created", "tag_id", t.ID, "name", t.Name)
	}
	return t, created, nil
}

// RenameTag changes a tag's name.
func (s *TagService) RenameTag(ctx context.Context, id int64, raw string) (*domain.Tag, error) {
	name, err := cleanTagName(raw)
	if err != nil {
		return nil, err
	}
	t, err := s.store.RenameTag(ctx, id, name)
	return t, persistence(err, "rename tag")
}

// DeleteTag removes a tag and its links.
func (s *TagService) DeleteTag(ctx context.Context, id int64) error {
	if err := s.store.DeleteTag(ctx, id); err != nil {
		return persistence(err, "delete tag")
	}
	s.logger.Info("tag deleted", "tag_id", id)
	return nil
}

// DeleteAllTags removes every tag.
func (s *TagService) DeleteAllTags(ctx context.Context) (int, error) {
	n, err := s.store.DeleteAllTags(ctx)
	if err != nil {
		return 0, persistence(err, "delete all tags")
	}
	s.logger.Warn("all tags deleted", "count", n)
	return n, nil
}

// AddTagToVideo tags a video, creating the tag if it doesn't exist.
func (s *TagService) AddTagToVideo(ctx context.Context, videoID int64, raw string) (*domain.Tag, bool, error) {
	t, created, err := s.CreateTag(ctx, raw)
	if err != nil {
		return nil, false, err
	}

	// Add relationship (idempotent).
	if err := s.store.AddTagToVideo(ctx, videoID, t.ID); err != nil {
		return nil, false, persistence(err, "tag video")
	}

	// Re-fetch tag to get updated video count.
	t, err = s.store.GetTag(ctx, t.ID)
	if err != nil {
		return nil, false, persistence(err, "get tag")
	}

	s.logger.Info("tag added to video",
		"tag_id", t.ID,
		"video_id", videoID,
		"created", created,
	)
	return t, created, nil
}

// RemoveTagFromVideo unlinks a tag from a video.
func (s *TagService) RemoveTagFromVideo(ctx context.Context, videoID, tagID int64) error {
	return persistence(s.store.RemoveTagFromVideo(ctx, videoID, tagID), "untag video")
}

// RemoveTagFromAllVideos unlinks a tag everywhere and keeps the tag.
func (s *TagService) RemoveTagFromAllVideos(ctx context.Context, tagID int64) (int, error) {
	n, err := s.store.RemoveTagFromAllVideos(ctx, tagID)
	return n, persistence(err, "remove tag from videos")
}

// TagsForVideo lists the tags on a video.
func (s *TagService) TagsForVideo(ctx context.Context, videoID int64) ([]*domain.Tag, error) {
	if _, err := s.store.GetVideo(ctx, videoID); err != nil {
		return nil, persistence(err, "get video")
	}
	tags, err := s.store.ListVideoTags(ctx, videoID)
	return tags, persistence(err, "list video tags")
}

// TagFolder tags every video under folderPath. Returns how many videos
// gained the tag.
func (s *TagService) TagFolder(ctx context.Context, folderPath, raw string) (*domain.Tag, int, error) {
	if folderPath == "" {
		return nil, 0, domainerrors.Validation("folder path is required")
	}
	t, _, err := s.CreateTag(ctx, raw)
	if err != nil {
		return nil, 0, err
	}
	n, err := s.store.TagFolderVideos(ctx, folderPath, t.ID)
	if err != nil {
		return nil, 0, persistence(err, "tag folder")
	}
	s.logger.Info("folder tagged", "folder", folderPath, "tag_id", t.ID, "affected", n)
	return t, n, nil
}
