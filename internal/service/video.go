package service

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
	"github.com/vidshelfapp/vidshelf-core/internal/validation"
)

// TextFiles reads small text files next to videos.
type TextFiles interface {
	FileExists(path string) bool
	ReadTextFile(path string) (string, error)
}

// UpdateDetailsRequest edits the user-facing metadata of a video.
type UpdateDetailsRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"max=10000"`
}

// Subtitle is a sidecar subtitle file next to a video.
type Subtitle struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Content string `json:"content"`
}

// VideoService reads and edits individual videos.
type VideoService struct {
	store     store.Store
	files     TextFiles
	validator *validation.Validator
	logger    *slog.Logger
}

// NewVideoService creates a new video service.
func NewVideoService(store store.Store, files TextFiles, validator *validation.Validator, logger *slog.Logger) *VideoService {
	return &VideoService{
		store:     store,
		files:     files,
		validator: validator,
		logger:    logger,
	}
}

// GetVideo returns a video by ID.
func (s *VideoService) GetVideo(ctx context.Context, id int64) (*domain.Video, error) {
	v, err := s.store.GetVideo(ctx, id)
	return v, persistence(err, "get video")
}

// ListFolderVideos returns the videos under folderPath.
func (s *VideoService) ListFolderVideos(ctx context.Context, folderPath string, order store.OrderMode) ([]*domain.Video, error) {
	if folderPath == "" {
		return nil, domainerrors.Validation("folder path is required")
	}
	videos, err := s.store.ListVideosUnderPrefix(ctx, folderPath, order, 0)
	return videos, persistence(err, "list folder videos")
}

// UpdateDetails replaces the title and description of a video.
func (s *VideoService) UpdateDetails(ctx context.Context, id int64, req UpdateDetailsRequest) (*domain.Video, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	v, err := s.store.UpdateVideoDetails(ctx, id, req.Title, req.Description)
	if err != nil {
		return nil, persistence(err, "update video details")
	}
	s.logger.Info("video details updated", "video_id", id)
	return v, nil
}

// DeleteVideo removes a video from the catalog. The file stays on disk.
func (s *VideoService) DeleteVideo(ctx context.Context, id int64) error {
	if err := s.store.DeleteVideo(ctx, id); err != nil {
		return persistence(err, "delete video")
	}
	s.logger.Info("video removed from catalog", "video_id", id)
	return nil
}

// Subtitles returns the .srt and .vtt sidecars found next to a video.
func (s *VideoService) Subtitles(ctx context.Context, id int64) ([]Subtitle, error) {
	v, err := s.store.GetVideo(ctx, id)
	if err != nil {
		return nil, persistence(err, "get video")
	}

	subs := []Subtitle{}
	for _, p := range normalize.SidecarPaths(v.FilePath) {
		if !s.files.FileExists(p) {
			continue
		}
		content, err := s.files.ReadTextFile(p)
		if errors.Is(err, domainerrors.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("read subtitle failed", "path", p, "error", err)
			continue
		}
		subs = append(subs, Subtitle{
			Path:    p,
			Format:  strings.TrimPrefix(path.Ext(p), "."),
			Content: content,
		})
	}
	return subs, nil
}
