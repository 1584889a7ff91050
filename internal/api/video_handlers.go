package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/http/response"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
)

// CacheOneDay is sent with thumbnails.
const CacheOneDay = "private, max-age=86400"

func (s *Server) registerVideoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getVideo",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/{id}",
		Summary:     "Get video",
		Tags:        []string{"Videos"},
	}, s.handleGetVideo)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateVideo",
		Method:      http.MethodPatch,
		Path:        "/api/v1/videos/{id}",
		Summary:     "Update video details",
		Description: "Replaces the title and description of a video",
		Tags:        []string{"Videos"},
	}, s.handleUpdateVideo)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteVideo",
		Method:      http.MethodDelete,
		Path:        "/api/v1/videos/{id}",
		Summary:     "Delete video",
		Description: "Removes the video from the catalog. The file on disk is untouched.",
		Tags:        []string{"Videos"},
	}, s.handleDeleteVideo)

	huma.Register(s.api, huma.Operation{
		OperationID: "getVideoSubtitles",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/{id}/subtitles",
		Summary:     "Sidecar subtitles",
		Tags:        []string{"Videos"},
	}, s.handleGetSubtitles)

	huma.Register(s.api, huma.Operation{
		OperationID: "listVideoTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/{id}/tags",
		Summary:     "List video tags",
		Tags:        []string{"Videos", "Tags"},
	}, s.handleListVideoTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "addVideoTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/videos/{id}/tags",
		Summary:     "Tag video",
		Description: "Adds a tag by name, creating the tag if needed",
		Tags:        []string{"Videos", "Tags"},
	}, s.handleAddVideoTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeVideoTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/videos/{id}/tags/{tagId}",
		Summary:     "Untag video",
		Tags:        []string{"Videos", "Tags"},
	}, s.handleRemoveVideoTag)
}

// === DTOs ===

// VideoIDInput identifies a video.
type VideoIDInput struct {
	ID int64 `path:"id" doc:"Video ID"`
}

// VideoOutput wraps a video for Huma.
type VideoOutput struct {
	Body *domain.Video
}

// UpdateVideoInput wraps the details request for Huma.
type UpdateVideoInput struct {
	ID   int64 `path:"id" doc:"Video ID"`
	Body service.UpdateDetailsRequest
}

// SubtitlesOutput wraps the subtitles of a video.
type SubtitlesOutput struct {
	Body struct {
		Subtitles []service.Subtitle `json:"subtitles"`
	}
}

// TagsOutput wraps a tag list for Huma.
type TagsOutput struct {
	Body struct {
		Tags []*domain.Tag `json:"tags"`
	}
}

// AddVideoTagInput names the tag to add.
type AddVideoTagInput struct {
	ID   int64 `path:"id" doc:"Video ID"`
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Tag name"`
	}
}

// TagResultOutput reports a tag and whether it was newly created.
type TagResultOutput struct {
	Body struct {
		Tag     *domain.Tag `json:"tag"`
		Created bool        `json:"created"`
	}
}

// RemoveVideoTagInput identifies one association.
type RemoveVideoTagInput struct {
	ID    int64 `path:"id" doc:"Video ID"`
	TagID int64 `path:"tagId" doc:"Tag ID"`
}

// === Handlers ===

func (s *Server) handleGetVideo(ctx context.Context, input *VideoIDInput) (*VideoOutput, error) {
	v, err := s.services.Video.GetVideo(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &VideoOutput{Body: v}, nil
}

func (s *Server) handleUpdateVideo(ctx context.Context, input *UpdateVideoInput) (*VideoOutput, error) {
	v, err := s.services.Video.UpdateDetails(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &VideoOutput{Body: v}, nil
}

func (s *Server) handleDeleteVideo(ctx context.Context, input *VideoIDInput) (*struct{}, error) {
	return nil, s.services.Video.DeleteVideo(ctx, input.ID)
}

func (s *Server) handleGetSubtitles(ctx context.Context, input *VideoIDInput) (*SubtitlesOutput, error) {
	subs, err := s.services.Video.Subtitles(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &SubtitlesOutput{}
	out.Body.Subtitles = subs
	return out, nil
}

func (s *Server) handleListVideoTags(ctx context.Context, input *VideoIDInput) (*TagsOutput, error) {
	tags, err := s.services.Tag.TagsForVideo(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &TagsOutput{}
	out.Body.Tags = tags
	return out, nil
}

func (s *Server) handleAddVideoTag(ctx context.Context, input *AddVideoTagInput) (*TagResultOutput, error) {
	tag, created, err := s.services.Tag.AddTagToVideo(ctx, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	out := &TagResultOutput{}
	out.Body.Tag = tag
	out.Body.Created = created
	return out, nil
}

func (s *Server) handleRemoveVideoTag(ctx context.Context, input *RemoveVideoTagInput) (*struct{}, error) {
	return nil, s.services.Tag.RemoveTagFromVideo(ctx, input.ID, input.TagID)
}

// handleThumbnail serves the rendered thumbnail of a video as JPEG.
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, domainerrors.Validation("invalid video id"))
		return
	}
	if s.services.Thumbnails == nil {
		response.NotFound(w, "thumbnails are not configured", s.logger)
		return
	}

	v, err := s.services.Video.GetVideo(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if v.ThumbnailPath == nil || !s.services.Thumbnails.Exists(*v.ThumbnailPath) {
		response.NotFound(w, "video has no thumbnail", s.logger)
		return
	}

	data, err := s.services.Thumbnails.Get(*v.ThumbnailPath)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", CacheOneDay)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("thumbnail write failed", "video_id", id, "error", err)
	}
}
