package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
)

func (s *Server) registerWatchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "updateProgress",
		Method:      http.MethodPut,
		Path:        "/api/v1/videos/{id}/progress",
		Summary:     "Report playback position",
		Description: "Records the playback position. Crossing 75% of the duration marks the video watched once.",
		Tags:        []string{"Watch"},
	}, s.handleUpdateProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleWatched",
		Method:      http.MethodPost,
		Path:        "/api/v1/videos/{id}/toggle-watched",
		Summary:     "Toggle watched",
		Tags:        []string{"Watch"},
	}, s.handleToggleWatched)

	huma.Register(s.api, huma.Operation{
		OperationID: "setWatched",
		Method:      http.MethodPut,
		Path:        "/api/v1/videos/{id}/watched",
		Summary:     "Set watched",
		Tags:        []string{"Watch"},
	}, s.handleSetWatched)

	huma.Register(s.api, huma.Operation{
		OperationID: "getWatchHistory",
		Method:      http.MethodGet,
		Path:        "/api/v1/videos/{id}/history",
		Summary:     "Watch history of a video",
		Tags:        []string{"Watch"},
	}, s.handleWatchHistory)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/reset",
		Summary:     "Reset library",
		Description: "Clears watch state and history; scope everything also removes every tag association",
		Tags:        []string{"Library"},
	}, s.handleResetLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOrphans",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/orphans",
		Summary:     "List orphaned videos",
		Description: "Videos no library folder contains",
		Tags:        []string{"Library"},
	}, s.handleListOrphans)

	huma.Register(s.api, huma.Operation{
		OperationID: "cleanOrphans",
		Method:      http.MethodDelete,
		Path:        "/api/v1/library/orphans",
		Summary:     "Delete orphaned videos",
		Tags:        []string{"Library"},
	}, s.handleCleanOrphans)

	huma.Register(s.api, huma.Operation{
		OperationID: "indexLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/index",
		Summary:     "Index library folders",
		Description: "Queues one folder, or every library folder when none is given",
		Tags:        []string{"Library"},
	}, s.handleIndexLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIndexStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/index",
		Summary:     "Indexing status",
		Tags:        []string{"Library"},
	}, s.handleIndexStatus)
}

// === DTOs ===

// UpdateProgressInput carries the player position.
type UpdateProgressInput struct {
	ID   int64 `path:"id" doc:"Video ID"`
	Body struct {
		CurrentSeconds  int64 `json:"current_seconds" minimum:"0" doc:"Playback position"`
		DurationSeconds int64 `json:"duration_seconds" minimum:"0" doc:"Duration reported by the player"`
	}
}

// SetWatchedInput sets the watched flag.
type SetWatchedInput struct {
	ID   int64 `path:"id" doc:"Video ID"`
	Body struct {
		Watched bool `json:"watched"`
	}
}

// HistoryOutput wraps watch history for Huma.
type HistoryOutput struct {
	Body struct {
		Events []*domain.WatchHistoryEvent `json:"events"`
	}
}

// ResetLibraryInput selects the reset scope.
type ResetLibraryInput struct {
	Body struct {
		Scope string `json:"scope" enum:"watch_state,everything" doc:"What to clear"`
	}
}

// IndexLibraryInput selects the folders to index.
type IndexLibraryInput struct {
	Body struct {
		Folder string `json:"folder,omitempty" doc:"Folder path; empty for every library folder"`
	}
}

// IndexLibraryOutput lists the folders that were queued.
type IndexLibraryOutput struct {
	Body struct {
		Queued []string `json:"queued"`
	}
}

// IndexStatusOutput reports whether a pass is running.
type IndexStatusOutput struct {
	Body struct {
		Running bool `json:"running"`
	}
}

// === Handlers ===

func (s *Server) handleUpdateProgress(ctx context.Context, input *UpdateProgressInput) (*VideoOutput, error) {
	v, err := s.services.Watch.UpdateProgress(ctx, input.ID, input.Body.CurrentSeconds, input.Body.DurationSeconds)
	if err != nil {
		return nil, err
	}
	return &VideoOutput{Body: v}, nil
}

func (s *Server) handleToggleWatched(ctx context.Context, input *VideoIDInput) (*VideoOutput, error) {
	v, err := s.services.Watch.ToggleWatched(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &VideoOutput{Body: v}, nil
}

func (s *Server) handleSetWatched(ctx context.Context, input *SetWatchedInput) (*VideoOutput, error) {
	v, err := s.services.Watch.SetWatched(ctx, input.ID, input.Body.Watched)
	if err != nil {
		return nil, err
	}
	return &VideoOutput{Body: v}, nil
}

func (s *Server) handleWatchHistory(ctx context.Context, input *VideoIDInput) (*HistoryOutput, error) {
	events, err := s.services.Watch.History(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &HistoryOutput{}
	out.Body.Events = events
	return out, nil
}

func (s *Server) handleResetLibrary(ctx context.Context, input *ResetLibraryInput) (*struct{}, error) {
	var scope domain.ResetScope
	switch input.Body.Scope {
	case "watch_state":
		scope = domain.ResetWatchState
	case "everything":
		scope = domain.ResetEverything
	default:
		return nil, domainerrors.Validationf("unknown reset scope %q", input.Body.Scope)
	}
	return nil, s.services.Watch.ResetLibrary(ctx, scope)
}

func (s *Server) handleListOrphans(ctx context.Context, _ *struct{}) (*VideosOutput, error) {
	videos, err := s.services.Membership.FindOrphanedVideos(ctx)
	if err != nil {
		return nil, err
	}
	out := &VideosOutput{}
	out.Body.Videos = videos
	return out, nil
}

func (s *Server) handleCleanOrphans(ctx context.Context, _ *struct{}) (*AffectedOutput, error) {
	n, err := s.services.Membership.CleanOrphanedVideos(ctx)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: domain.ActionResult{Affected: n}}, nil
}

func (s *Server) handleIndexLibrary(ctx context.Context, input *IndexLibraryInput) (*IndexLibraryOutput, error) {
	if s.services.Indexer == nil {
		return nil, domainerrors.ToolUnavailable("indexer")
	}

	var folders []string
	if input.Body.Folder != "" {
		f, err := s.store.GetFolderByPath(ctx, input.Body.Folder)
		if err != nil {
			return nil, err
		}
		folders = []string{f.Path}
	} else {
		all, err := s.services.Library.ListFolders(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range all {
			folders = append(folders, f.Path)
		}
	}

	out := &IndexLibraryOutput{}
	out.Body.Queued = []string{}
	for _, path := range folders {
		if s.services.Indexer.Enqueue(path) {
			out.Body.Queued = append(out.Body.Queued, path)
		}
	}
	return out, nil
}

func (s *Server) handleIndexStatus(_ context.Context, _ *struct{}) (*IndexStatusOutput, error) {
	out := &IndexStatusOutput{}
	out.Body.Running = s.services.Indexer != nil && s.services.Indexer.Running()
	return out, nil
}
