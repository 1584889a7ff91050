package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
)

func (s *Server) registerStatsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLibraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Library statistics",
		Description: "Counts exclude orphaned videos unless raw=true",
		Tags:        []string{"Stats"},
	}, s.handleLibraryStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "getHome",
		Method:      http.MethodGet,
		Path:        "/api/v1/home",
		Summary:     "Home screen cards",
		Description: "One card per library folder with statistics and an unwatched-first preview",
		Tags:        []string{"Stats"},
	}, s.handleHome)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFolderPreview",
		Method:      http.MethodGet,
		Path:        "/api/v1/folder/preview",
		Summary:     "Folder preview",
		Tags:        []string{"Stats", "Folders"},
	}, s.handleFolderPreview)
}

// LibraryStatsInput selects corrected or raw counts.
type LibraryStatsInput struct {
	Raw bool `query:"raw" doc:"Include orphaned videos"`
}

// LibraryStatsOutput wraps library statistics for Huma.
type LibraryStatsOutput struct {
	Body *domain.LibraryStats
}

// HomeInput sizes the previews.
type HomeInput struct {
	Preview int `query:"preview" minimum:"0" maximum:"50" doc:"Preview videos per folder"`
}

// HomeOutput wraps the home cards for Huma.
type HomeOutput struct {
	Body struct {
		Cards []*domain.FolderCard `json:"cards"`
	}
}

// FolderPreviewInput selects a folder preview.
type FolderPreviewInput struct {
	Path  string `query:"path" required:"true" doc:"Folder path"`
	Limit int    `query:"limit" minimum:"0" maximum:"50" doc:"Number of videos"`
}

func (s *Server) handleLibraryStats(ctx context.Context, input *LibraryStatsInput) (*LibraryStatsOutput, error) {
	var (
		stats *domain.LibraryStats
		err   error
	)
	if input.Raw {
		stats, err = s.services.Stats.LibraryStatsUncorrected(ctx)
	} else {
		stats, err = s.services.Stats.LibraryStats(ctx)
	}
	if err != nil {
		return nil, err
	}
	return &LibraryStatsOutput{Body: stats}, nil
}

func (s *Server) handleHome(ctx context.Context, input *HomeInput) (*HomeOutput, error) {
	cards, err := s.services.Stats.HomeCards(ctx, input.Preview)
	if err != nil {
		return nil, err
	}
	out := &HomeOutput{}
	out.Body.Cards = cards
	return out, nil
}

func (s *Server) handleFolderPreview(ctx context.Context, input *FolderPreviewInput) (*VideosOutput, error) {
	videos, err := s.services.Stats.FolderPreview(ctx, input.Path, input.Limit)
	if err != nil {
		return nil, err
	}
	out := &VideosOutput{}
	out.Body.Videos = videos
	return out, nil
}
