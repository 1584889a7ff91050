package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
	"github.com/vidshelfapp/vidshelf-core/internal/sse"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchVideos",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the catalog",
		Description: "Case-insensitive substring match on title, description or tag name",
		Tags:        []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID:   "searchRecursive",
		Method:        http.MethodPost,
		Path:          "/api/v1/search/recursive",
		Summary:       "Search file names on disk",
		Description:   "Walks the library folders, or one folder, matching file names. Progress and results arrive as search.* events unless wait is set.",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleSearchRecursive)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelSearch",
		Method:      http.MethodDelete,
		Path:        "/api/v1/search/recursive/{id}",
		Summary:     "Cancel a recursive search",
		Tags:        []string{"Search"},
	}, s.handleCancelSearch)
}

// === DTOs ===

// SearchInput carries the search term.
type SearchInput struct {
	Query string `query:"q" doc:"Search term"`
}

// SearchRecursiveInput starts a recursive search.
type SearchRecursiveInput struct {
	Wait bool `query:"wait" doc:"Block until the search finishes and return the results"`
	Body struct {
		Term   string `json:"term" doc:"File name substring"`
		Folder string `json:"folder,omitempty" doc:"Restrict the walk to this folder"`
	}
}

// SearchRecursiveOutput identifies the session, with results when waited.
type SearchRecursiveOutput struct {
	Status int
	Body   struct {
		SessionID string          `json:"session_id"`
		Videos    []*domain.Video `json:"videos,omitempty"`
	}
}

// CancelSearchInput identifies a session.
type CancelSearchInput struct {
	ID string `path:"id" doc:"Search session ID"`
}

// CancelSearchOutput reports whether the session was still active.
type CancelSearchOutput struct {
	Body struct {
		Cancelled bool `json:"cancelled"`
	}
}

type noopEmitter struct{}

func (noopEmitter) Emit(sse.Event) {}

func (s *Server) emitter() sse.Emitter {
	if s.sseManager == nil {
		return noopEmitter{}
	}
	return s.sseManager
}

func (s *Server) progressRate() float64 {
	if s.env.Config == nil {
		return 0
	}
	return s.env.Config.Events.ProgressRate
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*VideosOutput, error) {
	videos, err := s.services.Search.SearchVideos(ctx, input.Query)
	if err != nil {
		return nil, err
	}
	out := &VideosOutput{}
	out.Body.Videos = videos
	return out, nil
}

func (s *Server) handleSearchRecursive(ctx context.Context, input *SearchRecursiveInput) (*SearchRecursiveOutput, error) {
	term, folder := input.Body.Term, input.Body.Folder
	emitter := s.emitter()
	progress := sse.SearchProgress(emitter, s.progressRate())

	if input.Wait {
		result, err := s.services.Search.SearchVideosRecursive(ctx, term, folder, progress)
		if err != nil {
			return nil, err
		}
		out := &SearchRecursiveOutput{Status: http.StatusOK}
		out.Body.SessionID = result.SessionID
		out.Body.Videos = result.Videos
		return out, nil
	}

	sess, err := s.services.Search.Begin(s.ctx)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.services.Search.Finish(sess)

		videos, err := s.services.Search.Run(sess, term, folder, progress)
		switch {
		case errors.Is(err, service.ErrSearchCancelled):
			emitter.Emit(sse.NewSearchFailedEvent(sess.ID, true, err.Error()))
		case err != nil:
			s.logger.Warn("recursive search failed", "session_id", sess.ID, "error", err)
			emitter.Emit(sse.NewSearchFailedEvent(sess.ID, false, err.Error()))
		default:
			emitter.Emit(sse.NewSearchCompleteEvent(&service.RecursiveResult{SessionID: sess.ID, Videos: videos}))
		}
	}()

	out := &SearchRecursiveOutput{Status: http.StatusAccepted}
	out.Body.SessionID = sess.ID
	return out, nil
}

func (s *Server) handleCancelSearch(_ context.Context, input *CancelSearchInput) (*CancelSearchOutput, error) {
	out := &CancelSearchOutput{}
	out.Body.Cancelled = s.services.Search.Cancel(input.ID)
	return out, nil
}
