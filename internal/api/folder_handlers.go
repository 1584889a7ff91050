package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

func (s *Server) registerFolderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listFolders",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders",
		Summary:     "List library folders",
		Description: "Returns every library folder with its watch statistics",
		Tags:        []string{"Folders"},
	}, s.handleListFolders)

	huma.Register(s.api, huma.Operation{
		OperationID: "addFolder",
		Method:      http.MethodPost,
		Path:        "/api/v1/folders",
		Summary:     "Add library folder",
		Description: "Registers a folder and queues it for indexing. Adding an existing path returns it unchanged.",
		Tags:        []string{"Folders"},
	}, s.handleAddFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFolder",
		Method:      http.MethodGet,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Get library folder",
		Tags:        []string{"Folders"},
	}, s.handleGetFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "setFolderIcon",
		Method:      http.MethodPatch,
		Path:        "/api/v1/folders/{id}/icon",
		Summary:     "Set folder icon",
		Tags:        []string{"Folders"},
	}, s.handleSetFolderIcon)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeFolder",
		Method:      http.MethodDelete,
		Path:        "/api/v1/folders/{id}",
		Summary:     "Remove library folder",
		Description: "Deletes the folder and every video stored under its path",
		Tags:        []string{"Folders"},
	}, s.handleRemoveFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachFolder",
		Method:      http.MethodPost,
		Path:        "/api/v1/folders/{id}/detach",
		Summary:     "Detach library folder",
		Description: "Deletes the folder row but keeps its videos as orphans",
		Tags:        []string{"Folders"},
	}, s.handleDetachFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexFolder",
		Method:      http.MethodPost,
		Path:        "/api/v1/folders/{id}/reindex",
		Summary:     "Re-index library folder",
		Tags:        []string{"Folders"},
	}, s.handleReindexFolder)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyFolderAction",
		Method:      http.MethodPost,
		Path:        "/api/v1/folders/actions",
		Summary:     "Apply a confirmed folder action",
		Description: "Runs tag_all, remove or mark_all against a folder",
		Tags:        []string{"Folders"},
	}, s.handleApplyFolderAction)

	huma.Register(s.api, huma.Operation{
		OperationID: "listFolderVideos",
		Method:      http.MethodGet,
		Path:        "/api/v1/folder/videos",
		Summary:     "List videos under a folder path",
		Tags:        []string{"Folders"},
	}, s.handleListFolderVideos)

	huma.Register(s.api, huma.Operation{
		OperationID: "getFolderStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/folder/stats",
		Summary:     "Watch statistics of a folder path",
		Tags:        []string{"Folders"},
	}, s.handleFolderStats)
}

// === DTOs ===

// FolderResponse contains folder data in API responses.
type FolderResponse struct {
	domain.LibraryFolder
	Stats domain.FolderStats `json:"stats" doc:"Watch statistics of the folder"`
}

// ListFoldersOutput wraps the folder list for Huma.
type ListFoldersOutput struct {
	Body struct {
		Folders []FolderResponse `json:"folders" doc:"Library folders"`
	}
}

// AddFolderInput wraps the add folder request for Huma.
type AddFolderInput struct {
	Body service.AddFolderRequest
}

// AddFolderOutput reports the folder and whether anything changed.
type AddFolderOutput struct {
	Body struct {
		Folder  *domain.LibraryFolder `json:"folder"`
		Created bool                  `json:"created" doc:"False when the path was already a library folder"`
	}
}

// FolderIDInput identifies a folder.
type FolderIDInput struct {
	ID int64 `path:"id" doc:"Folder ID"`
}

// FolderOutput wraps a folder for Huma.
type FolderOutput struct {
	Body FolderResponse
}

// SetFolderIconInput sets or clears the icon.
type SetFolderIconInput struct {
	ID   int64 `path:"id" doc:"Folder ID"`
	Body struct {
		Icon *string `json:"icon" doc:"Emoji icon, null to clear" maxLength:"16"`
	}
}

// AffectedOutput reports how many rows an operation changed.
type AffectedOutput struct {
	Body domain.ActionResult
}

// ReindexOutput reports whether a pass was queued.
type ReindexOutput struct {
	Body struct {
		Folder *domain.LibraryFolder `json:"folder"`
		Queued bool                  `json:"queued"`
	}
}

// FolderActionRequest describes one confirmed folder action.
type FolderActionRequest struct {
	Type       string `json:"type" enum:"tag_all,remove,mark_all" doc:"Action kind"`
	FolderPath string `json:"folder_path,omitempty" doc:"Folder path for tag_all and mark_all"`
	FolderID   int64  `json:"folder_id,omitempty" doc:"Folder ID for remove"`
	TagName    string `json:"tag_name,omitempty" doc:"Tag for tag_all"`
	Target     string `json:"target,omitempty" enum:"watched,unwatched," doc:"Target state for mark_all"`
}

// FolderActionInput wraps the action request for Huma.
type FolderActionInput struct {
	Body FolderActionRequest
}

// FolderPathInput selects a folder by path.
type FolderPathInput struct {
	Path  string `query:"path" required:"true" doc:"Folder path"`
	Order string `query:"order" enum:"watch_status,title," doc:"Sort order"`
}

// VideosOutput wraps a video list for Huma.
type VideosOutput struct {
	Body struct {
		Videos []*domain.Video `json:"videos"`
	}
}

// FolderStatsInput selects a folder by path.
type FolderStatsInput struct {
	Path string `query:"path" required:"true" doc:"Folder path"`
}

// FolderStatsOutput wraps folder statistics for Huma.
type FolderStatsOutput struct {
	Body domain.FolderStats
}

// toFolderAction maps the request onto the folder action sum type.
func (r FolderActionRequest) toFolderAction() (domain.FolderAction, error) {
	switch r.Type {
	case "tag_all":
		return domain.TagAllAction{FolderPath: r.FolderPath, TagName: r.TagName}, nil
	case "remove":
		return domain.RemoveFolderAction{FolderID: r.FolderID}, nil
	case "mark_all":
		target, ok := domain.ParseWatchTarget(r.Target)
		if !ok {
			return nil, domainerrors.Validationf("unknown watch target %q", r.Target)
		}
		return domain.MarkAllAction{FolderPath: r.FolderPath, Target: target}, nil
	default:
		return nil, domainerrors.Validationf("unknown folder action %q", r.Type)
	}
}

// === Handlers ===

func (s *Server) folderResponse(ctx context.Context, f *domain.LibraryFolder) (FolderResponse, error) {
	stats, err := s.services.Membership.ComputeFolderStats(ctx, f.Path)
	if err != nil {
		return FolderResponse{}, err
	}
	return FolderResponse{LibraryFolder: *f, Stats: stats}, nil
}

func (s *Server) handleListFolders(ctx context.Context, _ *struct{}) (*ListFoldersOutput, error) {
	folders, err := s.services.Library.ListFolders(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListFoldersOutput{}
	out.Body.Folders = make([]FolderResponse, 0, len(folders))
	for _, f := range folders {
		resp, err := s.folderResponse(ctx, f)
		if err != nil {
			return nil, err
		}
		out.Body.Folders = append(out.Body.Folders, resp)
	}
	return out, nil
}

func (s *Server) handleAddFolder(ctx context.Context, input *AddFolderInput) (*AddFolderOutput, error) {
	f, created, err := s.services.Library.AddFolder(ctx, input.Body)
	if err != nil {
		return nil, err
	}

	out := &AddFolderOutput{}
	out.Body.Folder = f
	out.Body.Created = created
	return out, nil
}

func (s *Server) handleGetFolder(ctx context.Context, input *FolderIDInput) (*FolderOutput, error) {
	f, err := s.services.Library.GetFolder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	resp, err := s.folderResponse(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: resp}, nil
}

func (s *Server) handleSetFolderIcon(ctx context.Context, input *SetFolderIconInput) (*FolderOutput, error) {
	f, err := s.services.Library.SetIcon(ctx, input.ID, input.Body.Icon)
	if err != nil {
		return nil, err
	}
	resp, err := s.folderResponse(ctx, f)
	if err != nil {
		return nil, err
	}
	return &FolderOutput{Body: resp}, nil
}

func (s *Server) handleRemoveFolder(ctx context.Context, input *FolderIDInput) (*AffectedOutput, error) {
	n, err := s.services.Library.RemoveFolder(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: domain.ActionResult{Affected: n}}, nil
}

func (s *Server) handleDetachFolder(ctx context.Context, input *FolderIDInput) (*struct{}, error) {
	return nil, s.services.Library.DetachFolder(ctx, input.ID)
}

func (s *Server) handleReindexFolder(ctx context.Context, input *FolderIDInput) (*ReindexOutput, error) {
	f, queued, err := s.services.Library.Reindex(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	out := &ReindexOutput{}
	out.Body.Folder = f
	out.Body.Queued = queued
	return out, nil
}

func (s *Server) handleApplyFolderAction(ctx context.Context, input *FolderActionInput) (*AffectedOutput, error) {
	action, err := input.Body.toFolderAction()
	if err != nil {
		return nil, err
	}
	result, err := s.services.Library.Apply(ctx, action)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: result}, nil
}

func (s *Server) handleListFolderVideos(ctx context.Context, input *FolderPathInput) (*VideosOutput, error) {
	order, ok := store.ParseOrderMode(input.Order)
	if !ok {
		return nil, domainerrors.Validationf("unknown order %q", input.Order)
	}
	videos, err := s.services.Video.ListFolderVideos(ctx, input.Path, order)
	if err != nil {
		return nil, err
	}
	out := &VideosOutput{}
	out.Body.Videos = videos
	return out, nil
}

func (s *Server) handleFolderStats(ctx context.Context, input *FolderStatsInput) (*FolderStatsOutput, error) {
	stats, err := s.services.Membership.ComputeFolderStats(ctx, input.Path)
	if err != nil {
		return nil, err
	}
	return &FolderStatsOutput{Body: stats}, nil
}
