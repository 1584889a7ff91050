package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags with their video counts",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/tags",
		Summary:     "Create tag",
		Description: "Creates a tag, or returns the existing tag with the same name",
		Tags:        []string{"Tags"},
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteAllTags",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags",
		Summary:     "Delete every tag",
		Tags:        []string{"Tags"},
	}, s.handleDeleteAllTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Get tag",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Rename tag",
		Tags:        []string{"Tags"},
	}, s.handleRenameTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete tag",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "untagAllVideos",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}/videos",
		Summary:     "Remove tag from every video",
		Description: "Keeps the tag but drops all of its associations",
		Tags:        []string{"Tags"},
	}, s.handleUntagAllVideos)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagFolder",
		Method:      http.MethodPost,
		Path:        "/api/v1/folder/tags",
		Summary:     "Tag every video under a folder",
		Tags:        []string{"Tags", "Folders"},
	}, s.handleTagFolder)
}

// === DTOs ===

// TagNameRequest carries a tag name.
type TagNameRequest struct {
	Name string `json:"name" minLength:"1" doc:"Tag name"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body TagNameRequest
}

// TagIDInput identifies a tag.
type TagIDInput struct {
	ID int64 `path:"id" doc:"Tag ID"`
}

// TagOutput wraps a tag for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// RenameTagInput wraps the rename request for Huma.
type RenameTagInput struct {
	ID   int64 `path:"id" doc:"Tag ID"`
	Body TagNameRequest
}

// TagFolderInput tags a folder.
type TagFolderInput struct {
	Body struct {
		Path string `json:"path" minLength:"1" doc:"Folder path"`
		Name string `json:"name" minLength:"1" doc:"Tag name"`
	}
}

// TagFolderOutput reports the tag and how many videos were tagged.
type TagFolderOutput struct {
	Body struct {
		Tag      *domain.Tag `json:"tag"`
		Affected int         `json:"affected"`
	}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*TagsOutput, error) {
	tags, err := s.services.Tag.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	out := &TagsOutput{}
	out.Body.Tags = tags
	return out, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagResultOutput, error) {
	tag, created, err := s.services.Tag.CreateTag(ctx, input.Body.Name)
	if err != nil {
		return nil, err
	}
	out := &TagResultOutput{}
	out.Body.Tag = tag
	out.Body.Created = created
	return out, nil
}

func (s *Server) handleDeleteAllTags(ctx context.Context, _ *struct{}) (*AffectedOutput, error) {
	n, err := s.services.Tag.DeleteAllTags(ctx)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: domain.ActionResult{Affected: n}}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagIDInput) (*TagOutput, error) {
	tag, err := s.services.Tag.GetTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleRenameTag(ctx context.Context, input *RenameTagInput) (*TagOutput, error) {
	tag, err := s.services.Tag.RenameTag(ctx, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *TagIDInput) (*struct{}, error) {
	return nil, s.services.Tag.DeleteTag(ctx, input.ID)
}

func (s *Server) handleUntagAllVideos(ctx context.Context, input *TagIDInput) (*AffectedOutput, error) {
	n, err := s.services.Tag.RemoveTagFromAllVideos(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &AffectedOutput{Body: domain.ActionResult{Affected: n}}, nil
}

func (s *Server) handleTagFolder(ctx context.Context, input *TagFolderInput) (*TagFolderOutput, error) {
	tag, n, err := s.services.Tag.TagFolder(ctx, input.Body.Path, input.Body.Name)
	if err != nil {
		return nil, err
	}
	out := &TagFolderOutput{}
	out.Body.Tag = tag
	out.Body.Affected = n
	return out, nil
}
