package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
	"github.com/vidshelfapp/vidshelf-core/internal/validation"
)

// IndexQueue accepts folders for background indexing.
type IndexQueue interface {
	Enqueue(folder string) bool
}

// AddFolderRequest is validated before a folder is added.
type AddFolderRequest struct {
	Path string  `json:"path" validate:"required,abspath"`
	Icon *string `json:"icon,omitempty" validate:"omitempty,max=16"`
}

// LibraryService manages library folders and bulk folder actions.
type LibraryService struct {
	store     store.Store
	validator *validation.Validator
	watch     *WatchService
	tags      *TagService
	queue     IndexQueue
	logger    *slog.Logger
}

// NewLibraryService creates a new library service. queue may be nil, in
// which case added folders are not indexed automatically.
func NewLibraryService(
	store store.Store,
	validator *validation.Validator,
	watch *WatchService,
	tags *TagService,
	queue IndexQueue,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		store:     store,
		validator: validator,
		watch:     watch,
		tags:      tags,
		queue:     queue,
		logger:    logger,
	}
}

// AddFolder registers a library folder and queues it for indexing.
// Adding a folder twice returns the existing one.
func (s *LibraryService) AddFolder(ctx context.Context, req AddFolderRequest) (*domain.LibraryFolder, bool, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}

	f, created, err := s.store.AddFolder(ctx, req.Path, req.Icon)
	if err != nil {
		return nil, false, persistence(err, "add folder")
	}
	if created {
		s.logger.Info("library folder added", "folder_id", f.ID, "path", f.Path)
	}
	if s.queue != nil {
		s.queue.Enqueue(f.Path)
	}
	return f, created, nil
}

// ListFolders returns every library folder.
func (s *LibraryService) ListFolders(ctx context.Context) ([]*domain.LibraryFolder, error) {
	folders, err := s.store.ListFolders(ctx)
	return folders, persistence(err, "list folders")
}

// GetFolder returns a folder by ID.
func (s *LibraryService) GetFolder(ctx context.Context, id int64) (*domain.LibraryFolder, error) {
	f, err := s.store.GetFolder(ctx, id)
	return f, persistence(err, "get folder")
}

// SetIcon replaces or clears a folder icon.
func (s *LibraryService) SetIcon(ctx context.Context, id int64, icon *string) (*domain.LibraryFolder, error) {
	if icon != nil {
		if err := s.validator.Validate(struct {
			Icon string `json:"icon" validate:"max=16"`
		}{*icon}); err != nil {
			return nil, err
		}
	}
	f, err := s.store.SetFolderIcon(ctx, id, icon)
	return f, persistence(err, "set folder icon")
}

// RemoveFolder deletes a folder and every video under it.
func (s *LibraryService) RemoveFolder(ctx context.Context, id int64) (int, error) {
	n, err := s.store.RemoveFolder(ctx, id)
	if err != nil {
		return 0, persistence(err, "remove folder")
	}
	s.logger.Info("library folder removed", "folder_id", id, "videos_removed", n)
	return n, nil
}

// DetachFolder deletes the folder but keeps its videos as orphans.
func (s *LibraryService) DetachFolder(ctx context.Context, id int64) error {
	if err := s.store.DetachFolder(ctx, id); err != nil {
		return persistence(err, "detach folder")
	}
	s.logger.Info("library folder detached", "folder_id", id)
	return nil
}

// Reindex queues a folder for indexing.
func (s *LibraryService) Reindex(ctx context.Context, id int64) (*domain.LibraryFolder, bool, error) {
	f, err := s.store.GetFolder(ctx, id)
	if err != nil {
		return nil, false, persistence(err, "get folder")
	}
	if s.queue == nil {
		return f, false, nil
	}
	return f, s.queue.Enqueue(f.Path), nil
}

// Apply runs a confirmed folder action.
func (s *LibraryService) Apply(ctx context.Context, action domain.FolderAction) (domain.ActionResult, error) {
	switch a := action.(type) {
	case domain.TagAllAction:
		_, n, err := s.tags.TagFolder(ctx, a.FolderPath, a.TagName)
		return domain.ActionResult{Affected: n}, err
	case domain.RemoveFolderAction:
		n, err := s.RemoveFolder(ctx, a.FolderID)
		return domain.ActionResult{Affected: n}, err
	case domain.MarkAllAction:
		n, err := s.watch.MarkAllInFolder(ctx, a.FolderPath, a.Target)
		return domain.ActionResult{Affected: n}, err
	case nil:
		return domain.ActionResult{}, domainerrors.Validation("no folder action given")
	default:
		panic(fmt.Sprintf("unhandled folder action %T", action))
	}
}
