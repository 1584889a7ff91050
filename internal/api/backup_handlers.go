package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/backup"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "importSnapshot",
		Method:      http.MethodPost,
		Path:        "/api/v1/snapshot",
		Summary:     "Import snapshot",
		Description: "Replaces the whole catalog with the posted snapshot document. Watch history is cleared.",
		Tags:        []string{"Backups"},
	}, s.handleImportSnapshot)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups",
		Summary:     "List backups",
		Description: "Snapshot files in the backups directory, newest first",
		Tags:        []string{"Backups"},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBackup",
		Method:        http.MethodPost,
		Path:          "/api/v1/backups",
		Summary:       "Create backup",
		Tags:          []string{"Backups"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBackup",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups/{id}",
		Summary:     "Get backup",
		Tags:        []string{"Backups"},
	}, s.handleGetBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBackup",
		Method:      http.MethodDelete,
		Path:        "/api/v1/backups/{id}",
		Summary:     "Delete backup",
		Tags:        []string{"Backups"},
	}, s.handleDeleteBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/backups/{id}/restore",
		Summary:     "Restore backup",
		Description: "Imports a snapshot file from the backups directory",
		Tags:        []string{"Backups"},
	}, s.handleRestoreBackup)

	s.router.Get("/api/v1/snapshot", s.handleExportSnapshot)
}

// === DTOs ===

// ImportSnapshotInput carries the raw snapshot document.
type ImportSnapshotInput struct {
	RawBody []byte `contentType:"application/json"`
}

// ImportOutput wraps an import result for Huma.
type ImportOutput struct {
	Body *backup.ImportResult
}

// BackupListOutput wraps the backup list for Huma.
type BackupListOutput struct {
	Body struct {
		Backups []backup.BackupInfo `json:"backups"`
	}
}

// BackupIDInput identifies a backup file.
type BackupIDInput struct {
	ID string `path:"id" doc:"Backup ID"`
}

// BackupOutput wraps backup info for Huma.
type BackupOutput struct {
	Body *backup.BackupInfo
}

// === Handlers ===

// handleExportSnapshot streams the snapshot document as a download.
// The body is the bare document, not an envelope.
func (s *Server) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	counts, err := s.services.Backup.WriteSnapshot(r.Context(), &buf)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "vidshelf-library.json"))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("snapshot write failed", "error", err)
		return
	}
	s.logger.Info("snapshot exported", "videos", counts.Videos, "tags", counts.Tags)
}

func (s *Server) handleImportSnapshot(ctx context.Context, input *ImportSnapshotInput) (*ImportOutput, error) {
	result, err := s.services.Backup.Import(ctx, bytes.NewReader(input.RawBody))
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: result}, nil
}

func (s *Server) handleListBackups(ctx context.Context, _ *struct{}) (*BackupListOutput, error) {
	backups, err := s.services.Backup.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &BackupListOutput{}
	out.Body.Backups = backups
	if out.Body.Backups == nil {
		out.Body.Backups = []backup.BackupInfo{}
	}
	return out, nil
}

func (s *Server) handleCreateBackup(ctx context.Context, _ *struct{}) (*BackupOutput, error) {
	info, err := s.services.Backup.Create(ctx)
	if err != nil {
		return nil, err
	}
	return &BackupOutput{Body: info}, nil
}

func (s *Server) handleGetBackup(ctx context.Context, input *BackupIDInput) (*BackupOutput, error) {
	info, err := s.services.Backup.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BackupOutput{Body: info}, nil
}

func (s *Server) handleDeleteBackup(ctx context.Context, input *BackupIDInput) (*struct{}, error) {
	return nil, s.services.Backup.Delete(ctx, input.ID)
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *BackupIDInput) (*ImportOutput, error) {
	result, err := s.services.Backup.Restore(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: result}, nil
}
