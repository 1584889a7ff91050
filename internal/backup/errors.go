// Package backup writes and restores JSON snapshots of the VidShelf catalog.
package backup

import domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"

var (
	// ErrBackupNotFound indicates the requested backup does not exist.
	ErrBackupNotFound = domainerrors.NotFound("backup not found")

	// ErrInvalidBackupID indicates an ID that cannot name a file in the
	// backups directory.
	ErrInvalidBackupID = domainerrors.Validation("invalid backup id")
)
