package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// folderColumns is the ordered list of columns selected in folder queries.
// Must match the scan order in scanFolder.
const folderColumns = `id, path, icon, created_at`

// scanFolder scans a sql.Row (or sql.Rows via its Scan method) into a domain.LibraryFolder.
func scanFolder(scanner interface{ Scan(dest ...any) error }) (*domain.LibraryFolder, error) {
	var (
		f         domain.LibraryFolder
		icon      sql.NullString
		createdAt string
	)

	if err := scanner.Scan(&f.ID, &f.Path, &icon, &createdAt); err != nil {
		return nil, err
	}

	f.Icon = stringPtr(icon)
	var err error
	f.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// AddFolder registers a library root. Adding a path that is already present,
// in any casing or separator style, returns the existing folder with
// created set to false.
func (s *Store) AddFolder(ctx context.Context, path string, icon *string) (*domain.LibraryFolder, bool, error) {
	if strings.TrimSpace(path) == "" {
		return nil, false, store.ErrInvalidInput.WithMessage("folder path is required")
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO library_folders (path, path_key, icon, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path_key) DO NOTHING`,
		path, normalize.Path(path), nullableString(icon), formatTime(s.now()),
	)
	if err != nil {
		return nil, false, fmt.Errorf("add folder %q: %w", path, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}

	f, err := s.GetFolderByPath(ctx, path)
	if err != nil {
		return nil, false, err
	}
	return f, n > 0, nil
}

// GetFolder retrieves a folder by its ID.
// Returns store.ErrFolderNotFound if the folder does not exist.
func (s *Store) GetFolder(ctx context.Context, id int64) (*domain.LibraryFolder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM library_folders WHERE id = ?`, id)

	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetFolderByPath retrieves a folder by its normalized path.
func (s *Store) GetFolderByPath(ctx context.Context, path string) (*domain.LibraryFolder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM library_folders WHERE path_key = ?`, normalize.Path(path))

	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFolders returns all folders ordered by path.
func (s *Store) ListFolders(ctx context.Context) ([]*domain.LibraryFolder, error) {
	return listFolders(ctx, s.db)
}

func listFolders(ctx context.Context, q querier) ([]*domain.LibraryFolder, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM library_folders ORDER BY path_key, id`)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders := []*domain.LibraryFolder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// SetFolderIcon replaces the folder icon. A nil icon clears it.
func (s *Store) SetFolderIcon(ctx context.Context, id int64, icon *string) (*domain.LibraryFolder, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE library_folders SET icon = ? WHERE id = ?`, nullableString(icon), id)
	if err != nil {
		return nil, fmt.Errorf("set folder icon: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrFolderNotFound
	}
	return s.GetFolder(ctx, id)
}

// RemoveFolder deletes a folder and every video under its path, with their
// tag links and history. Returns the number of videos removed.
func (s *Store) RemoveFolder(ctx context.Context, id int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var key string
	err = tx.QueryRowContext(ctx, `SELECT path_key FROM library_folders WHERE id = ?`, id).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrFolderNotFound
	}
	if err != nil {
		return 0, err
	}
	prefix := key + "/"

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM video_tags WHERE video_id IN (
			SELECT v.id FROM videos v WHERE `+underPrefix+`
		)`, prefix, prefix); err != nil {
		return 0, fmt.Errorf("delete folder tag links: %w", err)
	}
	result, err := tx.ExecContext(ctx, `
		DELETE FROM videos WHERE id IN (
			SELECT v.id FROM videos v WHERE `+underPrefix+`
		)`, prefix, prefix)
	if err != nil {
		return 0, fmt.Errorf("delete folder videos: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM library_folders WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("delete folder %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit folder removal: %w", err)
	}
	return int(n), nil
}

// DetachFolder deletes only the folder row. Its videos stay and become
// orphans unless another folder covers them.
func (s *Store) DetachFolder(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM library_folders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("detach folder %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrFolderNotFound
	}
	return nil
}
