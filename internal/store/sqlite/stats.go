package sqlite

import (
	"context"
	"fmt"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
)

// coveredByFolder holds when some library folder is a path prefix of v.
const coveredByFolder = `EXISTS (
	SELECT 1 FROM library_folders f
	WHERE substr(v.path_key, 1, length(f.path_key) + 1) = f.path_key || '/'
)`

// FolderCounts returns the total and watched number of videos under folderPath.
func (s *Store) FolderCounts(ctx context.Context, folderPath string) (int, int, error) {
	prefix := normalize.DescendantPrefix(folderPath)

	var total, watched int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(v.is_watched), 0)
		FROM videos v WHERE `+underPrefix,
		prefix, prefix,
	).Scan(&total, &watched)
	if err != nil {
		return 0, 0, fmt.Errorf("count folder %q: %w", folderPath, err)
	}
	return total, watched, nil
}

// ListOrphanedVideos returns videos that no library folder covers.
func (s *Store) ListOrphanedVideos(ctx context.Context) ([]*domain.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+videoColumns+` FROM videos v
		WHERE NOT `+coveredByFolder+`
		ORDER BY v.file_path`)
	if err != nil {
		return nil, fmt.Errorf("list orphaned videos: %w", err)
	}
	return collectVideos(rows)
}

// DeleteOrphanedVideos removes every orphan and its tag links in one
// transaction. Returns the number of videos removed.
func (s *Store) DeleteOrphanedVideos(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orphans := `SELECT v.id FROM videos v WHERE NOT ` + coveredByFolder

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM video_tags WHERE video_id IN (`+orphans+`)`); err != nil {
		return 0, fmt.Errorf("delete orphan tag links: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE id IN (`+orphans+`)`)
	if err != nil {
		return 0, fmt.Errorf("delete orphaned videos: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit orphan cleanup: %w", err)
	}
	return int(n), nil
}

// LibraryStats aggregates the catalog. With excludeOrphans the video figures
// only count videos some folder covers; tag and folder totals are unaffected.
func (s *Store) LibraryStats(ctx context.Context, excludeOrphans bool) (*domain.LibraryStats, error) {
	where := ``
	if excludeOrphans {
		where = ` WHERE ` + coveredByFolder
	}

	var st domain.LibraryStats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(v.is_watched), 0),
			COALESCE(SUM(v.duration_seconds), 0),
			(SELECT COUNT(*) FROM tags),
			(SELECT COUNT(*) FROM library_folders)
		FROM videos v`+where,
	).Scan(&st.TotalVideos, &st.WatchedVideos, &st.TotalDuration, &st.TotalTags, &st.TotalFolders)
	if err != nil {
		return nil, fmt.Errorf("library stats: %w", err)
	}
	return &st, nil
}
