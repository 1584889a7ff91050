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

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `t.id, t.name, t.created_at,
	(SELECT COUNT(*) FROM video_tags vt WHERE vt.tag_id = t.id)`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var (
		t         domain.Tag
		createdAt string
	)

	if err := scanner.Scan(&t.ID, &t.Name, &createdAt, &t.VideoCount); err != nil {
		return nil, err
	}

	var err error
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTags(rows *sql.Rows) ([]*domain.Tag, error) {
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// GetOrCreateTag finds a tag by name, ignoring case, or creates it.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) GetOrCreateTag(ctx context.Context, name string) (*domain.Tag, bool, error) {
	name = normalize.TagName(name)
	if name == "" {
		return nil, false, store.ErrInvalidInput.WithMessage("tag name is required")
	}

	// Try to find existing tag first.
	existing, err := s.getTagByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	var tagID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO tags (name, created_at) VALUES (?, ?)
		RETURNING id`,
		name, formatTime(s.now()),
	).Scan(&tagID)
	if isUniqueViolation(err) {
		// Lost a race with another writer; the row exists now.
		existing, err := s.getTagByName(ctx, name)
		return existing, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("create tag %q: %w", name, err)
	}

	t, err := s.GetTag(ctx, tagID)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *Store) getTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE fold(t.name) = ? ORDER BY t.id LIMIT 1`,
		normalize.Fold(name))

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTag retrieves a tag by its ID.
// Returns store.ErrTagNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, id int64) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags t WHERE t.id = ?`, id)

	t, err := scanTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all tags with their video counts, ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags t ORDER BY t.name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return collectTags(rows)
}

// RenameTag changes a tag's name. Renaming onto another tag's name, in any
// casing, returns store.ErrAlreadyExists.
func (s *Store) RenameTag(ctx context.Context, id int64, name string) (*domain.Tag, error) {
	name = normalize.TagName(name)
	if name == "" {
		return nil, store.ErrInvalidInput.WithMessage("tag name is required")
	}

	result, err := s.db.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if isUniqueViolation(err) {
		return nil, store.ErrAlreadyExists.WithMessage(fmt.Sprintf("tag %q already exists", name))
	}
	if err != nil {
		return nil, fmt.Errorf("rename tag %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrTagNotFound
	}
	return s.GetTag(ctx, id)
}

// DeleteTag removes a tag and its video links.
func (s *Store) DeleteTag(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM video_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("delete tag links: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTagNotFound
	}
	return tx.Commit()
}

// DeleteAllTags removes every tag and link. Returns the number of tags removed.
func (s *Store) DeleteAllTags(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM video_tags`); err != nil {
		return 0, fmt.Errorf("delete tag links: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM tags`)
	if err != nil {
		return 0, fmt.Errorf("delete tags: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// AddTagToVideo links a tag to a video. Linking twice is a no-op.
func (s *Store) AddTagToVideo(ctx context.Context, videoID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO video_tags (video_id, tag_id) VALUES (?, ?)`,
		videoID, tagID)
	if isForeignKeyViolation(err) {
		return s.missingLink(ctx, videoID)
	}
	if err != nil {
		return fmt.Errorf("tag video %d: %w", videoID, err)
	}
	return nil
}

// missingLink reports which side of a rejected link does not exist.
func (s *Store) missingLink(ctx context.Context, videoID int64) error {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return err
	}
	return store.ErrTagNotFound
}

// RemoveTagFromVideo unlinks a tag from a video. Missing links are ignored.
func (s *Store) RemoveTagFromVideo(ctx context.Context, videoID, tagID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM video_tags WHERE video_id = ? AND tag_id = ?`, videoID, tagID)
	if err != nil {
		return fmt.Errorf("untag video %d: %w", videoID, err)
	}
	return nil
}

// RemoveTagFromAllVideos unlinks a tag everywhere but keeps the tag.
// Returns the number of links removed.
func (s *Store) RemoveTagFromAllVideos(ctx context.Context, tagID int64) (int, error) {
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return 0, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM video_tags WHERE tag_id = ?`, tagID)
	if err != nil {
		return 0, fmt.Errorf("remove tag %d from videos: %w", tagID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListVideoTags returns the tags on a video ordered by name.
func (s *Store) ListVideoTags(ctx context.Context, videoID int64) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+tagColumns+` FROM tags t
		JOIN video_tags link ON link.tag_id = t.id
		WHERE link.video_id = ?
		ORDER BY t.name COLLATE NOCASE`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list tags of video %d: %w", videoID, err)
	}
	return collectTags(rows)
}

// TagFolderVideos links a tag to every video under folderPath.
// Returns the number of newly linked videos.
func (s *Store) TagFolderVideos(ctx context.Context, folderPath string, tagID int64) (int, error) {
	if strings.TrimSpace(folderPath) == "" {
		return 0, store.ErrInvalidInput.WithMessage("folder path is required")
	}
	if _, err := s.GetTag(ctx, tagID); err != nil {
		return 0, err
	}
	prefix := normalize.DescendantPrefix(folderPath)

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO video_tags (video_id, tag_id)
		SELECT v.id, ? FROM videos v WHERE `+underPrefix,
		tagID, prefix, prefix)
	if err != nil {
		return 0, fmt.Errorf("tag folder %q: %w", folderPath, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
