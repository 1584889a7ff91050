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

// videoColumns is the ordered list of columns selected in video queries.
// Queries alias the videos table as v. Must match the scan order in scanVideo.
const videoColumns = `v.id, v.file_path, v.title, v.description, v.duration_seconds,
	v.thumbnail_path, v.thumbnail_blurhash, v.width, v.height, v.codec, v.file_size,
	v.is_watched, v.watch_progress_seconds, v.last_watched_at, v.created_at, v.updated_at`

// underPrefix restricts v to rows under a folder. Bind the descendant
// prefix twice.
const underPrefix = `substr(v.path_key, 1, length(?)) = ?`

// watchStatusOrder sorts unstarted, then in progress, then watched. Inside a
// group the most recently watched come first and never watched rows last.
const watchStatusOrder = `CASE WHEN v.is_watched = 1 THEN 2 WHEN v.watch_progress_seconds > 0 THEN 1 ELSE 0 END,
	v.last_watched_at IS NULL, v.last_watched_at DESC, v.title COLLATE NOCASE, v.id`

const titleOrder = `v.title COLLATE NOCASE, v.id`

// scanVideo scans a sql.Row (or sql.Rows via its Scan method) into a domain.Video.
func scanVideo(scanner interface{ Scan(dest ...any) error }) (*domain.Video, error) {
	var v domain.Video

	var (
		thumbnailPath sql.NullString
		lastWatchedAt sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := scanner.Scan(
		&v.ID,
		&v.FilePath,
		&v.Title,
		&v.Description,
		&v.DurationSeconds,
		&thumbnailPath,
		&v.ThumbnailBlurHash,
		&v.Width,
		&v.Height,
		&v.Codec,
		&v.FileSize,
		&v.IsWatched,
		&v.WatchProgressSeconds,
		&lastWatchedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.ThumbnailPath = stringPtr(thumbnailPath)
	v.LastWatchedAt, err = parseNullableTime(lastWatchedAt)
	if err != nil {
		return nil, fmt.Errorf("parse last_watched_at: %w", err)
	}
	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	v.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &v, nil
}

func collectVideos(rows *sql.Rows) ([]*domain.Video, error) {
	defer rows.Close()

	var videos []*domain.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if videos == nil {
		videos = []*domain.Video{}
	}
	return videos, nil
}

// UpsertVideo inserts a video or updates the row with the same file path.
// An existing row keeps its ID and tags. Its watch fields are only replaced
// in OverwriteWatchState mode.
func (s *Store) UpsertVideo(ctx context.Context, in *domain.VideoInput, mode store.UpsertMode) (*domain.Video, error) {
	if in == nil || strings.TrimSpace(in.FilePath) == "" {
		return nil, store.ErrInvalidInput.WithMessage("video file path is required")
	}
	if in.DurationSeconds < 0 || in.WatchProgressSeconds < 0 {
		return nil, store.ErrInvalidInput.WithMessage("video durations must not be negative")
	}

	conflict := `
		path_key = excluded.path_key,
		title = excluded.title,
		description = excluded.description,
		duration_seconds = excluded.duration_seconds,
		thumbnail_path = excluded.thumbnail_path,
		thumbnail_blurhash = excluded.thumbnail_blurhash,
		width = excluded.width,
		height = excluded.height,
		codec = excluded.codec,
		file_size = excluded.file_size,
		updated_at = excluded.updated_at`
	if mode == store.OverwriteWatchState {
		conflict += `,
		is_watched = excluded.is_watched,
		watch_progress_seconds = excluded.watch_progress_seconds,
		last_watched_at = excluded.last_watched_at`
	}

	now := formatTime(s.now())
	var videoID int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO videos (
			file_path, path_key, title, description, duration_seconds,
			thumbnail_path, thumbnail_blurhash, width, height, codec, file_size,
			is_watched, watch_progress_seconds, last_watched_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET`+conflict+`
		RETURNING id`,
		in.FilePath,
		normalize.Path(in.FilePath),
		in.Title,
		in.Description,
		in.DurationSeconds,
		nullableString(in.ThumbnailPath),
		in.ThumbnailBlurHash,
		in.Width,
		in.Height,
		in.Codec,
		in.FileSize,
		boolInt(in.IsWatched),
		in.WatchProgressSeconds,
		nullTimeString(in.LastWatchedAt),
		now,
		now,
	).Scan(&videoID)
	if err != nil {
		return nil, fmt.Errorf("upsert video %q: %w", in.FilePath, err)
	}

	return s.GetVideo(ctx, videoID)
}

// GetVideo retrieves a video by its ID.
// Returns store.ErrVideoNotFound if the video does not exist.
func (s *Store) GetVideo(ctx context.Context, id int64) (*domain.Video, error) {
	return getVideo(ctx, s.db, id)
}

func getVideo(ctx context.Context, q querier, id int64) (*domain.Video, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos v WHERE v.id = ?`, id)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetVideoByPath retrieves a video by its exact file path.
// Returns store.ErrVideoNotFound if no row has that path.
func (s *Store) GetVideoByPath(ctx context.Context, path string) (*domain.Video, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos v WHERE v.file_path = ?`, path)

	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// ListVideosUnderPrefix returns the videos that belong to folderPath.
// A limit of zero or less returns every match.
func (s *Store) ListVideosUnderPrefix(ctx context.Context, folderPath string, order store.OrderMode, limit int) ([]*domain.Video, error) {
	prefix := normalize.DescendantPrefix(folderPath)

	query := `SELECT ` + videoColumns + ` FROM videos v WHERE ` + underPrefix + ` ORDER BY `
	if order == store.OrderTitle {
		query += titleOrder
	} else {
		query += watchStatusOrder
	}
	args := []any{prefix, prefix}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos under %q: %w", folderPath, err)
	}
	return collectVideos(rows)
}

// ListAllVideos returns every video ordered by ID.
func (s *Store) ListAllVideos(ctx context.Context) ([]*domain.Video, error) {
	return listAllVideos(ctx, s.db)
}

func listAllVideos(ctx context.Context, q querier) ([]*domain.Video, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos v ORDER BY v.id`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return collectVideos(rows)
}

// UpdateVideoDetails replaces the user-editable title and description.
func (s *Store) UpdateVideoDetails(ctx context.Context, id int64, title, description string) (*domain.Video, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE videos SET title = ?, description = ?, updated_at = ?
		WHERE id = ?`,
		title, description, formatTime(s.now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update video %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrVideoNotFound
	}
	return s.GetVideo(ctx, id)
}

// DeleteVideo removes a video. Tag links and history cascade.
func (s *Store) DeleteVideo(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete video %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrVideoNotFound
	}
	return nil
}

// SearchVideos matches term against titles, descriptions and tag names.
// Matching folds case the same way recursive search does. An empty term
// matches nothing.
func (s *Store) SearchVideos(ctx context.Context, term string) ([]*domain.Video, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*domain.Video{}, nil
	}
	folded := normalize.Fold(term)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+videoColumns+` FROM videos v
		WHERE instr(fold(v.title), ?) > 0
		   OR instr(fold(v.description), ?) > 0
		   OR EXISTS (
		       SELECT 1 FROM video_tags vt
		       JOIN tags t ON t.id = vt.tag_id
		       WHERE vt.video_id = v.id AND instr(fold(t.name), ?) > 0
		   )
		ORDER BY `+titleOrder,
		folded, folded, folded,
	)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	return collectVideos(rows)
}
