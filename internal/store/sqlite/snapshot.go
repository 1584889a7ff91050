package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// ExportSnapshot reads every video, tag, link and folder inside one
// transaction so the parts agree with each other.
func (s *Store) ExportSnapshot(ctx context.Context) (*store.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := &store.Snapshot{}

	if snap.Videos, err = listAllVideos(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Folders, err = listFolders(ctx, tx); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags t ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("export tags: %w", err)
	}
	if snap.Tags, err = collectTags(rows); err != nil {
		return nil, err
	}

	links, err := tx.QueryContext(ctx, `SELECT video_id, tag_id FROM video_tags ORDER BY video_id, tag_id`)
	if err != nil {
		return nil, fmt.Errorf("export tag links: %w", err)
	}
	defer links.Close()
	snap.VideoTags = []domain.VideoTag{}
	for links.Next() {
		var vt domain.VideoTag
		if err := links.Scan(&vt.VideoID, &vt.TagID); err != nil {
			return nil, err
		}
		snap.VideoTags = append(snap.VideoTags, vt)
	}
	if err := links.Err(); err != nil {
		return nil, err
	}

	return snap, tx.Commit()
}

// ReplaceFromSnapshot swaps the whole catalog for snap in one transaction.
// IDs are kept, so tag links keep pointing at the same rows. Watch history
// is cleared. Any failure leaves the previous catalog in place.
func (s *Store) ReplaceFromSnapshot(ctx context.Context, snap *store.Snapshot) error {
	if snap == nil {
		return store.ErrInvalidInput.WithMessage("snapshot is required")
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM video_tags`,
		`DELETE FROM watch_history`,
		`DELETE FROM videos`,
		`DELETE FROM tags`,
		`DELETE FROM library_folders`,
		`DELETE FROM sqlite_sequence WHERE name IN ('videos', 'tags', 'library_folders', 'watch_history')`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear catalog: %w", err)
		}
	}

	for _, f := range snap.Folders {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO library_folders (id, path, path_key, icon, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			nullInt64(f.ID), f.Path, normalize.Path(f.Path), nullableString(f.Icon),
			formatTime(orNow(f.CreatedAt, now)),
		); err != nil {
			return fmt.Errorf("import folder %q: %w", f.Path, err)
		}
	}

	for _, t := range snap.Tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`,
			nullInt64(t.ID), normalize.TagName(t.Name), formatTime(orNow(t.CreatedAt, now)),
		); err != nil {
			return fmt.Errorf("import tag %q: %w", t.Name, err)
		}
	}

	for _, v := range snap.Videos {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO videos (
				id, file_path, path_key, title, description, duration_seconds,
				thumbnail_path, thumbnail_blurhash, width, height, codec, file_size,
				is_watched, watch_progress_seconds, last_watched_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			nullInt64(v.ID),
			v.FilePath,
			normalize.Path(v.FilePath),
			v.Title,
			v.Description,
			v.DurationSeconds,
			nullableString(v.ThumbnailPath),
			v.ThumbnailBlurHash,
			v.Width,
			v.Height,
			v.Codec,
			v.FileSize,
			boolInt(v.IsWatched),
			v.WatchProgressSeconds,
			nullTimeString(v.LastWatchedAt),
			formatTime(orNow(v.CreatedAt, now)),
			formatTime(orNow(v.UpdatedAt, now)),
		); err != nil {
			return fmt.Errorf("import video %q: %w", v.FilePath, err)
		}
	}

	for _, vt := range snap.VideoTags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO video_tags (video_id, tag_id) VALUES (?, ?)`,
			vt.VideoID, vt.TagID,
		); err != nil {
			return fmt.Errorf("import tag link %d/%d: %w", vt.VideoID, vt.TagID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.logger.Info("catalog replaced from snapshot",
		"videos", len(snap.Videos),
		"tags", len(snap.Tags),
		"folders", len(snap.Folders),
	)
	return nil
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t
}
