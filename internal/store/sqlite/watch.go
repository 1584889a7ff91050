package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// SaveWatchState writes the result of a watch transition. A transition into
// Watched also appends a history row in the same transaction.
func (s *Store) SaveWatchState(ctx context.Context, videoID int64, u domain.WatchUpdate) (*domain.Video, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE videos SET
			is_watched = ?,
			watch_progress_seconds = ?,
			last_watched_at = ?,
			duration_seconds = ?,
			updated_at = ?
		WHERE id = ?`,
		boolInt(u.IsWatched),
		u.WatchProgressSeconds,
		nullTimeString(u.LastWatchedAt),
		u.DurationSeconds,
		formatTime(now),
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("save watch state for video %d: %w", videoID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrVideoNotFound
	}

	if u.BecameWatched {
		watchedAt := now
		if u.LastWatchedAt != nil {
			watchedAt = *u.LastWatchedAt
		}
		if err := insertHistory(ctx, tx, videoID, u.WatchProgressSeconds, watchedAt); err != nil {
			return nil, err
		}
	}

	v, err := getVideo(ctx, tx, videoID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit watch state: %w", err)
	}
	return v, nil
}

func insertHistory(ctx context.Context, q querier, videoID, seconds int64, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO watch_history (video_id, watched_seconds, watched_at)
		VALUES (?, ?, ?)`,
		videoID, seconds, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("append watch history for video %d: %w", videoID, err)
	}
	return nil
}

// MarkFolder moves every video under folderPath to the target state and
// returns how many rows changed. Only videos in the opposite state are
// touched: marking watched leaves progress as it is and appends one history
// row per video, marking unwatched zeroes the progress of watched videos.
func (s *Store) MarkFolder(ctx context.Context, folderPath string, target domain.WatchTarget, now time.Time) (int, error) {
	prefix := normalize.DescendantPrefix(folderPath)
	stamp := formatTime(now)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var result sql.Result
	switch target {
	case domain.MarkWatched:
		_, err = tx.ExecContext(ctx, `
			INSERT INTO watch_history (video_id, watched_seconds, watched_at)
			SELECT v.id, v.duration_seconds, ? FROM videos v
			WHERE `+underPrefix+` AND v.is_watched = 0`,
			stamp, prefix, prefix,
		)
		if err != nil {
			return 0, fmt.Errorf("append folder history: %w", err)
		}
		result, err = tx.ExecContext(ctx, `
			UPDATE videos AS v SET
				is_watched = 1,
				last_watched_at = ?,
				updated_at = ?
			WHERE `+underPrefix+` AND v.is_watched = 0`,
			stamp, stamp, prefix, prefix,
		)
	case domain.MarkUnwatched:
		result, err = tx.ExecContext(ctx, `
			UPDATE videos AS v SET
				is_watched = 0,
				watch_progress_seconds = 0,
				updated_at = ?
			WHERE `+underPrefix+` AND v.is_watched = 1`,
			stamp, prefix, prefix,
		)
	default:
		return 0, store.ErrInvalidInput.WithMessage("unknown watch target")
	}
	if err != nil {
		return 0, fmt.Errorf("mark folder %q %s: %w", folderPath, target, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit folder mark: %w", err)
	}
	return int(n), nil
}

// ResetLibrary returns every video to Unstarted and clears the history.
// ResetEverything also drops every tag association.
func (s *Store) ResetLibrary(ctx context.Context, scope domain.ResetScope) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE videos SET
			is_watched = 0,
			watch_progress_seconds = 0,
			last_watched_at = NULL,
			updated_at = ?`,
		formatTime(s.now()),
	); err != nil {
		return fmt.Errorf("reset watch state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM watch_history`); err != nil {
		return fmt.Errorf("clear watch history: %w", err)
	}
	if scope == domain.ResetEverything {
		if _, err := tx.ExecContext(ctx, `DELETE FROM video_tags`); err != nil {
			return fmt.Errorf("clear tag links: %w", err)
		}
	}

	return tx.Commit()
}

// ListWatchHistory returns the completed viewings of a video, newest first.
func (s *Store) ListWatchHistory(ctx context.Context, videoID int64) ([]*domain.WatchHistoryEvent, error) {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video_id, watched_seconds, watched_at
		FROM watch_history WHERE video_id = ?
		ORDER BY watched_at DESC, id DESC`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list watch history: %w", err)
	}
	defer rows.Close()

	events := []*domain.WatchHistoryEvent{}
	for rows.Next() {
		var (
			e         domain.WatchHistoryEvent
			watchedAt string
		)
		if err := rows.Scan(&e.ID, &e.VideoID, &e.WatchedSeconds, &watchedAt); err != nil {
			return nil, err
		}
		e.WatchedAt, err = parseTime(watchedAt)
		if err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
