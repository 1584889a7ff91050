// Package domain holds the catalog entities and the rules that act on them.
package domain

import "time"

// Video is the catalog entry for one file on disk.
// FilePath keeps the casing and separators it was indexed with.
type Video struct {
	ID                   int64      `json:"id"`
	FilePath             string     `json:"file_path"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	DurationSeconds      int64      `json:"duration_seconds"`
	ThumbnailPath        *string    `json:"thumbnail_path"`
	ThumbnailBlurHash    string     `json:"thumbnail_blurhash,omitempty"`
	Width                int        `json:"width,omitempty"`
	Height               int        `json:"height,omitempty"`
	Codec                string     `json:"codec,omitempty"`
	FileSize             int64      `json:"file_size,omitempty"`
	IsWatched            bool       `json:"is_watched"`
	WatchProgressSeconds int64      `json:"watch_progress_seconds"`
	LastWatchedAt        *time.Time `json:"last_watched_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsIndexed reports whether the video is backed by a catalog row.
// Recursive search returns placeholders with a zero ID for files the
// indexer has not processed yet.
func (v *Video) IsIndexed() bool {
	return v.ID != 0
}

// State derives the watch state from the stored fields.
func (v *Video) State() WatchState {
	switch {
	case v.IsWatched:
		return Watched
	case v.WatchProgressSeconds > 0:
		return InProgress
	default:
		return Unstarted
	}
}

// NewPlaceholderVideo builds an unindexed video for a file found on disk.
func NewPlaceholderVideo(path, title string) *Video {
	return &Video{FilePath: path, Title: title}
}

// VideoInput carries the fields an upsert writes.
type VideoInput struct {
	FilePath          string `validate:"required"`
	Title             string
	Description       string
	DurationSeconds   int64 `validate:"gte=0"`
	ThumbnailPath     *string
	ThumbnailBlurHash string
	Width             int
	Height            int
	Codec             string
	FileSize          int64

	// Watch fields are only written when the upsert overwrites watch state.
	IsWatched            bool
	WatchProgressSeconds int64 `validate:"gte=0"`
	LastWatchedAt        *time.Time
}
