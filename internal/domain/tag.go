package domain

import "time"

// Tag is a user label. Names are unique without regard to case.
type Tag struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	VideoCount int       `json:"video_count"` // Filled by list queries only
	CreatedAt  time.Time `json:"created_at"`
}

// VideoTag links a video to a tag.
type VideoTag struct {
	VideoID int64 `json:"video_id"`
	TagID   int64 `json:"tag_id"`
}
