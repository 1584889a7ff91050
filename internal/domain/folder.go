package domain

import (
	"math"
	"time"
)

// LibraryFolder is a root path the user added to the library.
// Membership of videos is derived from path prefixes, never stored.
type LibraryFolder struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Icon      *string   `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderStats summarises the videos under one folder.
type FolderStats struct {
	TotalVideos        int  `json:"total_videos"`
	WatchedVideos      int  `json:"watched_videos"`
	IsFullyWatched     bool `json:"is_fully_watched"`
	ProgressPercentage int  `json:"progress_percentage"`
}

// NewFolderStats derives the flags and percentage from raw counts.
func NewFolderStats(total, watched int) FolderStats {
	s := FolderStats{
		TotalVideos:    total,
		WatchedVideos:  watched,
		IsFullyWatched: total > 0 && watched == total,
	}
	if total > 0 {
		s.ProgressPercentage = int(math.Round(100 * float64(watched) / float64(total)))
	}
	return s
}

// LibraryStats summarises the whole catalog.
type LibraryStats struct {
	TotalVideos   int   `json:"total_videos"`
	TotalTags     int   `json:"total_tags"`
	TotalFolders  int   `json:"total_folders"`
	WatchedVideos int   `json:"watched_videos"`
	TotalDuration int64 `json:"total_duration"`
}

// FolderCard backs one home page card.
type FolderCard struct {
	Folder  *LibraryFolder `json:"folder"`
	Stats   FolderStats    `json:"stats"`
	Preview []*Video       `json:"preview"`
}
