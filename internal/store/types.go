package store

import "github.com/vidshelfapp/vidshelf-core/internal/domain"

// OrderMode selects how video listings are sorted.
type OrderMode int

const (
	// OrderTitle sorts by title, case-insensitive.
	OrderTitle OrderMode = iota
	// OrderWatchStatus puts unstarted videos first, then in-progress, then
	// watched; each group by last watched (newest first) then title.
	OrderWatchStatus
)

// ParseOrderMode maps the API names to an OrderMode.
func ParseOrderMode(s string) (OrderMode, bool) {
	switch s {
	case "", "watch_status":
		return OrderWatchStatus, true
	case "title":
		return OrderTitle, true
	default:
		return OrderWatchStatus, false
	}
}

// UpsertMode decides what an upsert does with the watch fields of an
// existing row for the same path.
type UpsertMode int

const (
	// PreserveWatchState keeps the stored watch fields of an existing row.
	PreserveWatchState UpsertMode = iota
	// OverwriteWatchState replaces them with the input values.
	OverwriteWatchState
)

// Snapshot is the full catalog minus watch history.
type Snapshot struct {
	Videos    []*domain.Video
	Tags      []*domain.Tag
	VideoTags []domain.VideoTag
	Folders   []*domain.LibraryFolder
}
