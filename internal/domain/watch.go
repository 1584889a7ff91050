package domain

import "time"

// WatchState is the derived per-video watch state.
type WatchState int

const (
	// Unstarted is not watched with zero progress.
	Unstarted WatchState = iota
	// InProgress is not watched with some progress recorded.
	InProgress
	// Watched is marked watched, automatically or by hand.
	Watched
)

// String returns the wire name of the state.
func (s WatchState) String() string {
	switch s {
	case Unstarted:
		return "unstarted"
	case InProgress:
		return "in_progress"
	case Watched:
		return "watched"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s WatchState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WatchThresholdPercent is the share of the duration that marks a video watched.
const WatchThresholdPercent = 75

// ReachesWatchThreshold reports whether current seconds of a video that runs
// for duration seconds count as watched. Unknown durations never qualify.
func ReachesWatchThreshold(current, duration int64) bool {
	return duration > 0 && current*100 >= duration*WatchThresholdPercent
}

// WatchUpdate is the result of applying a transition to a video.
type WatchUpdate struct {
	IsWatched            bool
	WatchProgressSeconds int64
	LastWatchedAt        *time.Time
	DurationSeconds      int64
	// BecameWatched is set when the transition moved the video into Watched.
	BecameWatched bool
}

// ApplyProgress computes the watch fields after the player reports progress.
// Crossing the threshold of the reported duration marks the video watched;
// lower progress never unmarks it. When the player reports no duration the
// stored one is used, and a stored duration of zero is backfilled.
func ApplyProgress(v *Video, current, duration int64, now time.Time) WatchUpdate {
	threshold := duration
	if threshold <= 0 {
		threshold = v.DurationSeconds
	}
	stored := v.DurationSeconds
	if stored <= 0 && duration > 0 {
		stored = duration
	}

	watched := v.IsWatched || ReachesWatchThreshold(current, threshold)
	return WatchUpdate{
		IsWatched:            watched,
		WatchProgressSeconds: current,
		LastWatchedAt:        &now,
		DurationSeconds:      stored,
		BecameWatched:        watched && !v.IsWatched,
	}
}

// ApplyManual computes the watch fields for an explicit watched/unwatched
// choice. Marking watched fills the progress bar; unmarking empties it.
func ApplyManual(v *Video, watched bool, now time.Time) WatchUpdate {
	u := WatchUpdate{
		IsWatched:       watched,
		DurationSeconds: v.DurationSeconds,
		LastWatchedAt:   v.LastWatchedAt,
		BecameWatched:   watched && !v.IsWatched,
	}
	if watched {
		u.WatchProgressSeconds = v.DurationSeconds
		u.LastWatchedAt = &now
	}
	return u
}

// WatchTarget selects the direction of a bulk watch change.
type WatchTarget int

const (
	// MarkWatched moves unwatched videos to Watched.
	MarkWatched WatchTarget = iota
	// MarkUnwatched moves watched videos to Unstarted.
	MarkUnwatched
)

// String returns the wire name of the target.
func (t WatchTarget) String() string {
	if t == MarkUnwatched {
		return "unwatched"
	}
	return "watched"
}

// ParseWatchTarget parses "watched" or "unwatched".
func ParseWatchTarget(s string) (WatchTarget, bool) {
	switch s {
	case "watched":
		return MarkWatched, true
	case "unwatched":
		return MarkUnwatched, true
	default:
		return MarkWatched, false
	}
}

// ResetScope selects what a library reset clears.
type ResetScope int

const (
	// ResetWatchState returns every video to Unstarted and clears watch history.
	ResetWatchState ResetScope = iota
	// ResetEverything also removes every tag association.
	ResetEverything
)

// WatchHistoryEvent records one completed viewing. Rows are append-only.
type WatchHistoryEvent struct {
	ID             int64     `json:"id"`
	VideoID        int64     `json:"video_id"`
	WatchedSeconds int64     `json:"watched_seconds"`
	WatchedAt      time.Time `json:"watched_at"`
}
