package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestReachesWatchThreshold(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		duration int64
		want     bool
	}{
		{"exactly 75 percent", 75, 100, true},
		{"just below", 74, 100, false},
		{"above", 76, 100, true},
		{"past the end", 150, 100, true},
		{"odd duration below", 2, 3, false},
		{"odd duration at threshold", 3, 4, true},
		{"unknown duration", 500, 0, false},
		{"negative duration", 10, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReachesWatchThreshold(tt.current, tt.duration))
		})
	}
}

func TestApplyProgress_FirstCrossingAppendsHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	v := &Video{DurationSeconds: 100}

	u := ApplyProgress(v, 76, 100, now)

	assert.True(t, u.IsWatched)
	assert.True(t, u.BecameWatched)
	assert.Equal(t, int64(76), u.WatchProgressSeconds)
	assert.Equal(t, now, *u.LastWatchedAt)
}

func TestApplyProgress_NoRevert(t *testing.T) {
	now := time.Now()
	v := &Video{DurationSeconds: 100, IsWatched: true, WatchProgressSeconds: 90}

	u := ApplyProgress(v, 10, 100, now)

	assert.True(t, u.IsWatched)
	assert.False(t, u.BecameWatched)
	assert.Equal(t, int64(10), u.WatchProgressSeconds)
}

func TestApplyProgress_BackfillsDuration(t *testing.T) {
	v := &Video{}

	u := ApplyProgress(v, 30, 120, time.Now())

	assert.Equal(t, int64(120), u.DurationSeconds)
	assert.False(t, u.IsWatched)
}

func TestApplyProgress_FallsBackToStoredDuration(t *testing.T) {
	v := &Video{DurationSeconds: 40}

	u := ApplyProgress(v, 30, 0, time.Now())

	assert.True(t, u.IsWatched)
	assert.Equal(t, int64(40), u.DurationSeconds)
}

func TestApplyManual(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	on := ApplyManual(&Video{DurationSeconds: 300, WatchProgressSeconds: 12}, true, now)
	assert.True(t, on.IsWatched)
	assert.True(t, on.BecameWatched)
	assert.Equal(t, int64(300), on.WatchProgressSeconds)
	assert.Equal(t, now, *on.LastWatchedAt)

	off := ApplyManual(&Video{DurationSeconds: 300, IsWatched: true, WatchProgressSeconds: 300, LastWatchedAt: &earlier}, false, now)
	assert.False(t, off.IsWatched)
	assert.False(t, off.BecameWatched)
	assert.Zero(t, off.WatchProgressSeconds)
	assert.Equal(t, earlier, *off.LastWatchedAt)
}

func TestVideoState(t *testing.T) {
	assert.Equal(t, Unstarted, (&Video{}).State())
	assert.Equal(t, InProgress, (&Video{WatchProgressSeconds: 5}).State())
	assert.Equal(t, Watched, (&Video{IsWatched: true}).State())
	assert.Equal(t, "in_progress", InProgress.String())
}

func TestParseWatchTarget(t *testing.T) {
	target, ok := ParseWatchTarget("unwatched")
	assert.True(t, ok)
	assert.Equal(t, MarkUnwatched, target)

	_, ok = ParseWatchTarget("maybe")
	assert.False(t, ok)
}

func TestApplyProgress_ThresholdProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.Int64Range(1, 100_000).Draw(t, "duration")
		progress := rapid.Int64Range(0, 2*duration).Draw(t, "progress")

		u := ApplyProgress(&Video{DurationSeconds: duration}, progress, duration, time.Now())

		want := float64(progress) >= 0.75*float64(duration)
		if u.IsWatched != want {
			t.Fatalf("progress %d of %d: watched = %v, want %v", progress, duration, u.IsWatched, want)
		}
	})
}

func TestApplyProgress_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.Int64Range(1, 100_000).Draw(t, "duration")
		steps := rapid.SliceOfN(rapid.Int64Range(0, 2*duration), 1, 20).Draw(t, "steps")

		v := &Video{DurationSeconds: duration}
		seenWatched := false
		for _, p := range steps {
			u := ApplyProgress(v, p, duration, time.Now())
			if seenWatched && !u.IsWatched {
				t.Fatalf("reverted to unwatched at progress %d", p)
			}
			seenWatched = u.IsWatched
			v.IsWatched = u.IsWatched
			v.WatchProgressSeconds = u.WatchProgressSeconds
		}
	})
}
