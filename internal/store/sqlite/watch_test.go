package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

func TestSaveWatchState_AppendsHistoryOnTransition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	v := addVideo(t, s, "/Lib/clip.mp4", 100)

	got, err := s.SaveWatchState(ctx, v.ID, domain.ApplyProgress(v, 76, 100, testEpoch))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !got.IsWatched || got.WatchProgressSeconds != 76 {
		t.Errorf("unexpected state: %+v", got)
	}

	// Further progress on a watched video does not add history.
	if _, err := s.SaveWatchState(ctx, v.ID, domain.ApplyProgress(got, 90, 100, testEpoch)); err != nil {
		t.Fatalf("save again: %v", err)
	}

	history, err := s.ListWatchHistory(ctx, v.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}
	if history[0].WatchedSeconds != 76 || !history[0].WatchedAt.Equal(testEpoch) {
		t.Errorf("unexpected history row: %+v", history[0])
	}
}

func TestSaveWatchState_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveWatchState(context.Background(), 7, domain.WatchUpdate{})
	if !errors.Is(err, store.ErrVideoNotFound) {
		t.Errorf("expected ErrVideoNotFound, got %v", err)
	}
}

func TestMarkFolder_IdempotentWatched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := addVideo(t, s, "/Lib/a.mp4", 60)
	addVideo(t, s, "/Lib/b.mp4", 60)
	addVideo(t, s, "/Lib/sub/c.mp4", 60)
	addVideo(t, s, "/Lib2/d.mp4", 60)
	if _, err := s.SaveWatchState(ctx, a.ID, domain.ApplyManual(a, true, testEpoch)); err != nil {
		t.Fatalf("watch a: %v", err)
	}

	n, err := s.MarkFolder(ctx, "/Lib", domain.MarkWatched, testEpoch)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if n != 2 {
		t.Errorf("first call affected %d, want 2", n)
	}

	n, err = s.MarkFolder(ctx, "/Lib", domain.MarkWatched, testEpoch)
	if err != nil {
		t.Fatalf("mark again: %v", err)
	}
	if n != 0 {
		t.Errorf("second call affected %d, want 0", n)
	}

	total, watched, err := s.FolderCounts(ctx, "/Lib")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 3 || watched != 3 {
		t.Errorf("counts = %d/%d, want 3/3", watched, total)
	}

	other, _ := s.GetVideoByPath(ctx, "/Lib2/d.mp4")
	if other.IsWatched {
		t.Error("sibling folder /Lib2 must not be touched")
	}

	var history int
	s.db.QueryRow(`SELECT COUNT(*) FROM watch_history`).Scan(&history)
	if history != 3 {
		t.Errorf("expected 3 history rows (1 manual + 2 bulk), got %d", history)
	}
}

func TestMarkFolder_Unwatched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := addVideo(t, s, "/Lib/a.mp4", 60)
	b := addVideo(t, s, "/Lib/b.mp4", 60)
	addVideo(t, s, "/Lib/c.mp4", 60)
	s.SaveWatchState(ctx, a.ID, domain.ApplyManual(a, true, testEpoch))
	s.SaveWatchState(ctx, b.ID, domain.ApplyProgress(b, 10, 60, testEpoch))

	n, err := s.MarkFolder(ctx, "/Lib", domain.MarkUnwatched, testEpoch)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if n != 1 {
		t.Errorf("affected %d, want 1 (only the watched video)", n)
	}

	got, _ := s.GetVideo(ctx, a.ID)
	if got.State() != domain.Unstarted {
		t.Errorf("a is %s, want unstarted", got.State())
	}
	got, _ = s.GetVideo(ctx, b.ID)
	if got.State() != domain.InProgress || got.WatchProgressSeconds != 10 {
		t.Errorf("in-progress video changed: %s at %ds", got.State(), got.WatchProgressSeconds)
	}
}

func TestMarkFolder_UnwatchedSkipsInProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := addVideo(t, s, "/Lib/a.mp4", 100)
	s.SaveWatchState(ctx, v.ID, domain.ApplyProgress(v, 10, 100, testEpoch))

	n, err := s.MarkFolder(ctx, "/Lib", domain.MarkUnwatched, testEpoch)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if n != 0 {
		t.Errorf("affected %d, want 0", n)
	}
}

func TestMarkFolder_WatchedKeepsProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fresh := addVideo(t, s, "/Lib/a.mp4", 100)
	partial := addVideo(t, s, "/Lib/b.mp4", 100)
	s.SaveWatchState(ctx, partial.ID, domain.ApplyProgress(partial, 30, 100, testEpoch))

	n, err := s.MarkFolder(ctx, "/Lib", domain.MarkWatched, testEpoch)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if n != 2 {
		t.Errorf("affected %d, want 2", n)
	}

	for id, want := range map[int64]int64{fresh.ID: 0, partial.ID: 30} {
		got, _ := s.GetVideo(ctx, id)
		if !got.IsWatched {
			t.Errorf("%s not watched", got.FilePath)
		}
		if got.WatchProgressSeconds != want {
			t.Errorf("%s progress = %d, want %d", got.FilePath, got.WatchProgressSeconds, want)
		}
	}
}

func TestResetLibrary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := addVideo(t, s, "/Lib/a.mp4", 60)
	s.SaveWatchState(ctx, v.ID, domain.ApplyManual(v, true, testEpoch))
	tag, _, _ := s.GetOrCreateTag(ctx, "keep")
	s.AddTagToVideo(ctx, v.ID, tag.ID)

	if err := s.ResetLibrary(ctx, domain.ResetWatchState); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, _ := s.GetVideo(ctx, v.ID)
	if got.IsWatched || got.WatchProgressSeconds != 0 || got.LastWatchedAt != nil {
		t.Errorf("watch state not reset: %+v", got)
	}
	history, _ := s.ListWatchHistory(ctx, v.ID)
	if len(history) != 0 {
		t.Errorf("history not cleared: %d", len(history))
	}
	tags, _ := s.ListVideoTags(ctx, v.ID)
	if len(tags) != 1 {
		t.Errorf("watch reset must keep tags, got %d", len(tags))
	}

	if err := s.ResetLibrary(ctx, domain.ResetEverything); err != nil {
		t.Fatalf("reset everything: %v", err)
	}
	tags, _ = s.ListVideoTags(ctx, v.ID)
	if len(tags) != 0 {
		t.Errorf("full reset must drop tag links, got %d", len(tags))
	}
	if _, err := s.GetTag(ctx, tag.ID); err != nil {
		t.Errorf("full reset keeps the tag rows: %v", err)
	}
}
