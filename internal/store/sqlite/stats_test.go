package sqlite

import (
	"context"
	"testing"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
)

func TestOrphans_DetachedFolder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lib := addFolder(t, s, "/Lib")
	addFolder(t, s, "/Keep")
	addVideo(t, s, "/Lib/a.mp4", 30)
	addVideo(t, s, "/Lib/b.mp4", 30)
	addVideo(t, s, "/Keep/c.mp4", 30)

	orphans, err := s.ListOrphanedVideos(ctx)
	if err != nil {
		t.Fatalf("list orphans: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("expected no orphans yet, got %d", len(orphans))
	}

	if err := s.DetachFolder(ctx, lib.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}

	orphans, err = s.ListOrphanedVideos(ctx)
	if err != nil {
		t.Fatalf("list orphans: %v", err)
	}
	if len(orphans) != 2 || orphans[0].FilePath != "/Lib/a.mp4" || orphans[1].FilePath != "/Lib/b.mp4" {
		t.Fatalf("unexpected orphans: %v", orphans)
	}

	n, err := s.DeleteOrphanedVideos(ctx)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if n != 2 {
		t.Errorf("cleaned %d, want 2", n)
	}

	st, err := s.LibraryStats(ctx, false)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalVideos != 1 || st.TotalFolders != 1 {
		t.Errorf("unexpected stats after cleanup: %+v", st)
	}

	orphans, _ = s.ListOrphanedVideos(ctx)
	if len(orphans) != 0 {
		t.Errorf("orphans reappeared: %d", len(orphans))
	}
}

func TestOrphans_NestedFolderStillCovers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	outer := addFolder(t, s, "/Lib")
	addFolder(t, s, "/Lib/Sub")
	addVideo(t, s, "/Lib/Sub/a.mp4", 0)
	addVideo(t, s, "/Lib/b.mp4", 0)
	addVideo(t, s, "/Library/c.mp4", 0)

	if err := s.DetachFolder(ctx, outer.ID); err != nil {
		t.Fatalf("detach: %v", err)
	}
	orphans, _ := s.ListOrphanedVideos(ctx)
	if len(orphans) != 2 {
		t.Fatalf("expected 2 orphans, got %d", len(orphans))
	}
	for _, o := range orphans {
		if o.FilePath == "/Lib/Sub/a.mp4" {
			t.Errorf("%s is covered by /Lib/Sub", o.FilePath)
		}
	}
}

func TestLibraryStats_ExcludeOrphans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	addFolder(t, s, "/Lib")
	a := addVideo(t, s, "/Lib/a.mp4", 100)
	addVideo(t, s, "/Lib/b.mp4", 50)
	stray := addVideo(t, s, "/Elsewhere/c.mp4", 25)
	s.SaveWatchState(ctx, a.ID, domain.ApplyManual(a, true, testEpoch))
	s.SaveWatchState(ctx, stray.ID, domain.ApplyManual(stray, true, testEpoch))
	s.GetOrCreateTag(ctx, "one")

	raw, err := s.LibraryStats(ctx, false)
	if err != nil {
		t.Fatalf("raw stats: %v", err)
	}
	want := domain.LibraryStats{TotalVideos: 3, TotalTags: 1, TotalFolders: 1, WatchedVideos: 2, TotalDuration: 175}
	if *raw != want {
		t.Errorf("raw = %+v, want %+v", *raw, want)
	}

	corrected, err := s.LibraryStats(ctx, true)
	if err != nil {
		t.Fatalf("corrected stats: %v", err)
	}
	want = domain.LibraryStats{TotalVideos: 2, TotalTags: 1, TotalFolders: 1, WatchedVideos: 1, TotalDuration: 150}
	if *corrected != want {
		t.Errorf("corrected = %+v, want %+v", *corrected, want)
	}
}

func TestFolderCounts_Empty(t *testing.T) {
	s := newTestStore(t)
	total, watched, err := s.FolderCounts(context.Background(), "/Nothing")
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 0 || watched != 0 {
		t.Errorf("counts = %d/%d", watched, total)
	}
}
