package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

func TestGetOrCreateTag_CaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.GetOrCreateTag(ctx, "  Family   Trips ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created || first.Name != "Family Trips" {
		t.Errorf("unexpected: created=%v name=%q", created, first.Name)
	}

	second, created, err := s.GetOrCreateTag(ctx, "family trips")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("expected existing tag %d, got %d (created=%v)", first.ID, second.ID, created)
	}

	if _, _, err := s.GetOrCreateTag(ctx, "   "); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("blank name: expected ErrInvalidInput, got %v", err)
	}
}

func TestListTags_CountsAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := addVideo(t, s, "/Lib/a.mp4", 0)
	b := addVideo(t, s, "/Lib/b.mp4", 0)
	zoo, _, _ := s.GetOrCreateTag(ctx, "zoo")
	beach, _, _ := s.GetOrCreateTag(ctx, "Beach")
	s.AddTagToVideo(ctx, a.ID, beach.ID)
	s.AddTagToVideo(ctx, b.ID, beach.ID)
	s.AddTagToVideo(ctx, b.ID, beach.ID) // duplicate link is ignored

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}
	if tags[0].ID != beach.ID || tags[0].VideoCount != 2 {
		t.Errorf("first tag = %+v", tags[0])
	}
	if tags[1].ID != zoo.ID || tags[1].VideoCount != 0 {
		t.Errorf("second tag = %+v", tags[1])
	}
}

func TestRenameTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _, _ := s.GetOrCreateTag(ctx, "alpha")
	s.GetOrCreateTag(ctx, "beta")

	got, err := s.RenameTag(ctx, a.ID, "Alpha One")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Name != "Alpha One" {
		t.Errorf("name = %q", got.Name)
	}

	if _, err := s.RenameTag(ctx, a.ID, "BETA"); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := s.RenameTag(ctx, 999, "gamma"); !errors.Is(err, store.ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}
}

func TestDeleteTagAndBulkRemoval(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := addVideo(t, s, "/Lib/a.mp4", 0)
	w := addVideo(t, s, "/Lib/b.mp4", 0)
	keep, _, _ := s.GetOrCreateTag(ctx, "keep")
	drop, _, _ := s.GetOrCreateTag(ctx, "drop")
	s.AddTagToVideo(ctx, v.ID, keep.ID)
	s.AddTagToVideo(ctx, w.ID, keep.ID)
	s.AddTagToVideo(ctx, v.ID, drop.ID)

	n, err := s.RemoveTagFromAllVideos(ctx, keep.ID)
	if err != nil {
		t.Fatalf("remove from all: %v", err)
	}
	if n != 2 {
		t.Errorf("removed %d links, want 2", n)
	}
	if _, err := s.GetTag(ctx, keep.ID); err != nil {
		t.Errorf("tag should survive: %v", err)
	}

	if err := s.DeleteTag(ctx, drop.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tags, _ := s.ListVideoTags(ctx, v.ID)
	if len(tags) != 0 {
		t.Errorf("expected no tags on video, got %d", len(tags))
	}
	if err := s.DeleteTag(ctx, drop.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err = s.DeleteAllTags(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d tags, want 1", n)
	}
}

func TestAddTagToVideo_MissingSides(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v := addVideo(t, s, "/Lib/a.mp4", 0)
	tag, _, _ := s.GetOrCreateTag(ctx, "x")

	if err := s.AddTagToVideo(ctx, 999, tag.ID); !errors.Is(err, store.ErrVideoNotFound) {
		t.Errorf("missing video: got %v", err)
	}
	if err := s.AddTagToVideo(ctx, v.ID, 999); !errors.Is(err, store.ErrTagNotFound) {
		t.Errorf("missing tag: got %v", err)
	}
}

func TestTagFolderVideos(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := addVideo(t, s, "/Lib/a.mp4", 0)
	addVideo(t, s, "/Lib/sub/b.mp4", 0)
	addVideo(t, s, "/Library/c.mp4", 0)
	tag, _, _ := s.GetOrCreateTag(ctx, "lib")
	s.AddTagToVideo(ctx, a.ID, tag.ID)

	n, err := s.TagFolderVideos(ctx, "/lib", tag.ID)
	if err != nil {
		t.Fatalf("tag folder: %v", err)
	}
	if n != 1 {
		t.Errorf("newly tagged %d, want 1", n)
	}

	got, _ := s.GetTag(ctx, tag.ID)
	if got.VideoCount != 2 {
		t.Errorf("video count = %d, want 2", got.VideoCount)
	}

	if _, err := s.TagFolderVideos(ctx, "/Lib", 999); !errors.Is(err, store.ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound, got %v", err)
	}
}

func TestGetOrCreateTag_FoldsNonASCII(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, created, err := s.GetOrCreateTag(ctx, "Été")
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	again, created, err := s.GetOrCreateTag(ctx, "ÉTÉ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if created || again.ID != first.ID {
		t.Errorf("ÉTÉ created a second tag (id %d, first %d)", again.ID, first.ID)
	}
}
