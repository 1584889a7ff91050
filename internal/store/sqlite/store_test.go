package sqlite

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jonboulle/clockwork"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, _ := newTestStoreWithClock(t)
	return s
}

func newTestStoreWithClock(t *testing.T) (*Store, *clockwork.FakeClock) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	clock := clockwork.NewFakeClockAt(testEpoch)
	s, err := Open(dbPath, logger, WithClock(clock))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// addVideo upserts a minimal video for tests.
func addVideo(t *testing.T, s *Store, path string, duration int64) *domain.Video {
	t.Helper()
	v, err := s.UpsertVideo(context.Background(), &domain.VideoInput{
		FilePath:        path,
		Title:           filepath.Base(path),
		DurationSeconds: duration,
	}, store.PreserveWatchState)
	if err != nil {
		t.Fatalf("upsert %s: %v", path, err)
	}
	return v
}

func addFolder(t *testing.T, s *Store, path string) *domain.LibraryFolder {
	t.Helper()
	f, _, err := s.AddFolder(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("add folder %s: %v", path, err)
	}
	return f
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	// Verify WAL mode is set.
	var journalMode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	if err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	// Verify foreign keys are enabled.
	var fk int
	err = s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	// Verify tables exist.
	for _, table := range []string{"videos", "tags", "video_tags", "library_folders", "watch_history"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	version, err := schemaVersion(s.db)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 3 {
		t.Errorf("expected schema version 3, got %d", version)
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	addVideo(t, s, "/Lib/a.mp4", 10)
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open must not re-run applied migrations.
	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	if _, err := s2.GetVideoByPath(context.Background(), "/Lib/a.mp4"); err != nil {
		t.Fatalf("video lost across reopen: %v", err)
	}
	if err := s2.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestResetLibrary_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := New(db, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE videos SET").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM watch_history").WillReturnError(boom)
	mock.ExpectRollback()

	err = s.ResetLibrary(context.Background(), domain.ResetWatchState)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped disk error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteAllTags_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	s := New(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM video_tags").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("DELETE FROM tags").WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	if _, err := s.DeleteAllTags(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
