package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
	"github.com/vidshelfapp/vidshelf-core/internal/store/sqlite"
	"github.com/vidshelfapp/vidshelf-core/internal/validation"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeQueue struct {
	mu      sync.Mutex
	folders []string
}

func (q *fakeQueue) Enqueue(folder string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.folders = append(q.folders, folder)
	return true
}

type fixture struct {
	store *sqlite.Store
	clock *clockwork.FakeClock
	fs    afero.Fs
	queue *fakeQueue

	watch      *WatchService
	membership *MembershipService
	stats      *StatsService
	tags       *TagService
	library    *LibraryService
	videos     *VideoService
	search     *SearchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testEpoch)
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discardLogger(), sqlite.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fs := afero.NewMemMapFs()
	logger := discardLogger()
	walker := scanner.NewWalker(fs, logger)
	v := validation.New()

	f := &fixture{store: st, clock: clock, fs: fs, queue: &fakeQueue{}}
	f.watch = NewWatchService(st, clock, logger)
	f.membership = NewMembershipService(st, logger)
	f.stats = NewStatsService(st, f.membership, logger)
	f.tags = NewTagService(st, logger)
	f.library = NewLibraryService(st, v, f.watch, f.tags, f.queue, logger)
	f.videos = NewVideoService(st, walker, v, logger)
	f.search = NewSearchService(st, walker, logger)
	return f
}

func (f *fixture) addFolder(t *testing.T, path string) *domain.LibraryFolder {
	t.Helper()
	folder, _, err := f.library.AddFolder(context.Background(), AddFolderRequest{Path: path})
	require.NoError(t, err)
	return folder
}

func (f *fixture) addVideo(t *testing.T, path string, duration int64) *domain.Video {
	t.Helper()
	v, err := f.store.UpsertVideo(context.Background(), &domain.VideoInput{
		FilePath:        path,
		Title:           filepath.Base(path),
		DurationSeconds: duration,
	}, store.PreserveWatchState)
	require.NoError(t, err)
	return v
}

func (f *fixture) writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(f.fs, path, []byte(content), 0o644))
}
