package scanner

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/media/images"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
	"github.com/vidshelfapp/vidshelf-core/internal/store/sqlite"
)

type fakeProber struct {
	fail map[string]bool
	mu   sync.Mutex
	seen []string
}

func (p *fakeProber) Probe(_ context.Context, path string) (*media.ProbeResult, error) {
	p.mu.Lock()
	p.seen = append(p.seen, path)
	p.mu.Unlock()
	if p.fail[path] {
		return nil, domainerrors.ProbeFailuref("probe %s", path)
	}
	return &media.ProbeResult{DurationSeconds: 120, Width: 1280, Height: 720, Codec: "h264", FileSize: 4096}, nil
}

type fakeThumbnailer struct {
	fs      afero.Fs
	fail    map[string]bool
	offsets []time.Duration
}

func (f *fakeThumbnailer) Thumbnail(_ context.Context, videoPath string, offset time.Duration, outPath string) error {
	if f.fail[videoPath] {
		return domainerrors.ProbeFailuref("thumbnail %s", videoPath)
	}
	f.offsets = append(f.offsets, offset)
	return afero.WriteFile(f.fs, outPath, []byte("jpeg"), 0o644)
}

type fixedHash string

func (h fixedHash) Compute(string) (string, error) { return string(h), nil }

type recordingListener struct {
	mu       sync.Mutex
	progress []IndexProgress
	done     chan *IndexResult
}

func (l *recordingListener) IndexProgress(p IndexProgress) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.progress = append(l.progress, p)
}

func (l *recordingListener) IndexComplete(r *IndexResult) {
	l.done <- r
}

type indexerFixture struct {
	fs     afero.Fs
	store  *sqlite.Store
	prober *fakeProber
	thumbs *fakeThumbnailer
	ix     *Indexer
}

func newIndexerFixture(t *testing.T, tools media.Availability) *indexerFixture {
	t.Helper()
	fs := newTestFs(t)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	storage, err := images.NewStorage(fs, "/thumbs")
	require.NoError(t, err)

	f := &indexerFixture{
		fs:     fs,
		store:  st,
		prober: &fakeProber{fail: map[string]bool{}},
		thumbs: &fakeThumbnailer{fs: fs, fail: map[string]bool{}},
	}
	f.ix = NewIndexer(IndexerDeps{
		Store:      st,
		Walker:     NewWalker(fs, discardLogger()),
		Prober:     f.prober,
		Thumbnails: f.thumbs,
		Paths:      storage,
		BlurHash:   fixedHash("LKO2?U%2Tw=w"),
		Tools:      tools,
		Logger:     discardLogger(),
	})
	return f
}

var allTools = media.Availability{FFprobe: true, FFmpeg: true}

func TestIndexFolder(t *testing.T) {
	f := newIndexerFixture(t, allTools)
	ctx := context.Background()

	var seen []IndexProgress
	result, err := f.ix.IndexFolder(ctx, "/Lib", func(p IndexProgress) { seen = append(seen, p) })
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Indexed)
	assert.Zero(t, result.Failed)

	require.Len(t, seen, 3)
	for i, p := range seen {
		assert.Equal(t, i+1, p.Current)
		assert.Equal(t, 3, p.Total)
	}

	v, err := f.store.GetVideoByPath(ctx, "/Lib/Sub/c.MOV")
	require.NoError(t, err)
	assert.Equal(t, "c", v.Title)
	assert.Equal(t, int64(120), v.DurationSeconds)
	assert.Equal(t, "h264", v.Codec)
	assert.Equal(t, "LKO2?U%2Tw=w", v.ThumbnailBlurHash)
	require.NotNil(t, v.ThumbnailPath)
	ok, _ := afero.Exists(f.fs, *v.ThumbnailPath)
	assert.True(t, ok, "thumbnail written")

	for _, off := range f.thumbs.offsets {
		assert.Equal(t, 10*time.Second, off)
	}
}

func TestIndexFolder_SkipsIndexedAndKeepsWatchState(t *testing.T) {
	f := newIndexerFixture(t, allTools)
	ctx := context.Background()

	existing, err := f.store.UpsertVideo(ctx, &domain.VideoInput{FilePath: "/Lib/a.mp4", Title: "Mine", DurationSeconds: 50}, store.PreserveWatchState)
	require.NoError(t, err)
	_, err = f.store.SaveWatchState(ctx, existing.ID, domain.ApplyManual(existing, true, time.Now()))
	require.NoError(t, err)

	result, err := f.ix.IndexFolder(ctx, "/Lib", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Indexed)
	assert.NotContains(t, f.prober.seen, "/Lib/a.mp4")

	got, err := f.store.GetVideo(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.True(t, got.IsWatched)
}

func TestIndexFolder_FailuresSkipOnlyThatFile(t *testing.T) {
	f := newIndexerFixture(t, allTools)
	ctx := context.Background()
	f.prober.fail["/Lib/a.mp4"] = true
	f.thumbs.fail["/Lib/b.mkv"] = true

	result, err := f.ix.IndexFolder(ctx, "/Lib", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 1, result.Indexed)

	_, err = f.store.GetVideoByPath(ctx, "/Lib/a.mp4")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.GetVideoByPath(ctx, "/Lib/Sub/c.MOV")
	assert.NoError(t, err)
}

func TestIndexFolder_ToolsUnavailable(t *testing.T) {
	f := newIndexerFixture(t, media.Availability{FFprobe: true})

	_, err := f.ix.IndexFolder(context.Background(), "/Lib", nil)
	assert.ErrorIs(t, err, domainerrors.ErrToolUnavailable)
	assert.Empty(t, f.prober.seen)
}

func TestIndexFolder_ReentrancyGuard(t *testing.T) {
	f := newIndexerFixture(t, allTools)

	f.ix.running.Store(true)
	_, err := f.ix.IndexFolder(context.Background(), "/Lib", nil)
	assert.ErrorIs(t, err, ErrIndexingInProgress)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	f.ix.running.Store(false)
	_, err = f.ix.IndexFolder(context.Background(), "/Lib", nil)
	assert.NoError(t, err)
	assert.False(t, f.ix.Running())
}

func TestIndexFolder_Cancelled(t *testing.T) {
	f := newIndexerFixture(t, allTools)
	ctx, cancel := context.WithCancel(context.Background())

	result, err := f.ix.IndexFolder(ctx, "/Lib", func(p IndexProgress) {
		if p.Current == 1 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Indexed)
}

func TestIndexer_EnqueueAndRun(t *testing.T) {
	f := newIndexerFixture(t, allTools)
	l := &recordingListener{done: make(chan *IndexResult, 1)}
	f.ix.SetListener(l)

	assert.True(t, f.ix.Enqueue("/Lib"))
	assert.True(t, f.ix.Enqueue(`/lib/`)) // same folder, not queued twice
	assert.Len(t, f.ix.queue, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go f.ix.Run(ctx)

	select {
	case r := <-l.done:
		assert.Equal(t, 3, r.Indexed)
	case <-time.After(5 * time.Second):
		t.Fatal("indexing did not complete")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.progress, 3)
}
