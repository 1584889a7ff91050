package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
	"github.com/vidshelfapp/vidshelf-core/internal/store/sqlite"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store *sqlite.Store
	clock *clockwork.FakeClock
	fs    afero.Fs
	svc   *BackupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testEpoch)
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), discardLogger(), sqlite.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fs := afero.NewMemMapFs()
	return &fixture{
		store: st,
		clock: clock,
		fs:    fs,
		svc:   NewBackupService(st, fs, "/data/backups", clock, discardLogger()),
	}
}

// seed builds one folder with two videos sharing one tag, the first watched.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	icon := "🎞"
	_, _, err := f.store.AddFolder(ctx, "/Lib", &icon)
	require.NoError(t, err)

	thumb := "/thumbs/a.jpg"
	a, err := f.store.UpsertVideo(ctx, &domain.VideoInput{
		FilePath:        "/Lib/a.mp4",
		Title:           "A",
		DurationSeconds: 100,
		ThumbnailPath:   &thumb,
		Width:           1920,
		Height:          1080,
		Codec:           "h264",
	}, store.PreserveWatchState)
	require.NoError(t, err)
	b, err := f.store.UpsertVideo(ctx, &domain.VideoInput{
		FilePath:        "/Lib/b.mkv",
		Title:           "B",
		DurationSeconds: 50,
	}, store.PreserveWatchState)
	require.NoError(t, err)

	now := f.clock.Now()
	_, err = f.store.SaveWatchState(ctx, a.ID, domain.ApplyManual(a, true, now))
	require.NoError(t, err)

	tag, _, err := f.store.GetOrCreateTag(ctx, "Family")
	require.NoError(t, err)
	require.NoError(t, f.store.AddTagToVideo(ctx, a.ID, tag.ID))
	require.NoError(t, f.store.AddTagToVideo(ctx, b.ID, tag.ID))
}

func (f *fixture) export(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := f.svc.WriteSnapshot(context.Background(), &buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestWriteSnapshot_Format(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(f.export(t), &raw))
	for _, key := range []string{"version", "exportDate", "videos", "tags", "videoTags", "libraryFolders"} {
		assert.Contains(t, raw, key)
	}
	assert.NotContains(t, raw, "watchHistory")

	doc, err := Decode(bytes.NewReader(f.export(t)))
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, doc.Version)
	assert.True(t, doc.ExportDate.Equal(testEpoch))
	assert.Equal(t, Counts{Videos: 2, Tags: 1, VideoTags: 2, Folders: 1}, doc.Counts())
}

func TestImport_IntoEmptyStore(t *testing.T) {
	src := newFixture(t)
	src.seed(t)
	data := src.export(t)

	dst := newFixture(t)
	result, err := dst.svc.Import(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Counts{Videos: 2, Tags: 1, VideoTags: 2, Folders: 1}, result.Counts)

	stats, err := dst.store.LibraryStats(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalVideos)
	assert.Equal(t, 1, stats.TotalTags)
	assert.Equal(t, 1, stats.TotalFolders)
	assert.Equal(t, 1, stats.WatchedVideos)
}

func TestImport_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	before, err := f.store.ExportSnapshot(ctx)
	require.NoError(t, err)
	statsBefore, err := f.store.LibraryStats(ctx, true)
	require.NoError(t, err)

	data := f.export(t)

	// Drift the catalog so the import has something to undo.
	_, err = f.store.UpsertVideo(ctx, &domain.VideoInput{FilePath: "/Lib/new.mp4", Title: "New"}, store.PreserveWatchState)
	require.NoError(t, err)
	_, err = f.store.DeleteAllTags(ctx)
	require.NoError(t, err)

	_, err = f.svc.Import(ctx, bytes.NewReader(data))
	require.NoError(t, err)

	after, err := f.store.ExportSnapshot(ctx)
	require.NoError(t, err)
	statsAfter, err := f.store.LibraryStats(ctx, true)
	require.NoError(t, err)

	assert.Equal(t, before, after)
	assert.Equal(t, statsBefore, statsAfter)
}

func TestImport_ClearsHistory(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	v, err := f.store.GetVideoByPath(ctx, "/Lib/a.mp4")
	require.NoError(t, err)
	history, err := f.store.ListWatchHistory(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = f.svc.Import(ctx, bytes.NewReader(f.export(t)))
	require.NoError(t, err)

	history, err = f.store.ListWatchHistory(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestImport_RejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing videos", `{"version":1,"tags":[],"videoTags":[],"libraryFolders":[]}`},
		{"missing libraryFolders", `{"version":1,"videos":[],"tags":[],"videoTags":[]}`},
		{"null tags", `{"version":1,"videos":[],"tags":null,"videoTags":[],"libraryFolders":[]}`},
		{"newer version", `{"version":"2.0","videos":[],"tags":[],"videoTags":[],"libraryFolders":[]}`},
		{"newer numeric version", `{"version":99,"videos":[],"tags":[],"videoTags":[],"libraryFolders":[]}`},
		{"unparsable version", `{"version":"one","videos":[],"tags":[],"videoTags":[],"libraryFolders":[]}`},
		{"video without path", `{"version":1,"videos":[{"id":1}],"tags":[],"videoTags":[],"libraryFolders":[]}`},
		{"not json", `videos, tags`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t)

			_, err := f.svc.Import(context.Background(), strings.NewReader(tt.body))
			assert.ErrorIs(t, err, domainerrors.ErrImportFormat)

			stats, err := f.store.LibraryStats(context.Background(), false)
			require.NoError(t, err)
			assert.Equal(t, 2, stats.TotalVideos, "catalog untouched")
		})
	}
}

func TestDecode_Versions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Version
	}{
		{"string", `"1.0"`, "1.0"},
		{"major only", `"1"`, "1"},
		{"older", `"0.9"`, "0.9"},
		{"legacy number", `1`, "1"},
		{"absent", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"version":` + tt.raw + `,"exportDate":"2026-01-01T00:00:00Z","videos":[],"tags":[],"videoTags":[],"libraryFolders":[]}`
			doc, err := Decode(strings.NewReader(body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Version)
		})
	}
}

func TestWriteSnapshot_VersionIsString(t *testing.T) {
	f := newFixture(t)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(f.export(t), &raw))
	assert.Equal(t, string(FormatVersion), raw["version"])
}

func TestImport_EmptyArraysClearCatalog(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	body := `{"version":"1.0","exportDate":"2026-01-01T00:00:00Z","videos":[],"tags":[],"videoTags":[],"libraryFolders":[]}`
	_, err := f.svc.Import(context.Background(), strings.NewReader(body))
	require.NoError(t, err)

	stats, err := f.store.LibraryStats(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, domain.LibraryStats{}, *stats)
}

func TestBackupFiles(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	backups, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, backups, "missing directory lists nothing")

	first, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backup-2026-03-01-120000", first.ID)
	assert.Positive(t, first.Size)
	require.NotNil(t, first.Counts)
	assert.Equal(t, 2, first.Counts.Videos)

	second, err := f.svc.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backup-2026-03-01-120000-2", second.ID)

	backups, err = f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)

	_, err = f.store.DeleteAllTags(ctx)
	require.NoError(t, err)
	result, err := f.svc.Restore(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Counts.Tags)
	tags, err := f.store.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	require.NoError(t, f.svc.Delete(ctx, first.ID))
	_, err = f.svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrBackupNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, first.ID), ErrBackupNotFound)

	_, err = f.svc.Get(ctx, "../secrets")
	assert.ErrorIs(t, err, ErrInvalidBackupID)
}
