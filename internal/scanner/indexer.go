package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// ErrIndexingInProgress is returned when a pass is already running.
var ErrIndexingInProgress = domainerrors.Conflict("indexing already in progress")

// queueSize bounds how many folders may wait for the background worker.
const queueSize = 64

// Prober reads video metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*media.ProbeResult, error)
}

// Thumbnailer renders a still frame of a video.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, videoPath string, offset time.Duration, outPath string) error
}

// ThumbnailPaths maps a video to its thumbnail file.
type ThumbnailPaths interface {
	PathFor(videoPath string) string
}

// BlurHasher computes a placeholder hash of an image.
type BlurHasher interface {
	Compute(path string) (string, error)
}

// IndexerDeps groups the collaborators of an Indexer.
type IndexerDeps struct {
	Store      store.Store
	Walker     *Walker
	Prober     Prober
	Thumbnails Thumbnailer
	Paths      ThumbnailPaths
	BlurHash   BlurHasher // optional
	Tools      media.Availability
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// Indexer adds new video files under library folders to the catalog.
// At most one pass runs at a time.
type Indexer struct {
	deps     IndexerDeps
	running  atomic.Bool
	listener Listener

	queue   chan string
	mu      sync.Mutex
	pending map[string]bool
}

// NewIndexer creates an indexer.
func NewIndexer(deps IndexerDeps) *Indexer {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Indexer{
		deps:    deps,
		queue:   make(chan string, queueSize),
		pending: make(map[string]bool),
	}
}

// SetListener installs the receiver of progress and completion events.
// Must be called before Run.
func (ix *Indexer) SetListener(l Listener) {
	ix.listener = l
}

// Running reports whether a pass is in progress.
func (ix *Indexer) Running() bool {
	return ix.running.Load()
}

// IndexFolder indexes every video file under folder that is not yet in the
// catalog. Files that fail to probe or render are logged and skipped.
func (ix *Indexer) IndexFolder(ctx context.Context, folder string, onProgress func(IndexProgress)) (*IndexResult, error) {
	if !ix.deps.Tools.Ready() {
		return nil, domainerrors.ToolUnavailable("ffprobe/ffmpeg")
	}
	if !ix.running.CompareAndSwap(false, true) {
		return nil, ErrIndexingInProgress
	}
	defer ix.running.Store(false)

	log := ix.deps.Logger.With("folder", folder)
	result := &IndexResult{Folder: folder, StartedAt: ix.deps.Clock.Now()}

	var files []Entry
	err := ix.deps.Walker.WalkVideos(ctx, folder, func(e Entry) error {
		files = append(files, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Total = len(files)
	log.Info("indexing started", "videos", len(files))

	tracker := newProgressTracker(folder, len(files), onProgress)
	for _, f := range files {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}
		tracker.step(f.Path, ix.indexFile(ctx, f, log))
	}

	p := tracker.get()
	result.Indexed, result.Skipped, result.Failed = p.Indexed, p.Skipped, p.Failed
	result.FinishedAt = ix.deps.Clock.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	log.Info("indexing finished",
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"cancelled", result.Cancelled,
		"duration", result.Duration,
	)
	return result, nil
}

func (ix *Indexer) indexFile(ctx context.Context, f Entry, log *slog.Logger) outcome {
	_, err := ix.deps.Store.GetVideoByPath(ctx, f.Path)
	if err == nil {
		return outcomeSkipped
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Warn("lookup failed", "path", f.Path, "error", err)
		return outcomeFailed
	}

	probe, err := ix.deps.Prober.Probe(ctx, f.Path)
	if err != nil {
		log.Warn("probe failed, skipping file", "path", f.Path, "error", err)
		return outcomeFailed
	}

	thumbPath := ix.deps.Paths.PathFor(f.Path)
	offset := media.ThumbnailOffset(probe.DurationSeconds)
	if err := ix.deps.Thumbnails.Thumbnail(ctx, f.Path, offset, thumbPath); err != nil {
		log.Warn("thumbnail failed, skipping file", "path", f.Path, "error", err)
		return outcomeFailed
	}

	var hash string
	if ix.deps.BlurHash != nil {
		hash, err = ix.deps.BlurHash.Compute(thumbPath)
		if err != nil {
			log.Debug("blurhash failed", "path", thumbPath, "error", err)
		}
	}

	size := probe.FileSize
	if size == 0 {
		size = f.Size
	}
	_, err = ix.deps.Store.UpsertVideo(ctx, &domain.VideoInput{
		FilePath:          f.Path,
		Title:             normalize.TitleStem(f.Name),
		DurationSeconds:   probe.DurationSeconds,
		ThumbnailPath:     &thumbPath,
		ThumbnailBlurHash: hash,
		Width:             probe.Width,
		Height:            probe.Height,
		Codec:             probe.Codec,
		FileSize:          size,
	}, store.PreserveWatchState)
	if err != nil {
		log.Warn("save failed", "path", f.Path, "error", err)
		return outcomeFailed
	}
	return outcomeIndexed
}

// Enqueue asks the background worker to index folder. Folders already
// waiting are not queued twice. Returns false when the queue is full.
func (ix *Indexer) Enqueue(folder string) bool {
	key := normalize.Path(folder)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.pending[key] {
		return true
	}
	select {
	case ix.queue <- folder:
		ix.pending[key] = true
		return true
	default:
		ix.deps.Logger.Warn("index queue full, dropping folder", "folder", folder)
		return false
	}
}

// Run drains the queue one folder at a time until ctx is done.
func (ix *Indexer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case folder := <-ix.queue:
			ix.mu.Lock()
			delete(ix.pending, normalize.Path(folder))
			ix.mu.Unlock()
			ix.runQueued(ctx, folder)
		}
	}
}

func (ix *Indexer) runQueued(ctx context.Context, folder string) {
	var onProgress func(IndexProgress)
	if ix.listener != nil {
		onProgress = ix.listener.IndexProgress
	}

	result, err := ix.IndexFolder(ctx, folder, onProgress)
	if err != nil {
		if errors.Is(err, domainerrors.ErrToolUnavailable) {
			ix.deps.Logger.Debug("indexing skipped, tools unavailable", "folder", folder)
		} else {
			ix.deps.Logger.Error("indexing failed", "folder", folder, "error", err)
		}
		return
	}
	if ix.listener != nil {
		ix.listener.IndexComplete(result)
	}
}
