package providers

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/media/images"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/sse"
)

// SSEManagerHandle wraps the SSE manager with shutdown capability.
type SSEManagerHandle struct {
	*sse.Manager
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideClock provides the wall clock.
func ProvideClock(i do.Injector) (clockwork.Clock, error) {
	return clockwork.NewRealClock(), nil
}

// ProvideSSEManager provides the server-sent events manager.
// The caller starts it with Start.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return &SSEManagerHandle{Manager: sse.NewManager(log.Logger)}, nil
}

// ProvideWalker provides the library filesystem walker.
func ProvideWalker(i do.Injector) (*scanner.Walker, error) {
	cfg := do.MustInvoke[*config.Config](i)
	fs := do.MustInvoke[afero.Fs](i)
	log := do.MustInvoke[*logger.Logger](i)
	return scanner.NewWalker(fs, log.Logger, scanner.SkipHidden(cfg.Scan.SkipHidden)), nil
}

// ProvideIndexer provides the background indexer with progress reported
// over SSE.
func ProvideIndexer(i do.Injector) (*scanner.Indexer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*StoreHandle](i)
	fs := do.MustInvoke[afero.Fs](i)
	walker := do.MustInvoke[*scanner.Walker](i)
	ffmpeg := do.MustInvoke[*media.FFmpeg](i)
	thumbs := do.MustInvoke[*images.Storage](i)
	tools := do.MustInvoke[media.Availability](i)
	clock := do.MustInvoke[clockwork.Clock](i)
	events := do.MustInvoke[*SSEManagerHandle](i)

	ix := scanner.NewIndexer(scanner.IndexerDeps{
		Store:      db.Store,
		Walker:     walker,
		Prober:     ffmpeg,
		Thumbnails: ffmpeg,
		Paths:      thumbs,
		BlurHash:   images.NewBlurHasher(fs),
		Tools:      tools,
		Clock:      clock,
		Logger:     log.Logger,
	})
	ix.SetListener(sse.NewIndexBridge(events.Manager, cfg.Events.ProgressRate))

	if !tools.Ready() {
		log.Warn("Indexing disabled until ffprobe and ffmpeg are installed")
	}
	return ix, nil
}
