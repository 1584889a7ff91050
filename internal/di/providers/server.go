package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/api"
	"github.com/vidshelfapp/vidshelf-core/internal/backup"
	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/media/images"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
)

// HTTPServerHandle wraps the API and its listener with shutdown capability.
type HTTPServerHandle struct {
	*http.Server
	API *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.API.Close()
	return err
}

// ProvideHTTPServer provides the local API server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	db := do.MustInvoke[*StoreHandle](i)
	events := do.MustInvoke[*SSEManagerHandle](i)
	tools := do.MustInvoke[media.Availability](i)

	services := &api.Services{
		Library:    do.MustInvoke[*service.LibraryService](i),
		Video:      do.MustInvoke[*service.VideoService](i),
		Watch:      do.MustInvoke[*service.WatchService](i),
		Tag:        do.MustInvoke[*service.TagService](i),
		Stats:      do.MustInvoke[*service.StatsService](i),
		Membership: do.MustInvoke[*service.MembershipService](i),
		Search:     do.MustInvoke[*service.SearchService](i),
		Backup:     do.MustInvoke[*backup.BackupService](i),
		Indexer:    do.MustInvoke[*scanner.Indexer](i),
		Thumbnails: do.MustInvoke[*images.Storage](i),
	}

	srv := api.NewServer(db.Store, services, api.Environment{Config: cfg, Tools: tools}, events.Manager, log.Logger)

	return &HTTPServerHandle{
		Server: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      srv,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
		API: srv,
	}, nil
}
