// Package main provides the entry point for the VidShelf core service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vidshelfapp/vidshelf-core/internal/di"
	"github.com/vidshelfapp/vidshelf-core/internal/di/providers"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Create DI container
	injector := di.NewContainer()

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start VidShelf: %v\n", err)
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := do.MustInvoke[*providers.SSEManagerHandle](injector)
	indexer := do.MustInvoke[*scanner.Indexer](injector)
	fileWatcher := do.MustInvoke[*providers.FileWatcherHandle](injector)
	server := do.MustInvoke[*providers.HTTPServerHandle](injector)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events.Start(gctx)
		return nil
	})
	g.Go(func() error {
		indexer.Run(gctx)
		return nil
	})
	if fileWatcher.Watcher != nil {
		g.Go(func() error {
			return fileWatcher.Run(gctx)
		})
	}
	g.Go(func() error {
		log.Info("API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	providers.QueueLibraryFolders(gctx, injector)

	<-gctx.Done()
	log.Info("Shutting down VidShelf gracefully...")

	// The DI container shuts services down in reverse dependency order,
	// which stops the listener before the database closes.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error", "error", err)
		return 1
	}
	log.Info("Goodbye")
	return 0
}
