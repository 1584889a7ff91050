package providers

import (
	"github.com/samber/do/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the catalog database and applies migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.DatabasePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DatabasePath)
	return &StoreHandle{Store: db}, nil
}
