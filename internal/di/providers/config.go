package providers

import (
	"github.com/samber/do/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	logCfg := logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	}
	if cfg.Logger.File != "" {
		logCfg.File = &logger.FileConfig{Path: cfg.Logger.File}
	}
	log := logger.New(logCfg)

	log.Info("Starting VidShelf",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.Data.Path,
		"addr", cfg.Server.Addr,
	)

	return log, nil
}
