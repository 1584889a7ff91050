package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/vidshelfapp/vidshelf-core/internal/config"
	"github.com/vidshelfapp/vidshelf-core/internal/logger"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/media/images"
)

// ProvideFilesystem provides the operating system filesystem.
func ProvideFilesystem(i do.Injector) (afero.Fs, error) {
	return afero.NewOsFs(), nil
}

// ProvideThumbnailStorage provides the thumbnail directory.
func ProvideThumbnailStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	fs := do.MustInvoke[afero.Fs](i)

	storage, err := images.NewStorage(fs, cfg.Data.ThumbnailDir)
	if err != nil {
		return nil, fmt.Errorf("thumbnail storage: %w", err)
	}
	return storage, nil
}

// ProvideFFmpeg provides the probe and thumbnail driver.
func ProvideFFmpeg(i do.Injector) (*media.FFmpeg, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return media.NewFFmpeg(toolsFromConfig(cfg), media.ExecRunner{}), nil
}

// ProvideToolAvailability checks ffprobe and ffmpeg once at startup.
func ProvideToolAvailability(i do.Injector) (media.Availability, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	tools := media.DetectTools(context.Background(), toolsFromConfig(cfg), media.ExecRunner{}, log.Logger)
	if tools.Ready() {
		log.Info("Video tools detected", "ffprobe", cfg.Tools.FFprobePath, "ffmpeg", cfg.Tools.FFmpegPath)
	}
	return tools, nil
}

func toolsFromConfig(cfg *config.Config) media.Tools {
	return media.Tools{
		FFprobe: cfg.Tools.FFprobePath,
		FFmpeg:  cfg.Tools.FFmpegPath,
	}
}
