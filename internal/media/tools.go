package media

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"time"
)

// missingProbeTarget is a file that never exists, so a present tool exits
// with a "file not found" error instead of doing work.
var missingProbeTarget = filepath.Join("vidshelf-tool-check", "does-not-exist.mp4")

const detectTimeout = 5 * time.Second

// Availability reports which tools can be executed.
type Availability struct {
	FFprobe bool `json:"ffprobe"`
	FFmpeg  bool `json:"ffmpeg"`
}

// Ready reports whether indexing can run.
func (a Availability) Ready() bool {
	return a.FFprobe && a.FFmpeg
}

// DetectTools runs each tool against a missing file. A tool that starts and
// exits with an error is present; one that cannot be started is absent.
func DetectTools(ctx context.Context, tools Tools, runner CommandRunner, logger *slog.Logger) Availability {
	a := Availability{
		FFprobe: toolPresent(ctx, runner, tools.FFprobe, "-v", "error", missingProbeTarget),
		FFmpeg:  toolPresent(ctx, runner, tools.FFmpeg, "-v", "error", "-i", missingProbeTarget),
	}
	if !a.Ready() {
		logger.Warn("video tools unavailable, indexing disabled",
			"ffprobe", a.FFprobe,
			"ffmpeg", a.FFmpeg,
		)
	}
	return a
}

func toolPresent(ctx context.Context, runner CommandRunner, name string, args ...string) bool {
	if name == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	_, err := runner.Run(ctx, name, args...)
	if err == nil {
		return true
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
