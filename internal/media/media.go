// Package media drives the external probe and thumbnail tools.
// ffprobe and ffmpeg are treated as black boxes reached through a
// CommandRunner.
package media

import (
	"context"
	"os/exec"
)

// Tools names the executables to run.
type Tools struct {
	FFprobe string
	FFmpeg  string
}

// DefaultTools resolves both tools through PATH.
func DefaultTools() Tools {
	return Tools{FFprobe: "ffprobe", FFmpeg: "ffmpeg"}
}

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements CommandRunner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
