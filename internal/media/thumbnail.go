package media

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
)

// maxThumbnailOffset caps how far into a video the frame is taken.
const maxThumbnailOffset = 10 * time.Second

// ThumbnailOffset picks the frame time: a tenth of the duration, at most 10s.
func ThumbnailOffset(durationSeconds int64) time.Duration {
	at := time.Duration(durationSeconds) * time.Second / 10
	return min(at, maxThumbnailOffset)
}

// Thumbnail renders one frame of videoPath at offset into outPath, scaled
// to 480 pixels wide.
func (f *FFmpeg) Thumbnail(ctx context.Context, videoPath string, offset time.Duration, outPath string) error {
	_, err := f.runner.Run(ctx, f.tools.FFmpeg,
		"-v", "error",
		"-ss", formatOffset(offset),
		"-i", videoPath,
		"-frames:v", "1",
		"-vf", "scale=480:-2",
		"-y", outPath,
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return domainerrors.ToolUnavailable("ffmpeg").WithCause(err)
		}
		return domainerrors.ProbeFailuref("thumbnail %s", videoPath).WithCause(err)
	}
	return nil
}

func formatOffset(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
