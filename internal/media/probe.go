package media

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os/exec"
	"strconv"

	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
)

// ProbeResult is the metadata read from a video file.
type ProbeResult struct {
	DurationSeconds int64  `json:"duration"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Bitrate         int64  `json:"bitrate"`
	Codec           string `json:"codec"`
	FileSize        int64  `json:"file_size"`
}

// ffprobeOutput mirrors the parts of `ffprobe -print_format json` we read.
type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// FFmpeg probes and renders thumbnails with the configured tools.
type FFmpeg struct {
	tools  Tools
	runner CommandRunner
}

// NewFFmpeg creates an FFmpeg driver. A nil runner uses ExecRunner.
func NewFFmpeg(tools Tools, runner CommandRunner) *FFmpeg {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &FFmpeg{tools: tools, runner: runner}
}

// Probe reads duration, dimensions, bitrate, codec and size of path.
func (f *FFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	out, err := f.runner.Run(ctx, f.tools.FFprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, domainerrors.ToolUnavailable("ffprobe").WithCause(err)
		}
		return nil, domainerrors.ProbeFailuref("probe %s", path).WithCause(err)
	}
	return parseProbe(out, path)
}

func parseProbe(out []byte, path string) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, domainerrors.ProbeFailuref("parse probe output for %s", path).WithCause(err)
	}

	r := &ProbeResult{
		DurationSeconds: parseSeconds(raw.Format.Duration),
		FileSize:        parseInt(raw.Format.Size),
		Bitrate:         parseInt(raw.Format.BitRate),
	}
	for _, s := range raw.Streams {
		if s.CodecType == "video" {
			r.Width = s.Width
			r.Height = s.Height
			r.Codec = s.CodecName
			break
		}
	}
	if r.Codec == "" {
		return nil, domainerrors.ProbeFailuref("no video stream in %s", path)
	}
	return r, nil
}

// parseSeconds rounds a fractional ffprobe duration to whole seconds.
func parseSeconds(s string) int64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || math.IsNaN(f) {
		return 0
	}
	return int64(math.Round(f))
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
