package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Defaults(t *testing.T) {
	var opts Options
	opts.setDefaults()

	assert.Equal(t, 2*time.Second, opts.Debounce)
	assert.True(t, opts.IgnoreHidden)
	assert.Contains(t, opts.IgnorePatterns, "*.part")
}

func TestOptions_ExplicitPatternsKeepHidden(t *testing.T) {
	opts := Options{IgnorePatterns: []string{}, Debounce: time.Second}
	opts.setDefaults()

	assert.Equal(t, time.Second, opts.Debounce)
	assert.False(t, opts.IgnoreHidden)
	assert.False(t, opts.shouldIgnore("/Lib/.hidden/a.mp4"))
}

func TestOptions_ShouldIgnore(t *testing.T) {
	var opts Options
	opts.setDefaults()

	tests := []struct {
		path string
		want bool
	}{
		{"/Lib/movie.mp4", false},
		{"/Lib/Season 1/ep.mkv", false},
		{"/Lib/.DS_Store", true},
		{"/Lib/.cache/movie.mp4", true},
		{"/Lib/download.mp4.part", true},
		{"/Lib/Thumbs.db", true},
		{"/Lib/video.crdownload", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.shouldIgnore(tt.path))
		})
	}
}
