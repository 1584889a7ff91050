package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the folder watcher.
type Options struct {
	// Debounce is how long a folder must be quiet before it is re-indexed.
	Debounce time.Duration
	// ResyncInterval is how often the folder source is re-read.
	ResyncInterval time.Duration
	IgnorePatterns []string
	IgnoreHidden   bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = 2 * time.Second
	}
	if o.ResyncInterval <= 0 {
		o.ResyncInterval = time.Minute
	}

	// Explicitly empty patterns keep the caller's IgnoreHidden choice.
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"Thumbs.db",
			"*.part",
			"*.crdownload",
			"*.tmp",
		}
		o.IgnoreHidden = true
	}
}

// shouldIgnore checks if a path matches ignore patterns.
func (o *Options) shouldIgnore(path string) bool {
	if o.IgnoreHidden {
		for _, part := range strings.Split(filepath.ToSlash(filepath.Clean(path)), "/") {
			if strings.HasPrefix(part, ".") && part != "." && part != ".." {
				return true
			}
		}
	}

	base := filepath.Base(path)
	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}
