package scanner

import (
	"sync"
	"time"
)

// IndexProgress is reported after each video file of a pass.
type IndexProgress struct {
	Folder  string `json:"folder"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Path    string `json:"path"`
	Indexed int    `json:"indexed"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// IndexResult summarises a finished pass.
type IndexResult struct {
	Folder     string        `json:"folder"`
	Total      int           `json:"total"`
	Indexed    int           `json:"indexed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Cancelled  bool          `json:"cancelled"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
}

// Listener receives indexing events. Calls happen on the indexing goroutine.
type Listener interface {
	IndexProgress(p IndexProgress)
	IndexComplete(r *IndexResult)
}

// progressTracker tracks and reports the progress of one pass.
type progressTracker struct {
	callback func(IndexProgress)
	progress IndexProgress
	mu       sync.Mutex
}

func newProgressTracker(folder string, total int, callback func(IndexProgress)) *progressTracker {
	return &progressTracker{
		callback: callback,
		progress: IndexProgress{Folder: folder, Total: total},
	}
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeSkipped
	outcomeFailed
)

// step records one processed file and notifies the callback.
func (p *progressTracker) step(path string, o outcome) {
	p.mu.Lock()
	p.progress.Current++
	p.progress.Path = path
	switch o {
	case outcomeIndexed:
		p.progress.Indexed++
	case outcomeSkipped:
		p.progress.Skipped++
	case outcomeFailed:
		p.progress.Failed++
	}
	snapshot := p.progress
	p.mu.Unlock()

	if p.callback != nil {
		p.callback(snapshot)
	}
}

func (p *progressTracker) get() IndexProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}
