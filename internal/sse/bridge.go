package sse

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/service"
)

// Emitter accepts events for broadcast.
type Emitter interface {
	Emit(Event)
}

// newLimiter allows perSecond events with a burst of one.
func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// IndexBridge forwards indexer events to an Emitter. Progress is
// throttled, except for the first and last file of a pass.
type IndexBridge struct {
	emitter   Emitter
	perSecond float64

	mu      sync.Mutex
	limiter *rate.Limiter
}

var _ scanner.Listener = (*IndexBridge)(nil)

// NewIndexBridge creates an IndexBridge emitting at most perSecond
// progress events.
func NewIndexBridge(emitter Emitter, perSecond float64) *IndexBridge {
	return &IndexBridge{emitter: emitter, perSecond: perSecond}
}

// IndexProgress implements scanner.Listener.
func (b *IndexBridge) IndexProgress(p scanner.IndexProgress) {
	b.mu.Lock()
	if p.Current <= 1 || b.limiter == nil {
		b.limiter = newLimiter(b.perSecond)
	}
	allowed := b.limiter.Allow()
	b.mu.Unlock()

	if allowed || p.Current == 1 || p.Current == p.Total {
		b.emitter.Emit(NewIndexProgressEvent(p))
	}
}

// IndexComplete implements scanner.Listener.
func (b *IndexBridge) IndexComplete(r *scanner.IndexResult) {
	b.emitter.Emit(NewIndexCompleteEvent(r))
}

// SearchProgress returns a throttled progress callback for one recursive
// search. The final file is always delivered.
func SearchProgress(emitter Emitter, perSecond float64) service.ProgressFunc {
	limiter := newLimiter(perSecond)
	var mu sync.Mutex
	return func(p service.SearchProgress) {
		mu.Lock()
		allowed := limiter.Allow()
		mu.Unlock()
		if allowed || p.Current == p.Total {
			emitter.Emit(NewSearchProgressEvent(p))
		}
	}
}
