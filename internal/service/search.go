package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/id"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
	"github.com/vidshelfapp/vidshelf-core/internal/scanner"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// ErrSearchCancelled is returned by a recursive search that was cancelled
// or replaced by a newer one.
var ErrSearchCancelled = domainerrors.Conflict("search cancelled")

// SearchProgress is reported once per video file visited in the second pass.
type SearchProgress struct {
	SessionID string `json:"session_id"`
	Current   int    `json:"current"`
	Total     int    `json:"total"` // video files under the searched folders
	Name      string `json:"name"`
}

// ProgressFunc receives recursive search progress.
type ProgressFunc func(SearchProgress)

// RecursiveResult is the outcome of a finished recursive search.
type RecursiveResult struct {
	SessionID string          `json:"session_id"`
	Videos    []*domain.Video `json:"videos"`
}

// SearchSession is one recursive search. A stopped session delivers no
// more progress.
type SearchSession struct {
	ID      string
	ctx     context.Context
	cancel  context.CancelFunc
	stopped atomic.Bool
}

// Stopped reports whether the session was cancelled or superseded.
func (ss *SearchSession) Stopped() bool {
	return ss.stopped.Load()
}

func (ss *SearchSession) stop() {
	ss.stopped.Store(true)
	ss.cancel()
}

// SearchService runs indexed and live filesystem searches.
type SearchService struct {
	store  store.Store
	walker *scanner.Walker
	logger *slog.Logger

	mu     sync.Mutex
	active *SearchSession
}

// NewSearchService creates a new search service.
func NewSearchService(store store.Store, walker *scanner.Walker, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  store,
		walker: walker,
		logger: logger,
	}
}

// SearchVideos matches term against stored titles, descriptions and tags.
func (s *SearchService) SearchVideos(ctx context.Context, term string) ([]*domain.Video, error) {
	videos, err := s.store.SearchVideos(ctx, term)
	return videos, persistence(err, "search videos")
}

// Begin opens a recursive search session and stops the previous one.
func (s *SearchService) Begin(parent context.Context) (*SearchSession, error) {
	sessionID, err := id.Generate(id.PrefixSearch)
	if err != nil {
		return nil, domainerrors.Internal("generate search session id").WithCause(err)
	}
	ctx, cancel := context.WithCancel(parent)
	sess := &SearchSession{ID: sessionID, ctx: ctx, cancel: cancel}

	s.mu.Lock()
	prev := s.active
	s.active = sess
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
		s.logger.Debug("search session superseded", "session_id", prev.ID)
	}
	return sess, nil
}

// Cancel stops the session with this ID if it is the active one.
func (s *SearchService) Cancel(sessionID string) bool {
	s.mu.Lock()
	sess := s.active
	if sess == nil || sess.ID != sessionID {
		s.mu.Unlock()
		return false
	}
	s.active = nil
	s.mu.Unlock()

	sess.stop()
	return true
}

// Finish releases a session once its results have been delivered.
func (s *SearchService) Finish(sess *SearchSession) {
	s.mu.Lock()
	if s.active == sess {
		s.active = nil
	}
	s.mu.Unlock()
	sess.cancel()
}

// SearchVideosRecursive opens a session and runs it to completion.
func (s *SearchService) SearchVideosRecursive(ctx context.Context, term, folderPath string, progress ProgressFunc) (*RecursiveResult, error) {
	sess, err := s.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Finish(sess)

	videos, err := s.Run(sess, term, folderPath, progress)
	if err != nil {
		return nil, err
	}
	return &RecursiveResult{SessionID: sess.ID, Videos: videos}, nil
}

// Run searches the filenames under folderPath, or under every library
// folder when folderPath is empty. The first pass counts video files so
// progress can report a total; the second pass matches. Only video files
// are scanned: progress fires once per video file, and Total leaves out
// directories and files of other types. Files already in
// the catalog come back as their stored rows, others as placeholders with
// a zero ID.
func (s *SearchService) Run(sess *SearchSession, term, folderPath string, progress ProgressFunc) ([]*domain.Video, error) {
	ctx := sess.ctx
	term = strings.TrimSpace(term)
	if term == "" {
		return []*domain.Video{}, nil
	}

	roots, err := s.roots(ctx, folderPath)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, root := range roots {
		n, err := s.walker.CountVideos(ctx, root)
		if err != nil {
			return nil, s.stopped(sess, err)
		}
		total += n
	}

	var (
		current int
		seen    = make(map[string]bool)
		results = []*domain.Video{}
	)
	for _, root := range roots {
		err := s.walker.WalkVideos(ctx, root, func(e scanner.Entry) error {
			current++
			if progress != nil && !sess.Stopped() {
				progress(SearchProgress{SessionID: sess.ID, Current: current, Total: total, Name: e.Name})
			}

			if !normalize.FoldedContains(e.Name, term) {
				return nil
			}
			key := normalize.Path(e.Path)
			if seen[key] {
				return nil
			}
			seen[key] = true

			v, err := s.store.GetVideoByPath(ctx, e.Path)
			switch {
			case err == nil:
				results = append(results, v)
			case errors.Is(err, store.ErrNotFound):
				results = append(results, domain.NewPlaceholderVideo(e.Path, normalize.TitleFromFilename(e.Name)))
			default:
				return persistence(err, "look up video")
			}
			return nil
		})
		if err != nil {
			return nil, s.stopped(sess, err)
		}
	}

	if sess.Stopped() {
		return nil, ErrSearchCancelled
	}
	s.logger.Debug("recursive search finished",
		"session_id", sess.ID,
		"term", term,
		"scanned", current,
		"matches", len(results),
	)
	return results, nil
}

func (s *SearchService) roots(ctx context.Context, folderPath string) ([]string, error) {
	if folderPath != "" {
		return []string{folderPath}, nil
	}
	folders, err := s.store.ListFolders(ctx)
	if err != nil {
		return nil, persistence(err, "list folders")
	}
	roots := make([]string, 0, len(folders))
	for _, f := range folders {
		roots = append(roots, f.Path)
	}
	return roots, nil
}

// stopped maps a walk error caused by cancellation to ErrSearchCancelled.
func (s *SearchService) stopped(sess *SearchSession, err error) error {
	if sess.Stopped() || errors.Is(err, context.Canceled) {
		return ErrSearchCancelled
	}
	return err
}
