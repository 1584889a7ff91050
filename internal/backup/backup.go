package backup

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

const fileSuffix = ".vidshelf.json"

// BackupInfo describes a snapshot file in the backups directory.
type BackupInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Counts    *Counts   `json:"counts,omitempty"`
}

// ImportResult contains the outcome of an import.
type ImportResult struct {
	Counts     Counts        `json:"counts"`
	ExportDate time.Time     `json:"export_date"`
	Duration   time.Duration `json:"duration"`
}

// BackupService exports and imports catalog snapshots.
type BackupService struct {
	store  store.Store
	fs     afero.Fs
	dir    string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewBackupService creates a BackupService that keeps snapshot files in dir.
func NewBackupService(s store.Store, fs afero.Fs, dir string, clock clockwork.Clock, logger *slog.Logger) *BackupService {
	return &BackupService{
		store:  s,
		fs:     fs,
		dir:    dir,
		clock:  clock,
		logger: logger,
	}
}

// Export reads the whole catalog, watch history excluded.
func (s *BackupService) Export(ctx context.Context) (*Document, error) {
	snap, err := s.store.ExportSnapshot(ctx)
	if err != nil {
		return nil, domainerrors.Persistence(err, "export snapshot")
	}
	return NewDocument(snap, s.clock.Now()), nil
}

// WriteSnapshot exports the catalog as JSON to w.
func (s *BackupService) WriteSnapshot(ctx context.Context, w io.Writer) (Counts, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return Counts{}, err
	}
	if err := Encode(w, doc); err != nil {
		return Counts{}, fmt.Errorf("encode snapshot: %w", err)
	}
	return doc.Counts(), nil
}

// Import replaces the catalog with the snapshot read from r. The document
// is fully decoded and validated before anything is deleted; a failure
// during the replacement leaves the previous catalog intact.
func (s *BackupService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	start := s.clock.Now()

	doc, err := Decode(r)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceFromSnapshot(ctx, doc.Snapshot()); err != nil {
		return nil, domainerrors.Persistence(err, "import snapshot")
	}

	result := &ImportResult{
		Counts:     doc.Counts(),
		ExportDate: doc.ExportDate,
		Duration:   s.clock.Since(start),
	}
	s.logger.Info("snapshot imported",
		"videos", result.Counts.Videos,
		"tags", result.Counts.Tags,
		"folders", result.Counts.Folders,
		"export_date", doc.ExportDate,
	)
	return result, nil
}

// Create writes a new snapshot file into the backups directory.
func (s *BackupService) Create(ctx context.Context) (*BackupInfo, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	id := s.nextID()
	path := s.Path(id)
	tmp := path + ".tmp"

	f, err := s.fs.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	counts, err := s.WriteSnapshot(ctx, f)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(tmp)
		return nil, err
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return nil, fmt.Errorf("finalize backup file: %w", err)
	}

	info, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	info.Counts = &counts

	s.logger.Info("backup created",
		"id", id,
		"path", path,
		"size", info.Size,
		"videos", counts.Videos,
	)
	return info, nil
}

// Restore imports a snapshot file from the backups directory.
func (s *BackupService) Restore(ctx context.Context, id string) (*ImportResult, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(s.Path(id))
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	s.logger.Info("restoring backup", "id", id)
	return s.Import(ctx, f)
}

// List returns all backups, newest first.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BackupInfo{}, nil
		}
		return nil, err
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		backups = append(backups, BackupInfo{
			ID:        strings.TrimSuffix(entry.Name(), fileSuffix),
			Path:      filepath.Join(s.dir, entry.Name()),
			Size:      entry.Size(),
			CreatedAt: entry.ModTime(),
		})
	}

	slices.SortFunc(backups, func(a, b BackupInfo) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return backups, nil
}

// Get returns a backup by ID.
func (s *BackupService) Get(ctx context.Context, id string) (*BackupInfo, error) {
	if !validID(id) {
		return nil, ErrInvalidBackupID
	}
	path := s.Path(id)

	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &BackupInfo{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.fs.Remove(s.Path(id)); err != nil {
		return fmt.Errorf("remove backup: %w", err)
	}
	s.logger.Info("backup deleted", "id", id)
	return nil
}

// Path returns the file path for a backup ID.
func (s *BackupService) Path(id string) string {
	return filepath.Join(s.dir, id+fileSuffix)
}

// nextID names a backup after the current time, with a counter when
// several are taken within the same second.
func (s *BackupService) nextID() string {
	base := "backup-" + s.clock.Now().UTC().Format("2006-01-02-150405")
	id := base
	for n := 2; ; n++ {
		if ok, _ := afero.Exists(s.fs, s.Path(id)); !ok {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}
