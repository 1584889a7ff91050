package backup

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	domainerrors "github.com/vidshelfapp/vidshelf-core/internal/errors"
	"github.com/vidshelfapp/vidshelf-core/internal/store"
)

// FormatVersion is the snapshot format version written by Export. Imports
// accept any version with the same or a lower major number.
const FormatVersion Version = "1.0"

// Version is a snapshot format version such as "1.0". Older exports wrote
// a bare number, which decodes to the same string.
type Version string

// UnmarshalJSON accepts a JSON string or number.
func (v *Version) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Version(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = Version(n.String())
	return nil
}

// Major returns the leading number of the version.
func (v Version) Major() (int, error) {
	major, _, _ := strings.Cut(strings.TrimSpace(string(v)), ".")
	return strconv.Atoi(major)
}

// Document is the snapshot file layout. The arrays are pointers so a
// missing key can be told apart from an empty list.
type Document struct {
	Version        Version           `json:"version"`
	ExportDate     time.Time         `json:"exportDate"`
	Videos         *[]VideoRecord    `json:"videos"`
	Tags           *[]TagRecord      `json:"tags"`
	VideoTags      *[]VideoTagRecord `json:"videoTags"`
	LibraryFolders *[]FolderRecord   `json:"libraryFolders"`
}

// VideoRecord is one catalog video.
type VideoRecord struct {
	ID                   int64      `json:"id"`
	FilePath             string     `json:"file_path"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	DurationSeconds      int64      `json:"duration_seconds"`
	ThumbnailPath        *string    `json:"thumbnail_path"`
	ThumbnailBlurHash    string     `json:"thumbnail_blurhash,omitempty"`
	Width                int        `json:"width,omitempty"`
	Height               int        `json:"height,omitempty"`
	Codec                string     `json:"codec,omitempty"`
	FileSize             int64      `json:"file_size,omitempty"`
	IsWatched            bool       `json:"is_watched"`
	WatchProgressSeconds int64      `json:"watch_progress_seconds"`
	LastWatchedAt        *time.Time `json:"last_watched_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TagRecord is one tag.
type TagRecord struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// VideoTagRecord links a video to a tag.
type VideoTagRecord struct {
	VideoID int64 `json:"video_id"`
	TagID   int64 `json:"tag_id"`
}

// FolderRecord is one library folder.
type FolderRecord struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Icon      *string   `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// Counts summarises what a snapshot holds.
type Counts struct {
	Videos    int `json:"videos"`
	Tags      int `json:"tags"`
	VideoTags int `json:"video_tags"`
	Folders   int `json:"folders"`
}

// NewDocument converts a store snapshot to the file layout.
func NewDocument(snap *store.Snapshot, exportedAt time.Time) *Document {
	videos := make([]VideoRecord, 0, len(snap.Videos))
	for _, v := range snap.Videos {
		videos = append(videos, VideoRecord{
			ID:                   v.ID,
			FilePath:             v.FilePath,
			Title:                v.Title,
			Description:          v.Description,
			DurationSeconds:      v.DurationSeconds,
			ThumbnailPath:        v.ThumbnailPath,
			ThumbnailBlurHash:    v.ThumbnailBlurHash,
			Width:                v.Width,
			Height:               v.Height,
			Codec:                v.Codec,
			FileSize:             v.FileSize,
			IsWatched:            v.IsWatched,
			WatchProgressSeconds: v.WatchProgressSeconds,
			LastWatchedAt:        v.LastWatchedAt,
			CreatedAt:            v.CreatedAt,
			UpdatedAt:            v.UpdatedAt,
		})
	}

	tags := make([]TagRecord, 0, len(snap.Tags))
	for _, t := range snap.Tags {
		tags = append(tags, TagRecord{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt})
	}

	links := make([]VideoTagRecord, 0, len(snap.VideoTags))
	for _, vt := range snap.VideoTags {
		links = append(links, VideoTagRecord{VideoID: vt.VideoID, TagID: vt.TagID})
	}

	folders := make([]FolderRecord, 0, len(snap.Folders))
	for _, f := range snap.Folders {
		folders = append(folders, FolderRecord{ID: f.ID, Path: f.Path, Icon: f.Icon, CreatedAt: f.CreatedAt})
	}

	return &Document{
		Version:        FormatVersion,
		ExportDate:     exportedAt.UTC(),
		Videos:         &videos,
		Tags:           &tags,
		VideoTags:      &links,
		LibraryFolders: &folders,
	}
}

// Counts returns the number of records per array.
func (d *Document) Counts() Counts {
	var c Counts
	if d.Videos != nil {
		c.Videos = len(*d.Videos)
	}
	if d.Tags != nil {
		c.Tags = len(*d.Tags)
	}
	if d.VideoTags != nil {
		c.VideoTags = len(*d.VideoTags)
	}
	if d.LibraryFolders != nil {
		c.Folders = len(*d.LibraryFolders)
	}
	return c
}

// Validate checks that the document can be imported.
func (d *Document) Validate() error {
	if d.Version != "" {
		major, err := d.Version.Major()
		if err != nil {
			return domainerrors.ImportFormatf("invalid snapshot version %q", d.Version)
		}
		want, _ := FormatVersion.Major()
		if major > want {
			return domainerrors.ImportFormatf("unsupported snapshot version %q (want %s or lower)", d.Version, FormatVersion)
		}
	}

	var missing []string
	if d.Videos == nil {
		missing = append(missing, "videos")
	}
	if d.Tags == nil {
		missing = append(missing, "tags")
	}
	if d.VideoTags == nil {
		missing = append(missing, "videoTags")
	}
	if d.LibraryFolders == nil {
		missing = append(missing, "libraryFolders")
	}
	if len(missing) > 0 {
		return domainerrors.ImportFormatf("snapshot is missing required arrays").
			WithDetails(map[string][]string{"missing": missing})
	}

	for _, v := range *d.Videos {
		if v.FilePath == "" {
			return domainerrors.ImportFormatf("video %d has no file_path", v.ID)
		}
	}
	for _, f := range *d.LibraryFolders {
		if f.Path == "" {
			return domainerrors.ImportFormatf("library folder %d has no path", f.ID)
		}
	}
	return nil
}

// Snapshot converts a validated document back to store form.
func (d *Document) Snapshot() *store.Snapshot {
	snap := &store.Snapshot{
		Videos:    make([]*domain.Video, 0, len(*d.Videos)),
		Tags:      make([]*domain.Tag, 0, len(*d.Tags)),
		VideoTags: make([]domain.VideoTag, 0, len(*d.VideoTags)),
		Folders:   make([]*domain.LibraryFolder, 0, len(*d.LibraryFolders)),
	}
	for _, v := range *d.Videos {
		snap.Videos = append(snap.Videos, &domain.Video{
			ID:                   v.ID,
			FilePath:             v.FilePath,
			Title:                v.Title,
			Description:          v.Description,
			DurationSeconds:      v.DurationSeconds,
			ThumbnailPath:        v.ThumbnailPath,
			ThumbnailBlurHash:    v.ThumbnailBlurHash,
			Width:                v.Width,
			Height:               v.Height,
			Codec:                v.Codec,
			FileSize:             v.FileSize,
			IsWatched:            v.IsWatched,
			WatchProgressSeconds: v.WatchProgressSeconds,
			LastWatchedAt:        v.LastWatchedAt,
			CreatedAt:            v.CreatedAt,
			UpdatedAt:            v.UpdatedAt,
		})
	}
	for _, t := range *d.Tags {
		snap.Tags = append(snap.Tags, &domain.Tag{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt})
	}
	for _, vt := range *d.VideoTags {
		snap.VideoTags = append(snap.VideoTags, domain.VideoTag{VideoID: vt.VideoID, TagID: vt.TagID})
	}
	for _, f := range *d.LibraryFolders {
		snap.Folders = append(snap.Folders, &domain.LibraryFolder{ID: f.ID, Path: f.Path, Icon: f.Icon, CreatedAt: f.CreatedAt})
	}
	return snap
}

// Encode writes the document as indented JSON.
func Encode(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Decode reads and validates a document.
func Decode(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, domainerrors.ImportFormatf("decode snapshot").WithCause(err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}
