package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vidshelfapp/vidshelf-core/internal/domain"
	"github.com/vidshelfapp/vidshelf-core/internal/media"
	"github.com/vidshelfapp/vidshelf-core/internal/normalize"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Runtime settings",
		Description: "Settings the UI needs, such as the search debounce interval",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTools",
		Method:      http.MethodGet,
		Path:        "/api/v1/tools",
		Summary:     "External tool availability",
		Description: "Whether ffprobe and ffmpeg were found at startup. Indexing is disabled without them.",
		Tags:        []string{"Settings"},
	}, s.handleGetTools)
}

// SettingsResponse contains the settings exposed to the UI.
type SettingsResponse struct {
	SearchDebounceMs int64    `json:"search_debounce_ms" doc:"Delay to wait after the last keystroke before searching"`
	WatchThreshold   float64  `json:"watch_threshold" doc:"Fraction of the duration that marks a video watched"`
	ProgressRate     float64  `json:"progress_rate" doc:"Maximum progress events per second"`
	WatcherEnabled   bool     `json:"watcher_enabled" doc:"Whether library folders are re-indexed on change"`
	VideoExtensions  []string `json:"video_extensions" doc:"File extensions treated as video"`
	DataPath         string   `json:"data_path"`
	BackupDir        string   `json:"backup_dir"`
	Environment      string   `json:"environment"`
}

// SettingsOutput wraps settings for Huma.
type SettingsOutput struct {
	Body SettingsResponse
}

// ToolsOutput wraps tool availability for Huma.
type ToolsOutput struct {
	Body struct {
		media.Availability
		IndexingEnabled bool `json:"indexing_enabled"`
	}
}

func (s *Server) handleGetSettings(_ context.Context, _ *struct{}) (*SettingsOutput, error) {
	resp := SettingsResponse{
		WatchThreshold:  float64(domain.WatchThresholdPercent) / 100,
		VideoExtensions: normalize.VideoExtensions(),
	}
	if cfg := s.env.Config; cfg != nil {
		resp.SearchDebounceMs = cfg.Search.Debounce.Milliseconds()
		resp.ProgressRate = cfg.Events.ProgressRate
		resp.WatcherEnabled = cfg.Watcher.Enabled
		resp.DataPath = cfg.Data.Path
		resp.BackupDir = cfg.Data.BackupDir
		resp.Environment = cfg.App.Environment
	}
	return &SettingsOutput{Body: resp}, nil
}

func (s *Server) handleGetTools(_ context.Context, _ *struct{}) (*ToolsOutput, error) {
	out := &ToolsOutput{}
	out.Body.Availability = s.env.Tools
	out.Body.IndexingEnabled = s.env.Tools.Ready()
	return out, nil
}
