// Package config loads VidShelf settings from flags, the environment, an
// optional .env file and settings.toml in the data directory.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// SettingsFile is the name of the optional TOML file in the data directory.
const SettingsFile = "settings.toml"

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Tools   ToolsConfig
	Scan    ScanConfig
	Search  SearchConfig
	Events  EventsConfig
	Watcher WatcherConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
	File  string // Empty disables the log file
}

// DataConfig holds on-disk locations.
type DataConfig struct {
	Path         string // Base directory (default: ~/VidShelf)
	DatabasePath string // default: {data}/vidshelf.db
	ThumbnailDir string // default: {data}/thumbnails
	BackupDir    string // default: {data}/backups
}

// ServerConfig holds the local API server settings.
type ServerConfig struct {
	Addr         string // Loopback host:port (default: 127.0.0.1:7878)
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// ToolsConfig locates the external media tools.
type ToolsConfig struct {
	FFprobePath string
	FFmpegPath  string
}

// ScanConfig controls which entries library walks visit.
type ScanConfig struct {
	SkipHidden bool // Skip dot-files and dot-directories (default: false)
}

// SearchConfig holds search settings surfaced to the UI.
type SearchConfig struct {
	Debounce time.Duration
}

// EventsConfig throttles progress events.
type EventsConfig struct {
	ProgressRate float64 // Progress events per second per stream
}

// WatcherConfig controls automatic re-indexing on file changes.
type WatcherConfig struct {
	Enabled  bool
	Debounce time.Duration
}

// fileSettings mirrors settings.toml. Values are strings so they share
// the parsing path of flags and environment variables.
type fileSettings struct {
	Environment string `toml:"environment"`
	Log         struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	Data struct {
		Database   string `toml:"database"`
		Thumbnails string `toml:"thumbnails"`
		Backups    string `toml:"backups"`
	} `toml:"data"`
	Server struct {
		Addr         string `toml:"addr"`
		ReadTimeout  string `toml:"read_timeout"`
		WriteTimeout string `toml:"write_timeout"`
		IdleTimeout  string `toml:"idle_timeout"`
	} `toml:"server"`
	Tools struct {
		FFprobe string `toml:"ffprobe"`
		FFmpeg  string `toml:"ffmpeg"`
	} `toml:"tools"`
	Scan struct {
		SkipHidden string `toml:"skip_hidden"`
	} `toml:"scan"`
	Search struct {
		Debounce string `toml:"debounce"`
	} `toml:"search"`
	Events struct {
		ProgressRate string `toml:"progress_rate"`
	} `toml:"events"`
	Watcher struct {
		Enabled  string `toml:"enabled"`
		Debounce string `toml:"debounce"`
	} `toml:"watcher"`
}

func defaultSettings() fileSettings {
	var s fileSettings
	s.Environment = "development"
	s.Log.Level = "info"
	s.Server.Addr = "127.0.0.1:7878"
	s.Server.ReadTimeout = "15s"
	s.Server.WriteTimeout = "0s"
	s.Server.IdleTimeout = "60s"
	s.Tools.FFprobe = "ffprobe"
	s.Tools.FFmpeg = "ffmpeg"
	s.Scan.SkipHidden = "false"
	s.Search.Debounce = "300ms"
	s.Events.ProgressRate = "10"
	s.Watcher.Enabled = "true"
	s.Watcher.Debounce = "2s"
	return s
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. settings.toml in the data directory.
// 5. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("vidshelf", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := fs.String("log-file", "", "Write a rotated JSON log to this file")
	dataPath := fs.String("data-path", "", "Base directory for the catalog and thumbnails")
	dbPath := fs.String("db-path", "", "SQLite database path (default: {data}/vidshelf.db)")
	thumbDir := fs.String("thumbnail-dir", "", "Thumbnail directory (default: {data}/thumbnails)")
	backupDir := fs.String("backup-dir", "", "Backup directory (default: {data}/backups)")
	addr := fs.String("addr", "", "Listen address, loopback only (default: 127.0.0.1:7878)")
	ffprobe := fs.String("ffprobe-path", "", "Path to ffprobe")
	ffmpeg := fs.String("ffmpeg-path", "", "Path to ffmpeg")
	skipHidden := fs.String("skip-hidden", "", "Leave dot-files and dot-directories out of indexing and search")
	watch := fs.String("watch", "", "Re-index library folders when files change (default: true)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	base, err := expandPath(getConfigValue(*dataPath, "VIDSHELF_DATA_PATH", ""), "")
	if err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "VidShelf")
	}

	file, err := loadSettingsFile(filepath.Join(base, SettingsFile))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "VIDSHELF_ENV", file.Environment),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "VIDSHELF_LOG_LEVEL", file.Log.Level),
			File:  getConfigValue(*logFile, "VIDSHELF_LOG_FILE", file.Log.File),
		},
		Data: DataConfig{
			Path: base,
		},
		Server: ServerConfig{
			Addr: getConfigValue(*addr, "VIDSHELF_ADDR", file.Server.Addr),
		},
		Tools: ToolsConfig{
			FFprobePath: getConfigValue(*ffprobe, "VIDSHELF_FFPROBE_PATH", file.Tools.FFprobe),
			FFmpegPath:  getConfigValue(*ffmpeg, "VIDSHELF_FFMPEG_PATH", file.Tools.FFmpeg),
		},
	}

	paths := []struct {
		dst   *string
		value string
		def   string
	}{
		{&cfg.Data.DatabasePath, getConfigValue(*dbPath, "VIDSHELF_DB_PATH", file.Data.Database), filepath.Join(base, "vidshelf.db")},
		{&cfg.Data.ThumbnailDir, getConfigValue(*thumbDir, "VIDSHELF_THUMBNAIL_DIR", file.Data.Thumbnails), filepath.Join(base, "thumbnails")},
		{&cfg.Data.BackupDir, getConfigValue(*backupDir, "VIDSHELF_BACKUP_DIR", file.Data.Backups), filepath.Join(base, "backups")},
	}
	for _, p := range paths {
		if *p.dst, err = expandPath(p.value, p.def); err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", p.value, err)
		}
	}
	if cfg.Logger.File != "" {
		if cfg.Logger.File, err = expandPath(cfg.Logger.File, ""); err != nil {
			return nil, fmt.Errorf("invalid log file: %w", err)
		}
	}

	durations := []struct {
		dst   *time.Duration
		name  string
		value string
	}{
		{&cfg.Server.ReadTimeout, "read timeout", getConfigValue("", "VIDSHELF_READ_TIMEOUT", file.Server.ReadTimeout)},
		{&cfg.Server.WriteTimeout, "write timeout", getConfigValue("", "VIDSHELF_WRITE_TIMEOUT", file.Server.WriteTimeout)},
		{&cfg.Server.IdleTimeout, "idle timeout", getConfigValue("", "VIDSHELF_IDLE_TIMEOUT", file.Server.IdleTimeout)},
		{&cfg.Search.Debounce, "search debounce", getConfigValue("", "VIDSHELF_SEARCH_DEBOUNCE", file.Search.Debounce)},
		{&cfg.Watcher.Debounce, "watcher debounce", getConfigValue("", "VIDSHELF_WATCH_DEBOUNCE", file.Watcher.Debounce)},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(d.value); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, d.value, err)
		}
	}

	rate := getConfigValue("", "VIDSHELF_PROGRESS_RATE", file.Events.ProgressRate)
	if cfg.Events.ProgressRate, err = strconv.ParseFloat(rate, 64); err != nil {
		return nil, fmt.Errorf("invalid progress rate %q: %w", rate, err)
	}
	cfg.Scan.SkipHidden = parseBool(getConfigValue(*skipHidden, "VIDSHELF_SKIP_HIDDEN", file.Scan.SkipHidden))
	cfg.Watcher.Enabled = parseBool(getConfigValue(*watch, "VIDSHELF_WATCH", file.Watcher.Enabled))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	case "":
		return errors.New("environment is required")
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" || c.Data.DatabasePath == "" {
		return errors.New("data path cannot be empty")
	}

	if err := checkLoopback(c.Server.Addr); err != nil {
		return err
	}

	if c.Events.ProgressRate <= 0 {
		return fmt.Errorf("progress rate must be positive, got %v", c.Events.ProgressRate)
	}
	if c.Search.Debounce < 0 || c.Watcher.Debounce < 0 {
		return errors.New("debounce durations must not be negative")
	}
	return nil
}

// checkLoopback rejects listen addresses reachable from other machines.
func checkLoopback(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid listen port %q", port)
	}
	if host == "localhost" {
		return nil
	}
	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("listen address %q is not a loopback address", addr)
	}
	return nil
}

// loadSettingsFile layers settings.toml over the defaults. A missing file
// yields the defaults.
func loadSettingsFile(path string) (fileSettings, error) {
	s := defaultSettings()
	data, err := os.ReadFile(path) //#nosec G304 -- settings path comes from the data dir
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the flag value, then the env var, then fallback.
func getConfigValue(flagValue, envKey, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return fallback
}

// parseBool accepts "true", "1" and "yes" (case-insensitive) as true.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
