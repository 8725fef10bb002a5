package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Playlist mastership values.
const (
	MasterLocal  = "pumukit"
	MasterRemote = "youtube"
)

// Paths contains directory and credential file configuration.
type Paths struct {
	DataDir        string `toml:"data_dir"`
	LogDir         string `toml:"log_dir"`
	CredentialsDir string `toml:"credentials_dir"`
	ClientSecrets  string `toml:"client_secrets"`
}

// YouTube contains the publication policy applied by the reconciliation passes.
type YouTube struct {
	AccountRootTag      string   `toml:"account_root_tag"`
	RequiredTags        []string `toml:"required_tags"`
	PublishedTag        string   `toml:"published_tag"`
	DefaultTrackTag     string   `toml:"default_track_tag"`
	AllowedFormats      []string `toml:"allowed_formats"`
	Privacy             string   `toml:"privacy"`
	SyncStatus          bool     `toml:"sync_status"`
	ExcludeLegacy       bool     `toml:"exclude_legacy"`
	PlaylistMaster      string   `toml:"playlist_master"`
	DeletePlaylists     bool     `toml:"delete_playlists"`
	UseDefaultPlaylist  bool     `toml:"use_default_playlist"`
	DefaultPlaylist     string   `toml:"default_playlist"`
	PlaylistPrivacy     string   `toml:"playlist_privacy"`
	CaptionMimeTypes    []string `toml:"caption_mime_types"`
	TitleLimit          int      `toml:"title_limit"`
	IncludePeople       bool     `toml:"include_people"`
	PlaybackURLTemplate string   `toml:"playback_url_template"`
	ProcessTimeout      int      `toml:"process_timeout"`
	UploadLimit         int      `toml:"upload_limit"`
}

// Notifications contains configuration for the end-of-run digest.
type Notifications struct {
	Enabled        bool   `toml:"enabled"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ytbridge.
//
// Configuration sections by subsystem:
//   - Paths: catalog database, logs, and OAuth credentials
//   - YouTube: publication policy, playlists, captions, timeouts
//   - Notifications: ntfy digest delivery
//   - Metrics: Prometheus textfile output
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ytbridge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ytbridge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for batch operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.CredentialsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the catalog and sync record database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "ytbridge.db")
}

// LockPath returns the location of the single-run lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "ytbridge.lock")
}

// RemoteTimeout converts the configured process timeout into a duration.
func (c *Config) RemoteTimeout() time.Duration {
	if c.YouTube.ProcessTimeout <= 0 {
		return time.Duration(defaultProcessTimeout) * time.Second
	}
	return time.Duration(c.YouTube.ProcessTimeout) * time.Second
}

// LocalMaster reports whether local tags are authoritative for playlists.
func (c *Config) LocalMaster() bool {
	return c.YouTube.PlaylistMaster != MasterRemote
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
