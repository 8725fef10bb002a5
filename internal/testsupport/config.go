package testsupport

import (
	"path/filepath"
	"testing"

	"ytbridge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CredentialsDir = filepath.Join(base, "credentials")
	cfgVal.Paths.ClientSecrets = filepath.Join(base, "client_secrets.json")
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRemoteMaster makes remote playlists authoritative.
func WithRemoteMaster() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.PlaylistMaster = config.MasterRemote
	}
}

// WithDeletePlaylists enables playlist removal during account sync.
func WithDeletePlaylists() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.DeletePlaylists = true
	}
}

// WithDefaultPlaylist enables the fallback playlist tag.
func WithDefaultPlaylist(code string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.UseDefaultPlaylist = true
		b.cfg.YouTube.DefaultPlaylist = code
	}
}

// WithSyncStatus publishes blocked and hidden assets too.
func WithSyncStatus() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.YouTube.SyncStatus = true
	}
}

// WithNtfyTopic points notifications at a test endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
