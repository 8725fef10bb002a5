package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeYouTube()
	c.normalizeNotifications()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CredentialsDir) == "" {
		c.Paths.CredentialsDir = defaultCredentialsDir
	}
	if c.Paths.CredentialsDir, err = expandPath(c.Paths.CredentialsDir); err != nil {
		return fmt.Errorf("paths.credentials_dir: %w", err)
	}
	if value, ok := os.LookupEnv("YTBRIDGE_CLIENT_SECRETS"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ClientSecrets = strings.TrimSpace(value)
	}
	if c.Paths.ClientSecrets, err = expandPath(strings.TrimSpace(c.Paths.ClientSecrets)); err != nil {
		return fmt.Errorf("paths.client_secrets: %w", err)
	}
	return nil
}

func (c *Config) normalizeYouTube() {
	yt := &c.YouTube
	yt.AccountRootTag = strings.TrimSpace(yt.AccountRootTag)
	if yt.AccountRootTag == "" {
		yt.AccountRootTag = defaultAccountRootTag
	}
	yt.RequiredTags = normalizeList(yt.RequiredTags, false)
	yt.PublishedTag = strings.TrimSpace(yt.PublishedTag)
	yt.DefaultTrackTag = strings.TrimSpace(yt.DefaultTrackTag)
	yt.AllowedFormats = normalizeList(yt.AllowedFormats, true)
	if len(yt.AllowedFormats) == 0 {
		yt.AllowedFormats = append([]string(nil), defaultAllowedFormats...)
	}
	yt.Privacy = strings.ToLower(strings.TrimSpace(yt.Privacy))
	if yt.Privacy == "" {
		yt.Privacy = defaultPrivacy
	}
	yt.PlaylistPrivacy = strings.ToLower(strings.TrimSpace(yt.PlaylistPrivacy))
	if yt.PlaylistPrivacy == "" {
		yt.PlaylistPrivacy = defaultPlaylistPrivacy
	}
	yt.PlaylistMaster = strings.ToLower(strings.TrimSpace(yt.PlaylistMaster))
	if yt.PlaylistMaster == "" {
		yt.PlaylistMaster = MasterLocal
	}
	yt.DefaultPlaylist = strings.TrimSpace(yt.DefaultPlaylist)
	yt.CaptionMimeTypes = normalizeList(yt.CaptionMimeTypes, true)
	if len(yt.CaptionMimeTypes) == 0 {
		yt.CaptionMimeTypes = append([]string(nil), defaultCaptionMimeTypes...)
	}
	if yt.TitleLimit <= 0 {
		yt.TitleLimit = defaultTitleLimit
	}
	yt.PlaybackURLTemplate = strings.TrimSpace(yt.PlaybackURLTemplate)
	if yt.ProcessTimeout <= 0 {
		yt.ProcessTimeout = defaultProcessTimeout
	}
	if yt.UploadLimit < 0 {
		yt.UploadLimit = 0
	}
}

func (c *Config) normalizeNotifications() {
	if value, ok := os.LookupEnv("YTBRIDGE_NTFY_TOPIC"); ok && strings.TrimSpace(value) != "" {
		c.Notifications.NtfyTopic = value
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeMetrics() error {
	c.Metrics.Textfile = strings.TrimSpace(c.Metrics.Textfile)
	if c.Metrics.Textfile == "" {
		return nil
	}
	var err error
	if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeList(values []string, lower bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if lower {
			normalized = strings.ToLower(strings.TrimPrefix(normalized, "."))
		}
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
