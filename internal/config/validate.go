package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateYouTube() error {
	yt := c.YouTube
	if strings.TrimSpace(yt.AccountRootTag) == "" {
		return errors.New("youtube.account_root_tag must be set")
	}
	if len(yt.RequiredTags) == 0 {
		return errors.New("youtube.required_tags must include at least one publication tag")
	}
	switch yt.PlaylistMaster {
	case MasterLocal, MasterRemote:
	default:
		return fmt.Errorf("youtube.playlist_master must be %q or %q, got %q", MasterLocal, MasterRemote, yt.PlaylistMaster)
	}
	if err := validatePrivacy("youtube.privacy", yt.Privacy); err != nil {
		return err
	}
	if err := validatePrivacy("youtube.playlist_privacy", yt.PlaylistPrivacy); err != nil {
		return err
	}
	if yt.UseDefaultPlaylist && yt.DefaultPlaylist == "" {
		return errors.New("youtube.default_playlist must be set when youtube.use_default_playlist is true")
	}
	if yt.TitleLimit < 10 {
		return errors.New("youtube.title_limit must be at least 10")
	}
	if err := ensurePositiveMap(map[string]int{
		"youtube.process_timeout": yt.ProcessTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func validatePrivacy(key, value string) error {
	switch value {
	case "public", "unlisted", "private":
		return nil
	default:
		return fmt.Errorf("%s must be one of public, unlisted, private; got %q", key, value)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
