package config

const (
	defaultDataDir             = "~/.local/share/ytbridge"
	defaultLogDir              = "~/.local/share/ytbridge/logs"
	defaultCredentialsDir      = "~/.config/ytbridge/credentials"
	defaultClientSecrets       = "~/.config/ytbridge/client_secrets.json"
	defaultAccountRootTag      = "YOUTUBE"
	defaultRequiredTag         = "PUCHYOUTUBE"
	defaultPublishedTag        = "PUBLISHED_YOUTUBE"
	defaultTrackTag            = "master"
	defaultPrivacy             = "public"
	defaultPlaylistPrivacy     = "public"
	defaultTitleLimit          = 100
	defaultProcessTimeout      = 3600
	defaultUploadLimit         = 0
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultPlaybackURLTemplate = ""
)

var (
	defaultAllowedFormats   = []string{"mp4", "m4v", "mov", "mkv", "webm", "avi", "flv", "mpg", "mpeg", "wmv", "3gp"}
	defaultCaptionMimeTypes = []string{"vtt", "srt", "dfxp"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        defaultDataDir,
			LogDir:         defaultLogDir,
			CredentialsDir: defaultCredentialsDir,
			ClientSecrets:  defaultClientSecrets,
		},
		YouTube: YouTube{
			AccountRootTag:      defaultAccountRootTag,
			RequiredTags:        []string{defaultRequiredTag},
			PublishedTag:        defaultPublishedTag,
			DefaultTrackTag:     defaultTrackTag,
			AllowedFormats:      append([]string(nil), defaultAllowedFormats...),
			Privacy:             defaultPrivacy,
			ExcludeLegacy:       true,
			PlaylistMaster:      MasterLocal,
			PlaylistPrivacy:     defaultPlaylistPrivacy,
			CaptionMimeTypes:    append([]string(nil), defaultCaptionMimeTypes...),
			TitleLimit:          defaultTitleLimit,
			PlaybackURLTemplate: defaultPlaybackURLTemplate,
			ProcessTimeout:      defaultProcessTimeout,
			UploadLimit:         defaultUploadLimit,
		},
		Notifications: Notifications{
			Enabled:        true,
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
