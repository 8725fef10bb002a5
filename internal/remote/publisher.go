package remote

import (
	"context"
	"io"
)

// Remote upload-status vocabulary.
const (
	UploadDeleted   = "deleted"
	UploadFailed    = "failed"
	UploadProcessed = "processed"
	UploadRejected  = "rejected"
	UploadUploaded  = "uploaded"

	RejectionDuplicate = "duplicate"
)

// VideoMetadata is the snippet and status sent on insert and update.
type VideoMetadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
	Privacy     string
	Language    string
}

// VideoStatus is the processing state reported for a remote video.
type VideoStatus struct {
	UploadStatus    string
	RejectionReason string
	FailureReason   string
	PrivacyStatus   string
}

// Playlist is a remote playlist.
type Playlist struct {
	ID          string
	Title       string
	Description string
	Privacy     string
}

// PlaylistItem links a video into a playlist.
type PlaylistItem struct {
	ID         string
	PlaylistID string
	VideoID    string
}

// Caption is a remote caption track.
type Caption struct {
	ID       string
	VideoID  string
	Language string
	Name     string
	IsDraft  bool
}

// Publisher performs authenticated calls against one of the configured
// accounts. Every method reports failures as *Error.
type Publisher interface {
	InsertVideo(ctx context.Context, account string, meta VideoMetadata, media io.Reader) (string, error)
	UpdateVideo(ctx context.Context, account, videoID string, meta VideoMetadata) error
	DeleteVideo(ctx context.Context, account, videoID string) error
	VideoStatus(ctx context.Context, account, videoID string) (VideoStatus, error)

	InsertPlaylist(ctx context.Context, account string, playlist Playlist) (string, error)
	DeletePlaylist(ctx context.Context, account, playlistID string) error
	ListPlaylists(ctx context.Context, account string) ([]Playlist, error)
	InsertPlaylistItem(ctx context.Context, account, playlistID, videoID string) (string, error)
	DeletePlaylistItem(ctx context.Context, account, itemID string) error
	ListPlaylistItems(ctx context.Context, account, playlistID string) ([]PlaylistItem, error)

	InsertCaption(ctx context.Context, account string, caption Caption, media io.Reader) (string, error)
	DeleteCaption(ctx context.Context, account, captionID string) error
	ListCaptions(ctx context.Context, account, videoID string) ([]Caption, error)
}
