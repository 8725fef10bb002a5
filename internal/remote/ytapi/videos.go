package ytapi

import (
	"context"
	"io"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"ytbridge/internal/remote"
)

var videoParts = []string{"snippet", "status"}

func videoResource(id string, meta remote.VideoMetadata) *youtube.Video {
	return &youtube.Video{
		Id: id,
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      meta.Language,
			DefaultAudioLanguage: meta.Language,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: meta.Privacy,
		},
	}
}

func (c *Client) InsertVideo(ctx context.Context, account string, meta remote.VideoMetadata, media io.Reader) (string, error) {
	var id string
	err := c.write(ctx, account, "videos.insert", func(svc *youtube.Service) error {
		call := svc.Videos.Insert(videoParts, videoResource("", meta)).
			NotifySubscribers(false).
			Context(ctx)
		if media != nil {
			call = call.Media(media, googleapi.ContentType("application/octet-stream"))
		}
		video, err := call.Do()
		if err != nil {
			return err
		}
		id = video.Id
		return nil
	})
	return id, err
}

func (c *Client) UpdateVideo(ctx context.Context, account, videoID string, meta remote.VideoMetadata) error {
	return c.write(ctx, account, "videos.update", func(svc *youtube.Service) error {
		_, err := svc.Videos.Update(videoParts, videoResource(videoID, meta)).Context(ctx).Do()
		return err
	})
}

func (c *Client) DeleteVideo(ctx context.Context, account, videoID string) error {
	return c.write(ctx, account, "videos.delete", func(svc *youtube.Service) error {
		return svc.Videos.Delete(videoID).Context(ctx).Do()
	})
}

// VideoStatus reports the processing state of a video. A video the account
// can no longer see is reported as deleted.
func (c *Client) VideoStatus(ctx context.Context, account, videoID string) (remote.VideoStatus, error) {
	var status remote.VideoStatus
	err := c.read(ctx, account, "videos.list", func(svc *youtube.Service) error {
		resp, err := svc.Videos.List([]string{"status"}).Id(videoID).Context(ctx).Do()
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 || resp.Items[0].Status == nil {
			status = remote.VideoStatus{UploadStatus: remote.UploadDeleted}
			return nil
		}
		s := resp.Items[0].Status
		status = remote.VideoStatus{
			UploadStatus:    s.UploadStatus,
			RejectionReason: s.RejectionReason,
			FailureReason:   s.FailureReason,
			PrivacyStatus:   s.PrivacyStatus,
		}
		return nil
	})
	return status, err
}
