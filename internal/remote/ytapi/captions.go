package ytapi

import (
	"context"
	"io"

	"google.golang.org/api/youtube/v3"

	"ytbridge/internal/remote"
)

func (c *Client) InsertCaption(ctx context.Context, account string, caption remote.Caption, media io.Reader) (string, error) {
	var id string
	err := c.write(ctx, account, "captions.insert", func(svc *youtube.Service) error {
		resource := &youtube.Caption{
			Snippet: &youtube.CaptionSnippet{
				VideoId:  caption.VideoID,
				Language: caption.Language,
				Name:     caption.Name,
				IsDraft:  caption.IsDraft,
			},
		}
		call := svc.Captions.Insert([]string{"snippet"}, resource).Context(ctx)
		if media != nil {
			call = call.Media(media)
		}
		created, err := call.Do()
		if err != nil {
			return err
		}
		id = created.Id
		return nil
	})
	return id, err
}

func (c *Client) DeleteCaption(ctx context.Context, account, captionID string) error {
	return c.write(ctx, account, "captions.delete", func(svc *youtube.Service) error {
		return svc.Captions.Delete(captionID).Context(ctx).Do()
	})
}

func (c *Client) ListCaptions(ctx context.Context, account, videoID string) ([]remote.Caption, error) {
	var out []remote.Caption
	err := c.read(ctx, account, "captions.list", func(svc *youtube.Service) error {
		resp, err := svc.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
		if err != nil {
			return err
		}
		out = out[:0]
		for _, item := range resp.Items {
			entry := remote.Caption{ID: item.Id, VideoID: videoID}
			if item.Snippet != nil {
				entry.Language = item.Snippet.Language
				entry.Name = item.Snippet.Name
				entry.IsDraft = item.Snippet.IsDraft
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}
