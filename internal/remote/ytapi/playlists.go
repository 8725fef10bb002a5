package ytapi

import (
	"context"

	"google.golang.org/api/youtube/v3"

	"ytbridge/internal/remote"
)

func (c *Client) InsertPlaylist(ctx context.Context, account string, playlist remote.Playlist) (string, error) {
	var id string
	err := c.write(ctx, account, "playlists.insert", func(svc *youtube.Service) error {
		resource := &youtube.Playlist{
			Snippet: &youtube.PlaylistSnippet{
				Title:       playlist.Title,
				Description: playlist.Description,
			},
			Status: &youtube.PlaylistStatus{PrivacyStatus: playlist.Privacy},
		}
		created, err := svc.Playlists.Insert([]string{"snippet", "status"}, resource).Context(ctx).Do()
		if err != nil {
			return err
		}
		id = created.Id
		return nil
	})
	return id, err
}

func (c *Client) DeletePlaylist(ctx context.Context, account, playlistID string) error {
	return c.write(ctx, account, "playlists.delete", func(svc *youtube.Service) error {
		return svc.Playlists.Delete(playlistID).Context(ctx).Do()
	})
}

// ListPlaylists returns every playlist owned by the account.
func (c *Client) ListPlaylists(ctx context.Context, account string) ([]remote.Playlist, error) {
	var out []remote.Playlist
	pageToken := ""
	for {
		err := c.read(ctx, account, "playlists.list", func(svc *youtube.Service) error {
			resp, err := svc.Playlists.List([]string{"snippet", "status"}).
				Mine(true).
				MaxResults(pageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			for _, item := range resp.Items {
				p := remote.Playlist{ID: item.Id}
				if item.Snippet != nil {
					p.Title = item.Snippet.Title
					p.Description = item.Snippet.Description
				}
				if item.Status != nil {
					p.Privacy = item.Status.PrivacyStatus
				}
				out = append(out, p)
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if pageToken == "" {
			return out, nil
		}
	}
}

func (c *Client) InsertPlaylistItem(ctx context.Context, account, playlistID, videoID string) (string, error) {
	var id string
	err := c.write(ctx, account, "playlistItems.insert", func(svc *youtube.Service) error {
		resource := &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: videoID},
			},
		}
		created, err := svc.PlaylistItems.Insert([]string{"snippet"}, resource).Context(ctx).Do()
		if err != nil {
			return err
		}
		id = created.Id
		return nil
	})
	return id, err
}

func (c *Client) DeletePlaylistItem(ctx context.Context, account, itemID string) error {
	return c.write(ctx, account, "playlistItems.delete", func(svc *youtube.Service) error {
		return svc.PlaylistItems.Delete(itemID).Context(ctx).Do()
	})
}

// ListPlaylistItems returns every membership of a playlist.
func (c *Client) ListPlaylistItems(ctx context.Context, account, playlistID string) ([]remote.PlaylistItem, error) {
	var out []remote.PlaylistItem
	pageToken := ""
	for {
		err := c.read(ctx, account, "playlistItems.list", func(svc *youtube.Service) error {
			resp, err := svc.PlaylistItems.List([]string{"snippet"}).
				PlaylistId(playlistID).
				MaxResults(pageSize).
				PageToken(pageToken).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			for _, item := range resp.Items {
				entry := remote.PlaylistItem{ID: item.Id, PlaylistID: playlistID}
				if item.Snippet != nil && item.Snippet.ResourceId != nil {
					entry.VideoID = item.Snippet.ResourceId.VideoId
				}
				out = append(out, entry)
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if pageToken == "" {
			return out, nil
		}
	}
}
