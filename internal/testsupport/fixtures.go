package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytbridge/internal/catalog"
)

// Fixture tag codes.
const (
	AccountRoot  = "YOUTUBE"
	AccountTag   = "YT_MAIN"
	AccountLogin = "main@example.com"
	PublishTag   = "PUCHYOUTUBE"
	PlaylistA    = "PL_A"
	PlaylistB    = "PL_B"
	PlaylistC    = "PL_C"
)

// AccountTags returns the account root, one account, and three playlists with remote ids.
func AccountTags() []*catalog.Tag {
	return []*catalog.Tag{
		{Code: AccountRoot, Title: "YouTube"},
		{Code: AccountTag, ParentCode: AccountRoot, Title: "Main channel", Properties: map[string]string{catalog.LoginProperty: AccountLogin}},
		{Code: PlaylistA, ParentCode: AccountTag, Title: "Playlist A", RemoteID: "remote-A", IsPlaylist: true},
		{Code: PlaylistB, ParentCode: AccountTag, Title: "Playlist B", RemoteID: "remote-B", IsPlaylist: true},
		{Code: PlaylistC, ParentCode: AccountTag, Title: "Playlist C", RemoteID: "remote-C", IsPlaylist: true},
		{Code: PublishTag, Title: "Publish to YouTube"},
	}
}

// WriteFile writes content into the config base dir and returns its path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// PublishableAsset returns an asset satisfying the default publish predicate,
// with a master track written under dir and membership in playlist A.
func PublishableAsset(t testing.TB, dir, id string) *catalog.Asset {
	t.Helper()
	trackPath := WriteFile(t, dir, filepath.Join("media", id+".mp4"), "video-bytes-"+id)
	return &catalog.Asset{
		ID:          id,
		Title:       "Lecture " + id,
		Description: "Recorded lecture",
		Keywords:    []string{"physics", "lecture"},
		Series:      catalog.Series{ID: "s1", Title: "Physics 101"},
		RecordDate:  time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
		Status:      catalog.StatusPublished,
		Broadcast:   catalog.BroadcastPublic,
		Tags:        []string{PublishTag, PlaylistA},
		Tracks: []catalog.Track{
			{ID: id + "-t1", Path: trackPath, Tags: []string{"master"}, Format: "mp4"},
		},
		UpdatedAt: time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC),
	}
}
