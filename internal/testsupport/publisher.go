package testsupport

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"ytbridge/internal/remote"
)

// Call records one invocation of the fake publisher.
type Call struct {
	Method  string
	Account string
	Args    []string
}

// FakeVideo is the fake's view of an uploaded video.
type FakeVideo struct {
	Account string
	Meta    remote.VideoMetadata
	Media   []byte
	Status  remote.VideoStatus
}

type fakePlaylist struct {
	account  string
	playlist remote.Playlist
}

// FakePublisher is an in-memory remote.Publisher that records calls and lets
// tests inject failures.
type FakePublisher struct {
	mu sync.Mutex

	// FailWith returns the error a call should fail with, or nil. It sees the
	// method name and the call's identifying arguments.
	FailWith func(method string, args ...string) error

	videos    map[string]*FakeVideo
	playlists map[string]fakePlaylist
	items     map[string]remote.PlaylistItem
	captions  map[string]remote.Caption
	calls     []Call
	nextID    int
}

var _ remote.Publisher = (*FakePublisher)(nil)

// NewFakePublisher returns an empty fake.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{
		videos:    map[string]*FakeVideo{},
		playlists: map[string]fakePlaylist{},
		items:     map[string]remote.PlaylistItem{},
		captions:  map[string]remote.Caption{},
	}
}

// FailMethod makes every call to method fail with err.
func (f *FakePublisher) FailMethod(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	previous := f.FailWith
	f.FailWith = func(m string, args ...string) error {
		if m == method {
			return err
		}
		if previous != nil {
			return previous(m, args...)
		}
		return nil
	}
}

func (f *FakePublisher) record(method, account string, args ...string) error {
	f.calls = append(f.calls, Call{Method: method, Account: account, Args: args})
	if f.FailWith != nil {
		return f.FailWith(method, args...)
	}
	return nil
}

func (f *FakePublisher) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// Calls returns recorded calls, optionally filtered by method.
func (f *FakePublisher) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, call := range f.calls {
		if method == "" || call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// CallCount counts calls to method.
func (f *FakePublisher) CallCount(method string) int {
	return len(f.Calls(method))
}

// Video returns the fake video with id.
func (f *FakePublisher) Video(id string) (*FakeVideo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.videos[id]
	return v, ok
}

// SetVideo seeds a remote video.
func (f *FakePublisher) SetVideo(id, account string, status remote.VideoStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[id] = &FakeVideo{Account: account, Status: status}
}

// SetPlaylist seeds a remote playlist.
func (f *FakePublisher) SetPlaylist(account string, playlist remote.Playlist) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[playlist.ID] = fakePlaylist{account: account, playlist: playlist}
}

// HasPlaylist reports whether a playlist exists remotely.
func (f *FakePublisher) HasPlaylist(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.playlists[id]
	return ok
}

// SetPlaylistItem seeds a playlist membership.
func (f *FakePublisher) SetPlaylistItem(item remote.PlaylistItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
}

func (f *FakePublisher) InsertVideo(_ context.Context, account string, meta remote.VideoMetadata, media io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertVideo", account, meta.Title); err != nil {
		return "", err
	}
	var data []byte
	if media != nil {
		var err error
		if data, err = io.ReadAll(media); err != nil {
			return "", remote.NewError(remote.ReasonTransport, err.Error())
		}
	}
	id := f.newID("video")
	f.videos[id] = &FakeVideo{
		Account: account,
		Meta:    meta,
		Media:   data,
		Status:  remote.VideoStatus{UploadStatus: remote.UploadUploaded, PrivacyStatus: meta.Privacy},
	}
	return id, nil
}

func (f *FakePublisher) UpdateVideo(_ context.Context, account, videoID string, meta remote.VideoMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateVideo", account, videoID); err != nil {
		return err
	}
	video, ok := f.videos[videoID]
	if !ok {
		return &remote.Error{Reason: remote.ReasonVideoNotFound, Message: "video " + videoID + " not found", StatusCode: 404}
	}
	video.Meta = meta
	return nil
}

func (f *FakePublisher) DeleteVideo(_ context.Context, account, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteVideo", account, videoID); err != nil {
		return err
	}
	if _, ok := f.videos[videoID]; !ok {
		return &remote.Error{Reason: remote.ReasonVideoNotFound, Message: "video " + videoID + " not found", StatusCode: 404}
	}
	delete(f.videos, videoID)
	return nil
}

func (f *FakePublisher) VideoStatus(_ context.Context, account, videoID string) (remote.VideoStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("VideoStatus", account, videoID); err != nil {
		return remote.VideoStatus{}, err
	}
	video, ok := f.videos[videoID]
	if !ok {
		return remote.VideoStatus{UploadStatus: remote.UploadDeleted}, nil
	}
	return video.Status, nil
}

func (f *FakePublisher) InsertPlaylist(_ context.Context, account string, playlist remote.Playlist) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertPlaylist", account, playlist.Title); err != nil {
		return "", err
	}
	playlist.ID = f.newID("playlist")
	f.playlists[playlist.ID] = fakePlaylist{account: account, playlist: playlist}
	return playlist.ID, nil
}

func (f *FakePublisher) DeletePlaylist(_ context.Context, account, playlistID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeletePlaylist", account, playlistID); err != nil {
		return err
	}
	if _, ok := f.playlists[playlistID]; !ok {
		return &remote.Error{Reason: remote.ReasonPlaylistNotFound, Message: "playlist not found", StatusCode: 404}
	}
	delete(f.playlists, playlistID)
	return nil
}

func (f *FakePublisher) ListPlaylists(_ context.Context, account string) ([]remote.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListPlaylists", account); err != nil {
		return nil, err
	}
	var out []remote.Playlist
	for _, p := range f.playlists {
		if p.account == account {
			out = append(out, p.playlist)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakePublisher) InsertPlaylistItem(_ context.Context, account, playlistID, videoID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertPlaylistItem", account, playlistID, videoID); err != nil {
		return "", err
	}
	id := f.newID("item")
	f.items[id] = remote.PlaylistItem{ID: id, PlaylistID: playlistID, VideoID: videoID}
	return id, nil
}

func (f *FakePublisher) DeletePlaylistItem(_ context.Context, account, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeletePlaylistItem", account, itemID); err != nil {
		return err
	}
	delete(f.items, itemID)
	return nil
}

func (f *FakePublisher) ListPlaylistItems(_ context.Context, account, playlistID string) ([]remote.PlaylistItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListPlaylistItems", account, playlistID); err != nil {
		return nil, err
	}
	var out []remote.PlaylistItem
	for _, item := range f.items {
		if item.PlaylistID == playlistID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakePublisher) InsertCaption(_ context.Context, account string, caption remote.Caption, media io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("InsertCaption", account, caption.VideoID, caption.Language, caption.Name); err != nil {
		return "", err
	}
	if media != nil {
		if _, err := io.Copy(io.Discard, media); err != nil {
			return "", remote.NewError(remote.ReasonTransport, err.Error())
		}
	}
	caption.ID = f.newID("caption")
	f.captions[caption.ID] = caption
	return caption.ID, nil
}

func (f *FakePublisher) DeleteCaption(_ context.Context, account, captionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteCaption", account, captionID); err != nil {
		return err
	}
	if _, ok := f.captions[captionID]; !ok {
		return &remote.Error{Reason: remote.ReasonCaptionNotFound, Message: "caption not found", StatusCode: 404}
	}
	delete(f.captions, captionID)
	return nil
}

func (f *FakePublisher) ListCaptions(_ context.Context, account, videoID string) ([]remote.Caption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("ListCaptions", account, videoID); err != nil {
		return nil, err
	}
	var out []remote.Caption
	for _, c := range f.captions {
		if c.VideoID == videoID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
