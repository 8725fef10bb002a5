package playlist_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"ytbridge/internal/catalog"
	"ytbridge/internal/config"
	"ytbridge/internal/logging"
	"ytbridge/internal/playlist"
	"ytbridge/internal/remote"
	"ytbridge/internal/services"
	"ytbridge/internal/store"
	"ytbridge/internal/syncstate"
	"ytbridge/internal/testsupport"
)

func TestDiff(t *testing.T) {
	toInsert, toDelete := playlist.Diff(
		[]string{"A", "C", "C", ""},
		map[string]string{"A": "itemA", "B": "itemB"},
	)
	if !reflect.DeepEqual(toInsert, []string{"C"}) {
		t.Fatalf("unexpected inserts: %v", toInsert)
	}
	if !reflect.DeepEqual(toDelete, map[string]string{"B": "itemB"}) {
		t.Fatalf("unexpected deletes: %v", toDelete)
	}

	toInsert, toDelete = playlist.Diff(nil, nil)
	if len(toInsert) != 0 || len(toDelete) != 0 {
		t.Fatalf("empty diff expected, got %v %v", toInsert, toDelete)
	}
}

func TestExceedsMaxLength(t *testing.T) {
	if playlist.ExceedsMaxLength(strings.Repeat("a", playlist.MaxTitleLength)) {
		t.Fatal("title at the limit should be accepted")
	}
	if !playlist.ExceedsMaxLength(strings.Repeat("é", playlist.MaxTitleLength+1)) {
		t.Fatal("title over the limit should be rejected")
	}
}

func TestResolveSingle(t *testing.T) {
	if got := playlist.ResolveSingle([]string{"A"}, "D"); got != "A" {
		t.Fatalf("single match: got %q", got)
	}
	if got := playlist.ResolveSingle(nil, "D"); got != "D" {
		t.Fatalf("no match: got %q", got)
	}
	if got := playlist.ResolveSingle([]string{"A", "B"}, "D"); got != "D" {
		t.Fatalf("ambiguous match: got %q", got)
	}
}

type fixture struct {
	cfg   *config.Config
	store *store.Store
	pub   *testsupport.FakePublisher
	rec   *playlist.Reconciler
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	st := testsupport.MustOpenStore(t, cfg)
	pub := testsupport.NewFakePublisher()
	return &fixture{
		cfg:   cfg,
		store: st,
		pub:   pub,
		rec:   playlist.New(cfg, st, st, pub, logging.NewNop()),
	}
}

func (f *fixture) tree(t *testing.T) *catalog.Tree {
	t.Helper()
	tags, err := f.store.Tags(context.Background())
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	return catalog.NewTree(tags)
}

func (f *fixture) account(t *testing.T, tree *catalog.Tree) *catalog.Tag {
	t.Helper()
	account, ok := tree.Tag(testsupport.AccountTag)
	if !ok {
		t.Fatal("account tag missing")
	}
	return account
}

func TestFixAssetConvergesRegardlessOfDeleteOutcome(t *testing.T) {
	for _, deleteFails := range []bool{false, true} {
		name := "delete succeeds"
		if deleteFails {
			name = "delete fails"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
			asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
			asset.Tags = []string{testsupport.PublishTag, testsupport.PlaylistA, testsupport.PlaylistC}
			testsupport.MustSaveAsset(t, f.store, asset)

			rec := syncstate.NewRecord("a1")
			rec.Status = syncstate.StatusPublished
			rec.RemoteID = "video-x"
			rec.AccountLogin = testsupport.AccountLogin
			rec.Playlists = map[string]string{"remote-A": "itemA", "remote-B": "itemB"}
			testsupport.MustSaveRecord(t, f.store, rec)

			f.pub.SetPlaylistItem(remote.PlaylistItem{ID: "itemA", PlaylistID: "remote-A", VideoID: "video-x"})
			f.pub.SetPlaylistItem(remote.PlaylistItem{ID: "itemB", PlaylistID: "remote-B", VideoID: "video-x"})
			if deleteFails {
				f.pub.FailMethod("DeletePlaylistItem", &remote.Error{Reason: "backendError", Message: "try later", StatusCode: 500})
			}

			err := f.rec.FixAsset(ctx, f.tree(t), asset, rec)
			if deleteFails && err == nil {
				t.Fatal("expected delete failure to be reported")
			}
			if !deleteFails && err != nil {
				t.Fatalf("FixAsset returned error: %v", err)
			}

			deletes := f.pub.Calls("DeletePlaylistItem")
			if len(deletes) != 1 || deletes[0].Args[0] != "itemB" {
				t.Fatalf("expected one delete for itemB, got %+v", deletes)
			}
			inserts := f.pub.Calls("InsertPlaylistItem")
			if len(inserts) != 1 || inserts[0].Args[0] != "remote-C" || inserts[0].Args[1] != "video-x" {
				t.Fatalf("expected one insert into remote-C, got %+v", inserts)
			}

			stored := testsupport.MustRecord(t, f.store, "a1")
			want := map[string]string{"remote-A": "itemA", "remote-C": "item-1"}
			if !reflect.DeepEqual(stored.Playlists, want) {
				t.Fatalf("unexpected playlists: got %v want %v", stored.Playlists, want)
			}
			if deleteFails {
				if stored.PlaylistError == nil || stored.PlaylistError.Reason != "backendError" {
					t.Fatalf("expected playlist error to be stored, got %+v", stored.PlaylistError)
				}
			} else if stored.PlaylistError != nil {
				t.Fatalf("unexpected playlist error: %+v", stored.PlaylistError)
			}
		})
	}
}

func TestFixAssetInsertFailureLeavesKeyAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	testsupport.MustSaveAsset(t, f.store, asset)

	rec := syncstate.NewRecord("a1")
	rec.RemoteID = "video-x"
	rec.AccountLogin = testsupport.AccountLogin
	f.pub.FailMethod("InsertPlaylistItem", &remote.Error{Reason: remote.ReasonQuotaExceeded, Message: "quota", StatusCode: 403})

	if err := f.rec.FixAsset(ctx, f.tree(t), asset, rec); err == nil {
		t.Fatal("expected insert failure")
	}
	if _, ok := rec.Playlists["remote-A"]; ok {
		t.Fatal("failed insert must not add the playlist key")
	}
	if rec.PlaylistError == nil || rec.PlaylistError.Reason != remote.ReasonQuotaExceeded {
		t.Fatalf("expected quota error, got %+v", rec.PlaylistError)
	}
}

func TestFixAssetUsesDefaultPlaylistWhenUntagged(t *testing.T) {
	f := newFixture(t, testsupport.WithDefaultPlaylist(testsupport.PlaylistB))
	ctx := context.Background()
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	asset.Tags = []string{testsupport.PublishTag, testsupport.AccountTag}
	testsupport.MustSaveAsset(t, f.store, asset)

	rec := syncstate.NewRecord("a1")
	rec.RemoteID = "video-x"
	rec.AccountLogin = testsupport.AccountLogin
	if err := f.rec.FixAsset(ctx, f.tree(t), asset, rec); err != nil {
		t.Fatalf("FixAsset: %v", err)
	}
	if _, ok := rec.Playlists["remote-B"]; !ok || len(rec.Playlists) != 1 {
		t.Fatalf("expected default playlist membership, got %v", rec.Playlists)
	}
}

func TestFixAssetWithoutAccountIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	asset.Tags = []string{testsupport.PublishTag}
	rec := syncstate.NewRecord("a1")
	rec.RemoteID = "video-x"

	err := f.rec.FixAsset(context.Background(), f.tree(t), asset, rec)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSyncAccountLocalMasterCreatesAndDeletes(t *testing.T) {
	f := newFixture(t, testsupport.WithDeletePlaylists())
	ctx := context.Background()
	tags := testsupport.AccountTags()
	// PL_A stays linked, PL_B points at a vanished playlist, PL_C has a title that is too long.
	for _, tag := range tags {
		switch tag.Code {
		case testsupport.PlaylistC:
			tag.RemoteID = ""
			tag.Title = strings.Repeat("x", playlist.MaxTitleLength+1)
		}
	}
	testsupport.MustSaveTags(t, f.store, tags...)
	f.pub.SetPlaylist(testsupport.AccountLogin, remote.Playlist{ID: "remote-A", Title: "Playlist A"})
	f.pub.SetPlaylist(testsupport.AccountLogin, remote.Playlist{ID: "stray", Title: "Stray"})

	tree := f.tree(t)
	if err := f.rec.SyncAccount(ctx, tree, f.account(t, tree)); err != nil {
		t.Fatalf("SyncAccount: %v", err)
	}

	after := f.tree(t)
	plB, _ := after.Tag(testsupport.PlaylistB)
	if plB.RemoteID == "remote-B" || plB.RemoteID == "" {
		t.Fatalf("expected PL_B to be recreated, got remote id %q", plB.RemoteID)
	}
	if !f.pub.HasPlaylist(plB.RemoteID) {
		t.Fatal("recreated playlist missing remotely")
	}
	plC, _ := after.Tag(testsupport.PlaylistC)
	if plC.Error == "" || plC.RemoteID != "" {
		t.Fatalf("expected PL_C to carry a length error, got %+v", plC)
	}
	if f.pub.HasPlaylist("stray") {
		t.Fatal("unclaimed playlist should be deleted")
	}
	if !f.pub.HasPlaylist("remote-A") {
		t.Fatal("claimed playlist must survive")
	}
	if f.pub.CallCount("InsertPlaylist") != 1 {
		t.Fatalf("expected exactly one playlist creation, got %d", f.pub.CallCount("InsertPlaylist"))
	}
}

func TestSyncAccountRemoteMasterCreatesAndUnlinksTags(t *testing.T) {
	f := newFixture(t, testsupport.WithRemoteMaster(), testsupport.WithDeletePlaylists())
	ctx := context.Background()
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	asset.Tags = []string{testsupport.PublishTag, testsupport.PlaylistB}
	testsupport.MustSaveAsset(t, f.store, asset)
	rec := syncstate.NewRecord("a1")
	rec.Playlists = map[string]string{"remote-B": "itemB"}
	testsupport.MustSaveRecord(t, f.store, rec)

	f.pub.SetPlaylist(testsupport.AccountLogin, remote.Playlist{ID: "remote-A", Title: "Renamed A"})
	f.pub.SetPlaylist(testsupport.AccountLogin, remote.Playlist{ID: "remote-C", Title: "Playlist C"})
	f.pub.SetPlaylist(testsupport.AccountLogin, remote.Playlist{ID: "remote-N", Title: "New one"})

	tree := f.tree(t)
	if err := f.rec.SyncAccount(ctx, tree, f.account(t, tree)); err != nil {
		t.Fatalf("SyncAccount: %v", err)
	}

	after := f.tree(t)
	created, ok := after.Tag(testsupport.AccountTag + "_remote-N")
	if !ok || created.RemoteID != "remote-N" || created.ParentCode != testsupport.AccountTag {
		t.Fatalf("expected tag for remote-N, got %+v", created)
	}
	plA, _ := after.Tag(testsupport.PlaylistA)
	if plA.Title != "Renamed A" {
		t.Fatalf("expected title to follow remote, got %q", plA.Title)
	}
	if _, ok := after.Tag(testsupport.PlaylistB); ok {
		t.Fatal("tag for vanished playlist should be removed")
	}
	if testsupport.MustAsset(t, f.store, "a1").HasTag(testsupport.PlaylistB) {
		t.Fatal("asset should be unlinked from removed tag")
	}
	if _, ok := testsupport.MustRecord(t, f.store, "a1").Playlists["remote-B"]; ok {
		t.Fatal("record should be unlinked from removed playlist")
	}
	if f.pub.CallCount("InsertPlaylist") != 0 {
		t.Fatal("remote master must not create remote playlists")
	}
}

func TestFixAssetRemoteMasterAdoptsSingleMembership(t *testing.T) {
	f := newFixture(t, testsupport.WithRemoteMaster())
	ctx := context.Background()
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	testsupport.MustSaveAsset(t, f.store, asset)
	f.pub.SetPlaylistItem(remote.PlaylistItem{ID: "itemC", PlaylistID: "remote-C", VideoID: "video-x"})

	rec := syncstate.NewRecord("a1")
	rec.RemoteID = "video-x"
	rec.AccountLogin = testsupport.AccountLogin
	if err := f.rec.FixAsset(ctx, f.tree(t), asset, rec); err != nil {
		t.Fatalf("FixAsset: %v", err)
	}

	stored := testsupport.MustAsset(t, f.store, "a1")
	if !stored.HasTag(testsupport.PlaylistC) || stored.HasTag(testsupport.PlaylistA) {
		t.Fatalf("asset should move to PL_C, tags=%v", stored.Tags)
	}
	if !reflect.DeepEqual(rec.Playlists, map[string]string{"remote-C": "itemC"}) {
		t.Fatalf("record should mirror remote membership, got %v", rec.Playlists)
	}
	if f.pub.CallCount("InsertPlaylistItem") != 0 || f.pub.CallCount("DeletePlaylistItem") != 0 {
		t.Fatal("remote membership must not be modified")
	}
}

func TestFixAssetRemoteMasterFallsBackToDefault(t *testing.T) {
	f := newFixture(t, testsupport.WithRemoteMaster(), testsupport.WithDefaultPlaylist(testsupport.PlaylistB))
	ctx := context.Background()
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	testsupport.MustSaveAsset(t, f.store, asset)

	rec := syncstate.NewRecord("a1")
	rec.RemoteID = "video-x"
	rec.AccountLogin = testsupport.AccountLogin
	if err := f.rec.FixAsset(ctx, f.tree(t), asset, rec); err != nil {
		t.Fatalf("FixAsset: %v", err)
	}
	stored := testsupport.MustAsset(t, f.store, "a1")
	if !stored.HasTag(testsupport.PlaylistB) || stored.HasTag(testsupport.PlaylistA) {
		t.Fatalf("asset should fall back to default playlist, tags=%v", stored.Tags)
	}
	if _, ok := rec.Playlists["remote-B"]; !ok {
		t.Fatalf("video should be added to the default playlist, got %v", rec.Playlists)
	}
}

func TestFixAssetRemoteMasterCollapsesAmbiguousMembership(t *testing.T) {
	f := newFixture(t, testsupport.WithRemoteMaster(), testsupport.WithDefaultPlaylist(testsupport.PlaylistB))
	ctx := context.Background()
	testsupport.MustSaveTags(t, f.store, testsupport.AccountTags()...)
	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(f.cfg), "a1")
	testsupport.MustSaveAsset(t, f.store, asset)
	f.pub.SetPlaylistItem(remote.PlaylistItem{ID: "itemA", PlaylistID: "remote-A", VideoID: "video-x"})
	f.pub.SetPlaylistItem(remote.PlaylistItem{ID: "itemC", PlaylistID: "remote-C", VideoID: "video-x"})

	rec := syncstate.NewRecord("a1")
	rec.RemoteID = "video-x"
	rec.AccountLogin = testsupport.AccountLogin
	if err := f.rec.FixAsset(ctx, f.tree(t), asset, rec); err != nil {
		t.Fatalf("FixAsset: %v", err)
	}

	stored := testsupport.MustAsset(t, f.store, "a1")
	if !stored.HasTag(testsupport.PlaylistB) || stored.HasTag(testsupport.PlaylistA) || stored.HasTag(testsupport.PlaylistC) {
		t.Fatalf("asset should move to the default playlist only, tags=%v", stored.Tags)
	}
	if len(rec.Playlists) != 1 {
		t.Fatalf("video should only be in the default playlist, got %v", rec.Playlists)
	}
	if _, ok := rec.Playlists["remote-B"]; !ok {
		t.Fatalf("video should be added to the default playlist, got %v", rec.Playlists)
	}
	if f.pub.CallCount("DeletePlaylistItem") != 2 || f.pub.CallCount("InsertPlaylistItem") != 1 {
		t.Fatalf("expected two removals and one insert, got %d and %d",
			f.pub.CallCount("DeletePlaylistItem"), f.pub.CallCount("InsertPlaylistItem"))
	}
}
