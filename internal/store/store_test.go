package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ytbridge/internal/catalog"
	"ytbridge/internal/store"
	"ytbridge/internal/syncstate"
	"ytbridge/internal/testsupport"
)

func TestOpenCreatesDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if st.Path() != filepath.Join(cfg.Paths.DataDir, "ytbridge.db") {
		t.Fatalf("unexpected db path: %s", st.Path())
	}

	// Reopening an initialized database must pass the schema version check.
	st2, err := store.OpenPath(st.Path())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	st2.Close()
}

func TestAssetRoundTripAndPredicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	a1 := testsupport.PublishableAsset(t, testsupport.BaseDir(cfg), "a1")
	a2 := testsupport.PublishableAsset(t, testsupport.BaseDir(cfg), "a2")
	a2.Status = catalog.StatusHidden
	testsupport.MustSaveAsset(t, st, a1)
	testsupport.MustSaveAsset(t, st, a2)

	got, err := st.AssetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("AssetByID: %v", err)
	}
	if got == nil || got.Title != a1.Title || len(got.Tracks) != 1 || got.Tracks[0].Tags[0] != "master" {
		t.Fatalf("unexpected asset: %+v", got)
	}
	if !got.RecordDate.Equal(a1.RecordDate) {
		t.Fatalf("record date lost: %v", got.RecordDate)
	}

	missing, err := st.AssetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for missing asset, got %v %v", missing, err)
	}

	hidden, err := st.FindAssets(ctx, func(a *catalog.Asset) bool { return a.Status == catalog.StatusHidden })
	if err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if len(hidden) != 1 || hidden[0].ID != "a2" {
		t.Fatalf("unexpected predicate result: %+v", hidden)
	}
	all, err := st.FindAssets(ctx, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two assets, got %d err %v", len(all), err)
	}
}

func TestTagsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustSaveTags(t, st, testsupport.AccountTags()...)

	tags, err := st.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	tree := catalog.NewTree(tags)
	account, ok := tree.AccountFor(testsupport.PlaylistA)
	if !ok || account.Login() != testsupport.AccountLogin {
		t.Fatalf("expected account login to survive round trip, got %+v", account)
	}
	pl, _ := tree.Tag(testsupport.PlaylistB)
	if !pl.IsPlaylist || pl.RemoteID != "remote-B" {
		t.Fatalf("unexpected playlist tag: %+v", pl)
	}

	pl.Error = "title too long"
	if err := st.SaveTag(ctx, pl); err != nil {
		t.Fatalf("SaveTag update: %v", err)
	}
	if err := st.DeleteTag(ctx, testsupport.PlaylistC); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	tags, _ = st.Tags(ctx)
	tree = catalog.NewTree(tags)
	if _, ok := tree.Tag(testsupport.PlaylistC); ok {
		t.Fatal("expected playlist C to be deleted")
	}
	if updated, _ := tree.Tag(testsupport.PlaylistB); updated.Error != "title too long" {
		t.Fatalf("expected tag error to persist, got %q", updated.Error)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := syncstate.NewRecord("a1")
	rec.Status = syncstate.StatusPublished
	rec.RemoteID = "vid-1"
	rec.AccountLogin = testsupport.AccountLogin
	rec.Playlists = map[string]string{"remote-A": "item-1"}
	rec.Captions = []syncstate.CaptionRecord{{MaterialID: "m1", RemoteID: "cap-1", Language: "en", UpdatedAt: now}}
	rec.LastError = &syncstate.ErrorRecord{Reason: "forbidden", Message: "nope", Timestamp: now}
	rec.SyncMetadataDate = now
	rec.AssetUpdateDate = now
	rec.Force = true
	testsupport.MustSaveRecord(t, st, rec)

	got := testsupport.MustRecord(t, st, "a1")
	if got.ID != rec.ID || got.Status != syncstate.StatusPublished || got.RemoteID != "vid-1" || !got.Force {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Playlists["remote-A"] != "item-1" {
		t.Fatalf("playlists lost: %+v", got.Playlists)
	}
	if len(got.Captions) != 1 || got.Captions[0].RemoteID != "cap-1" {
		t.Fatalf("captions lost: %+v", got.Captions)
	}
	if got.LastError == nil || got.LastError.Reason != "forbidden" {
		t.Fatalf("last error lost: %+v", got.LastError)
	}
	if got.CaptionError != nil || got.PlaylistError != nil {
		t.Fatal("expected empty error columns to stay nil")
	}
	if !got.SyncMetadataDate.Equal(now) || got.CreatedAt.IsZero() {
		t.Fatalf("timestamps lost: %+v", got)
	}

	byRemote, err := st.RecordByRemoteID(ctx, "vid-1")
	if err != nil || byRemote == nil || byRemote.ID != rec.ID {
		t.Fatalf("RecordByRemoteID: %+v %v", byRemote, err)
	}

	got.LastError = nil
	got.Status = syncstate.StatusRemoved
	testsupport.MustSaveRecord(t, st, got)
	again, _ := st.RecordByID(ctx, rec.ID)
	if again.LastError != nil || again.Status != syncstate.StatusRemoved {
		t.Fatalf("update not persisted: %+v", again)
	}
}

func TestRecordsByStatusAndCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, tc := range []struct {
		asset  string
		status syncstate.Status
	}{
		{"a1", syncstate.StatusUploading},
		{"a2", syncstate.StatusProcessing},
		{"a3", syncstate.StatusPublished},
		{"a4", syncstate.StatusProcessing},
	} {
		rec := syncstate.NewRecord(tc.asset)
		rec.Status = tc.status
		testsupport.MustSaveRecord(t, st, rec)
	}

	fast, err := st.RecordsByStatus(ctx, syncstate.StatusUploading, syncstate.StatusProcessing)
	if err != nil {
		t.Fatalf("RecordsByStatus: %v", err)
	}
	if len(fast) != 3 {
		t.Fatalf("expected 3 fast-path records, got %d", len(fast))
	}
	all, _ := st.RecordsByStatus(ctx)
	if len(all) != 4 {
		t.Fatalf("expected all records without a filter, got %d", len(all))
	}

	ids, err := st.AssetIDsByStatus(ctx, syncstate.StatusProcessing)
	if err != nil {
		t.Fatalf("AssetIDsByStatus: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a2" || ids[1] != "a4" {
		t.Fatalf("unexpected asset ids: %v", ids)
	}

	counts, err := st.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if counts[syncstate.StatusProcessing] != 2 || counts[syncstate.StatusPublished] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestSaveAssetStampsRecordUpdateDate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	asset := testsupport.PublishableAsset(t, testsupport.BaseDir(cfg), "a1")
	testsupport.MustSaveAsset(t, st, asset)

	rec := syncstate.NewRecord("a1")
	rec.Status = syncstate.StatusPublished
	rec.SyncMetadataDate = asset.UpdatedAt
	rec.AssetUpdateDate = asset.UpdatedAt
	testsupport.MustSaveRecord(t, st, rec)
	if testsupport.MustRecord(t, st, "a1").Stale() {
		t.Fatal("record should start in sync")
	}

	asset.Title = "Renamed"
	asset.UpdatedAt = asset.UpdatedAt.Add(time.Hour)
	if err := st.SaveAsset(ctx, asset); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}
	if !testsupport.MustRecord(t, st, "a1").Stale() {
		t.Fatal("catalog edit should make the record stale")
	}
}

func TestDeleteAssetRunsHooks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustSaveAsset(t, st, testsupport.PublishableAsset(t, testsupport.BaseDir(cfg), "a1"))
	testsupport.MustSaveAsset(t, st, testsupport.PublishableAsset(t, testsupport.BaseDir(cfg), "a2"))

	var seen []string
	st.OnAssetDelete(func(_ context.Context, id string) error {
		seen = append(seen, id)
		if id == "a2" {
			return errors.New("refuse")
		}
		return nil
	})

	if err := st.DeleteAsset(ctx, "a1"); err != nil {
		t.Fatalf("DeleteAsset: %v", err)
	}
	if asset, _ := st.AssetByID(ctx, "a1"); asset != nil {
		t.Fatal("expected asset a1 to be deleted")
	}
	if err := st.DeleteAsset(ctx, "a2"); err == nil {
		t.Fatal("expected failing hook to abort delete")
	}
	if asset, _ := st.AssetByID(ctx, "a2"); asset == nil {
		t.Fatal("asset a2 must survive an aborted delete")
	}
	if len(seen) != 2 {
		t.Fatalf("expected hooks for both deletes, got %v", seen)
	}
}

func TestImportBundle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	path := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "bundle.json", `{
  "tags": [
    {"code": "YOUTUBE", "title": "YouTube"},
    {"code": "YT_MAIN", "parent_code": "YOUTUBE", "title": "Main", "properties": {"login": "main@example.com"}}
  ],
  "assets": [
    {"id": "a1", "title": "Lecture", "status": 0, "broadcast": "public", "tags": ["YT_MAIN"]}
  ]
}`)
	bundle, err := catalog.LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	tags, assets, err := catalog.Import(ctx, st, bundle)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if tags != 2 || assets != 1 {
		t.Fatalf("unexpected import counts: %d tags %d assets", tags, assets)
	}
	asset := testsupport.MustAsset(t, st, "a1")
	if asset.UpdatedAt.IsZero() {
		t.Fatal("expected import to stamp UpdatedAt")
	}

	bad := testsupport.WriteFile(t, testsupport.BaseDir(cfg), "bad.json", `{"assets":[{"title":"no id"}]}`)
	if _, err := catalog.LoadBundle(bad); err == nil {
		t.Fatal("expected bundle without asset id to fail")
	}
}

func TestImportBundleKeepsEngineOwnedState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	published := cfg.YouTube.PublishedTag

	testsupport.MustSaveTags(t, st,
		&catalog.Tag{Code: "YOUTUBE", Title: "YouTube"},
		&catalog.Tag{Code: "PL_A", ParentCode: "YOUTUBE", Title: "A", RemoteID: "remote-A", IsPlaylist: true},
		&catalog.Tag{Code: "PL_B", ParentCode: "YOUTUBE", Title: "B", IsPlaylist: true, Error: "title too long"},
	)
	testsupport.MustSaveAsset(t, st, &catalog.Asset{ID: "a1", Title: "Lecture", Tags: []string{"PL_A", published}})

	bundle := &catalog.Bundle{
		Tags: []*catalog.Tag{
			{Code: "PL_A", ParentCode: "YOUTUBE", Title: "A renamed", IsPlaylist: true},
			{Code: "PL_B", ParentCode: "YOUTUBE", Title: "B", RemoteID: "remote-B", IsPlaylist: true},
		},
		Assets: []*catalog.Asset{{ID: "a1", Title: "Lecture v2", Tags: []string{"PL_A"}}},
	}
	if _, _, err := catalog.Import(ctx, st, bundle, published); err != nil {
		t.Fatalf("Import: %v", err)
	}

	tags, err := st.Tags(ctx)
	if err != nil {
		t.Fatalf("Tags: %v", err)
	}
	tree := catalog.NewTree(tags)
	if tag, _ := tree.Tag("PL_A"); tag == nil || tag.RemoteID != "remote-A" || tag.Title != "A renamed" {
		t.Fatalf("PL_A should keep its remote id and take the new title, got %+v", tag)
	}
	if tag, _ := tree.Tag("PL_B"); tag == nil || tag.RemoteID != "remote-B" || tag.Error != "" {
		t.Fatalf("PL_B should take the bundle remote id and error, got %+v", tag)
	}
	asset := testsupport.MustAsset(t, st, "a1")
	if asset.Title != "Lecture v2" || !asset.HasTag(published) {
		t.Fatalf("asset should keep the published tag, got %+v", asset)
	}
}
