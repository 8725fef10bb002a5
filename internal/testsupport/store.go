package testsupport

import (
	"context"
	"testing"

	"ytbridge/internal/catalog"
	"ytbridge/internal/config"
	"ytbridge/internal/store"
	"ytbridge/internal/syncstate"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustSaveAsset persists an asset for tests.
func MustSaveAsset(t testing.TB, st *store.Store, asset *catalog.Asset) *catalog.Asset {
	t.Helper()
	if err := st.SaveAsset(context.Background(), asset); err != nil {
		t.Fatalf("SaveAsset: %v", err)
	}
	return asset
}

// MustSaveTags persists tags for tests.
func MustSaveTags(t testing.TB, st *store.Store, tags ...*catalog.Tag) {
	t.Helper()
	for _, tag := range tags {
		if err := st.SaveTag(context.Background(), tag); err != nil {
			t.Fatalf("SaveTag %s: %v", tag.Code, err)
		}
	}
}

// MustSaveRecord persists a record for tests.
func MustSaveRecord(t testing.TB, st *store.Store, rec *syncstate.Record) *syncstate.Record {
	t.Helper()
	if err := st.SaveRecord(context.Background(), rec); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	return rec
}

// MustRecord loads the record for an asset, failing when it is absent.
func MustRecord(t testing.TB, st *store.Store, assetID string) *syncstate.Record {
	t.Helper()
	rec, err := st.RecordByAssetID(context.Background(), assetID)
	if err != nil {
		t.Fatalf("RecordByAssetID: %v", err)
	}
	if rec == nil {
		t.Fatalf("no record for asset %s", assetID)
	}
	return rec
}

// MustAsset loads an asset, failing when it is absent.
func MustAsset(t testing.TB, st *store.Store, id string) *catalog.Asset {
	t.Helper()
	asset, err := st.AssetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("AssetByID: %v", err)
	}
	if asset == nil {
		t.Fatalf("asset %s not found", id)
	}
	return asset
}
