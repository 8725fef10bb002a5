package syncstate_test

import (
	"errors"
	"testing"
	"time"

	"ytbridge/internal/remote"
	"ytbridge/internal/syncstate"
)

func TestRecordStale(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := syncstate.NewRecord("a1")
	rec.SyncMetadataDate = now
	rec.AssetUpdateDate = now
	if rec.Stale() {
		t.Fatal("equal dates must not be stale")
	}
	rec.AssetUpdateDate = now.Add(time.Minute)
	if !rec.Stale() {
		t.Fatal("newer asset update must be stale")
	}
}

func TestNewErrorRecord(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	remoteErr := &remote.Error{Reason: "forbidden", Message: "no access", StatusCode: 403, Raw: `{"code":403}`}
	rec := syncstate.NewErrorRecord(remoteErr, now)
	if rec.Reason != "forbidden" || rec.Message != "no access" || rec.Raw != `{"code":403}` || !rec.Timestamp.Equal(now) {
		t.Fatalf("unexpected error record: %+v", rec)
	}

	plain := syncstate.NewErrorRecord(errors.New("disk full"), now)
	if plain.Reason != "internal" || plain.Message != "disk full" {
		t.Fatalf("unexpected plain error record: %+v", plain)
	}
	if syncstate.NewErrorRecord(nil, now) != nil {
		t.Fatal("nil error must produce nil record")
	}
}

func TestRecordCaptions(t *testing.T) {
	rec := syncstate.NewRecord("a1")
	rec.Captions = []syncstate.CaptionRecord{{MaterialID: "m1", RemoteID: "c1"}, {MaterialID: "m2", RemoteID: "c2"}}
	if c, ok := rec.Caption("m2"); !ok || c.RemoteID != "c2" {
		t.Fatalf("unexpected caption lookup: %+v %v", c, ok)
	}
	rec.RemoveCaption("m1")
	if len(rec.Captions) != 1 || rec.Captions[0].MaterialID != "m2" {
		t.Fatalf("unexpected captions after removal: %+v", rec.Captions)
	}
}
