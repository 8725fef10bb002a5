package caption_test

import (
	"context"
	"path/filepath"
	"testing"

	"ytbridge/internal/caption"
	"ytbridge/internal/catalog"
	"ytbridge/internal/logging"
	"ytbridge/internal/remote"
	"ytbridge/internal/syncstate"
	"ytbridge/internal/testsupport"
)

const vttBody = "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nHello\n"

func TestNormalizeMimeType(t *testing.T) {
	tests := map[string]string{
		"text/vtt":                        "vtt",
		"TEXT/VTT; charset=utf-8":         "vtt",
		"application/x-subrip":            "srt",
		"application/ttml+xml":            "dfxp",
		"image/png":                       "png",
		".SRT":                            "srt",
		"vtt":                             "vtt",
		"text/plain":                      "",
		"":                                "",
		"application/vnd.custom-captions": "vnd.custom-captions",
	}
	for input, want := range tests {
		if got := caption.NormalizeMimeType(input); got != want {
			t.Errorf("NormalizeMimeType(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMaterialFormatFallsBackToExtension(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteFile(t, dir, "subs.srt", "1\n00:00:00,000 --> 00:00:01,000\nHello\n")
	if got := caption.MaterialFormat(catalog.Material{Path: path}); got != "srt" {
		t.Fatalf("expected srt, got %q", got)
	}
	if got := caption.MaterialFormat(catalog.Material{MimeType: "text/vtt", Path: path}); got != "vtt" {
		t.Fatalf("declared MIME type should win, got %q", got)
	}
}

func TestSelectHonoursAllowListAndHidden(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.YouTube.CaptionMimeTypes = []string{"vtt"}
	rec := caption.New(cfg, nil, testsupport.NewFakePublisher(), logging.NewNop())

	asset := &catalog.Asset{
		ID: "a1",
		Materials: []catalog.Material{
			{ID: "m-vtt", MimeType: "text/vtt", Path: "a.vtt"},
			{ID: "m-srt", MimeType: "application/x-subrip", Path: "a.srt"},
			{ID: "m-png", MimeType: "image/png", Path: "a.png"},
		},
	}
	selected := rec.Select(asset, syncstate.NewRecord("a1"))
	if len(selected) != 1 || selected[0].ID != "m-vtt" {
		t.Fatalf("expected only the vtt material, got %+v", selected)
	}

	asset.Materials[0].Hidden = true
	if selected := rec.Select(asset, nil); len(selected) != 0 {
		t.Fatalf("hidden vtt must be excluded, got %+v", selected)
	}
}

func newSyncFixture(t *testing.T) (*caption.Reconciler, *testsupport.FakePublisher, *catalog.Asset, *syncstate.Record, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	pub := testsupport.NewFakePublisher()
	dir := testsupport.BaseDir(cfg)

	asset := testsupport.PublishableAsset(t, dir, "a1")
	asset.Locale = "es"
	testsupport.MustSaveAsset(t, st, asset)

	rec := syncstate.NewRecord("a1")
	rec.Status = syncstate.StatusPublished
	rec.RemoteID = "video-x"
	rec.AccountLogin = testsupport.AccountLogin
	testsupport.MustSaveRecord(t, st, rec)
	return caption.New(cfg, st, pub, logging.NewNop()), pub, asset, rec, dir
}

func TestSyncUploadsAndDeletes(t *testing.T) {
	rc, pub, asset, rec, dir := newSyncFixture(t)
	ctx := context.Background()

	asset.Materials = []catalog.Material{
		{ID: "m1", Name: "English", Language: "en-us", MimeType: "text/vtt", Path: testsupport.WriteFile(t, dir, "m1.vtt", vttBody)},
		{ID: "m2", Name: "Default", Path: testsupport.WriteFile(t, dir, "m2.vtt", vttBody)},
	}
	if err := rc.Sync(ctx, asset, rec); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(rec.Captions) != 2 {
		t.Fatalf("expected two captions, got %+v", rec.Captions)
	}
	first, _ := rec.Caption("m1")
	if first.Language != "en-US" {
		t.Fatalf("expected canonical language tag, got %q", first.Language)
	}
	second, _ := rec.Caption("m2")
	if second.Language != "es" {
		t.Fatalf("expected asset locale fallback, got %q", second.Language)
	}

	// A second run with nothing changed is a no-op.
	if err := rc.Sync(ctx, asset, rec); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	if pub.CallCount("InsertCaption") != 2 {
		t.Fatalf("expected no extra uploads, got %d", pub.CallCount("InsertCaption"))
	}

	asset.Materials[1].Hidden = true
	if err := rc.Sync(ctx, asset, rec); err != nil {
		t.Fatalf("third Sync: %v", err)
	}
	if _, ok := rec.Caption("m2"); ok {
		t.Fatal("hidden material caption should be removed")
	}
	if pub.CallCount("DeleteCaption") != 1 {
		t.Fatalf("expected one delete, got %d", pub.CallCount("DeleteCaption"))
	}
}

func TestSyncTreatsCaptionNotFoundAsSuccess(t *testing.T) {
	rc, pub, asset, rec, _ := newSyncFixture(t)
	rec.Captions = []syncstate.CaptionRecord{{MaterialID: "gone", RemoteID: "caption-missing"}}

	if err := rc.Sync(context.Background(), asset, rec); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(rec.Captions) != 0 {
		t.Fatalf("caption link should be dropped, got %+v", rec.Captions)
	}
	if rec.CaptionError != nil {
		t.Fatalf("not found must not be stored as an error: %+v", rec.CaptionError)
	}
	if pub.CallCount("DeleteCaption") != 1 {
		t.Fatal("expected delete call")
	}
}

func TestSyncContinuesAfterUploadFailure(t *testing.T) {
	rc, pub, asset, rec, dir := newSyncFixture(t)
	asset.Materials = []catalog.Material{
		{ID: "m1", Name: "Broken", MimeType: "text/vtt", Path: testsupport.WriteFile(t, dir, "m1.vtt", vttBody)},
		{ID: "m2", Name: "Fine", MimeType: "text/vtt", Path: testsupport.WriteFile(t, dir, "m2.vtt", vttBody)},
	}
	pub.FailWith = func(method string, args ...string) error {
		if method == "InsertCaption" && len(args) > 2 && args[2] == "Broken" {
			return &remote.Error{Reason: "invalidMetadata", Message: "bad caption", StatusCode: 400}
		}
		return nil
	}

	err := rc.Sync(context.Background(), asset, rec)
	if err == nil {
		t.Fatal("expected upload failure to be reported")
	}
	if _, ok := rec.Caption("m2"); !ok {
		t.Fatal("second material should still be uploaded")
	}
	if _, ok := rec.Caption("m1"); ok {
		t.Fatal("failed material must not be linked")
	}
	if rec.CaptionError == nil || rec.CaptionError.Reason != "invalidMetadata" {
		t.Fatalf("expected caption error, got %+v", rec.CaptionError)
	}
}

func TestSyncSkipsRecordsWithoutRemoteID(t *testing.T) {
	rc, pub, asset, rec, dir := newSyncFixture(t)
	rec.RemoteID = ""
	asset.Materials = []catalog.Material{{ID: "m1", MimeType: "text/vtt", Path: filepath.Join(dir, "missing.vtt")}}
	if err := rc.Sync(context.Background(), asset, rec); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if pub.CallCount("") != 0 {
		t.Fatal("no remote calls expected without a remote id")
	}
}
