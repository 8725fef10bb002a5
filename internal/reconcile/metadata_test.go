package reconcile_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"ytbridge/internal/catalog"
	"ytbridge/internal/reconcile"
)

func TestTruncateTitle(t *testing.T) {
	words := strings.Repeat("word ", 24) // 120 characters
	if utf8.RuneCountInString(words) != 120 {
		t.Fatalf("fixture length %d", utf8.RuneCountInString(words))
	}

	got := reconcile.TruncateTitle(words, 100)
	if !strings.HasSuffix(got, " (...)") {
		t.Fatalf("expected truncation marker, got %q", got)
	}
	head := strings.TrimSuffix(got, " (...)")
	if utf8.RuneCountInString(head) >= 95 {
		t.Fatalf("cut should happen before position 95, head has %d characters", utf8.RuneCountInString(head))
	}
	if !strings.HasPrefix(words, head+" ") {
		t.Fatalf("cut should land on a word boundary, got %q", head)
	}
	if utf8.RuneCountInString(got) > 100 {
		t.Fatalf("result exceeds limit: %d", utf8.RuneCountInString(got))
	}

	short := strings.Repeat("a", 80)
	if got := reconcile.TruncateTitle(short, 100); got != short {
		t.Fatalf("short title should be unchanged, got %q", got)
	}

	unbroken := strings.Repeat("x", 120)
	got = reconcile.TruncateTitle(unbroken, 100)
	if utf8.RuneCountInString(got) != 100 || !strings.HasSuffix(got, " (...)") {
		t.Fatalf("unbroken title should be hard cut to the limit, got %q (%d)", got, utf8.RuneCountInString(got))
	}

	accented := strings.Repeat("é", 101)
	if got := reconcile.TruncateTitle(accented, 100); utf8.RuneCountInString(got) != 100 {
		t.Fatalf("truncation must count characters, got %d", utf8.RuneCountInString(got))
	}
}

func TestBuildTags(t *testing.T) {
	long := strings.Repeat("k", 600)
	got := reconcile.BuildTags([]string{" physics ", "<b>lab</b>", "Physics", "", long})
	if len(got) != 3 {
		t.Fatalf("expected 3 tags, got %q", got)
	}
	if got[0] != "physics" || got[1] != "blab/b" {
		t.Fatalf("unexpected tags: %q", got)
	}
	if utf8.RuneCountInString(got[2]) >= 500 {
		t.Fatalf("tag should be shorter than 500 characters, got %d", utf8.RuneCountInString(got[2]))
	}
}

func TestBuildDescription(t *testing.T) {
	f := newEngineFixture(t)
	f.cfg.YouTube.IncludePeople = true
	f.cfg.YouTube.PlaybackURLTemplate = "https://tv.example.org/video/%s"
	asset := &catalog.Asset{
		ID:          "a1",
		Title:       "Quantum lecture",
		Subtitle:    "Part one",
		Series:      catalog.Series{Title: "Hidden series", Hidden: true},
		RecordDate:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Description: "<p>First &amp; <b>bold</b></p><script>alert(1)</script><p>Second</p>",
		People:      []catalog.Person{{Role: "Speaker", Name: "Dr. <Ada>"}},
	}
	engine := f.newEngine(t)

	got := engine.BuildDescription(asset)
	for _, want := range []string{"Quantum lecture", "Part one", "2024-01-15", "First & bold", "Second", "Speaker: Dr. Ada", "https://tv.example.org/video/a1"} {
		if !strings.Contains(got, want) {
			t.Fatalf("description missing %q:\n%s", want, got)
		}
	}
	for _, unwanted := range []string{"Hidden series", "alert", "<", ">"} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("description should not contain %q:\n%s", unwanted, got)
		}
	}

	asset.Series.Hidden = false
	if got := engine.BuildDescription(asset); !strings.Contains(got, "Hidden series") {
		t.Fatalf("visible series should be listed:\n%s", got)
	}
}

func TestPrivacyFollowsStatus(t *testing.T) {
	f := newEngineFixture(t)
	f.cfg.YouTube.Privacy = "public"
	engine := f.newEngine(t)
	cases := map[catalog.AssetStatus]string{
		catalog.StatusPublished: "public",
		catalog.StatusHidden:    "unlisted",
		catalog.StatusBlocked:   "private",
	}
	for status, want := range cases {
		if got := engine.Privacy(&catalog.Asset{Status: status}); got != want {
			t.Fatalf("status %s: got %q want %q", status, got, want)
		}
	}
}
