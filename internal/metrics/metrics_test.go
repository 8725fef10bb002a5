package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ytbridge/internal/metrics"
	"ytbridge/internal/syncstate"
)

func TestRegistryCountsOutcomes(t *testing.T) {
	reg := metrics.New()
	reg.ObserveItem("upload", metrics.OutcomeSucceeded)
	reg.ObserveItem("upload", metrics.OutcomeSucceeded)
	reg.ObserveItem("upload", metrics.OutcomeFailed)
	reg.ObservePass("upload", 2*time.Second)
	reg.SetRecordCounts(map[syncstate.Status]int{syncstate.StatusPublished: 4})

	series := gatherSeries(t, reg)
	if series["ytbridge_reconcile_items_total"] != 2 {
		t.Fatalf("expected 2 label combinations, got %d", series["ytbridge_reconcile_items_total"])
	}
	if series["ytbridge_store_records"] != len(syncstate.AllStatuses()) {
		t.Fatalf("expected one series per status, got %d", series["ytbridge_store_records"])
	}
	if series["ytbridge_reconcile_pass_duration_seconds"] != 1 {
		t.Fatalf("expected one pass histogram, got %d", series["ytbridge_reconcile_pass_duration_seconds"])
	}
}

func gatherSeries(t *testing.T, reg *metrics.Registry) map[string]int {
	t.Helper()
	families, err := reg.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	out := make(map[string]int, len(families))
	for _, family := range families {
		out[family.GetName()] = len(family.GetMetric())
	}
	return out
}

func TestNilRegistryIsSafe(t *testing.T) {
	var reg *metrics.Registry
	reg.ObserveItem("upload", metrics.OutcomeFailed)
	reg.ObservePass("upload", time.Second)
	reg.SetRecordCounts(nil)
	reg.MarkRun(time.Now())
	if err := reg.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("nil registry WriteTextfile: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := metrics.New()
	reg.ObserveItem("delete", metrics.OutcomeSkipped)
	reg.MarkRun(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "textfile", "ytbridge.prom")
	if err := reg.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `ytbridge_reconcile_items_total{outcome="skipped",pass="delete"} 1`) {
		t.Fatalf("textfile missing item counter:\n%s", content)
	}
	if !strings.Contains(content, "ytbridge_last_run_timestamp_seconds ") {
		t.Fatalf("textfile missing last run gauge:\n%s", content)
	}
}

func TestWriteTextfileDisabledForEmptyPath(t *testing.T) {
	if err := metrics.New().WriteTextfile(""); err != nil {
		t.Fatalf("expected nil for empty path, got %v", err)
	}
}
