package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ytbridge/internal/syncstate"
)

// Item outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// Registry holds the collectors for one process. A nil *Registry is valid and
// records nothing.
type Registry struct {
	reg *prometheus.Registry

	items        *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	records      *prometheus.GaugeVec
	lastRun      prometheus.Gauge
}

// New builds a registry with the bridge collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Registry{
		reg: reg,
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ytbridge",
				Subsystem: "reconcile",
				Name:      "items_total",
				Help:      "Items processed per pass and outcome",
			},
			[]string{"pass", "outcome"},
		),
		passDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ytbridge",
				Subsystem: "reconcile",
				Name:      "pass_duration_seconds",
				Help:      "Wall time of a reconciliation pass in seconds",
				Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"pass"},
		),
		records: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ytbridge",
				Subsystem: "store",
				Name:      "records",
				Help:      "Sync records by status",
			},
			[]string{"status"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "ytbridge",
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
	}
}

// ObserveItem counts one item outcome for a pass.
func (r *Registry) ObserveItem(pass, outcome string) {
	if r == nil {
		return
	}
	r.items.WithLabelValues(pass, outcome).Inc()
}

// ObservePass records how long a pass took.
func (r *Registry) ObservePass(pass string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.passDuration.WithLabelValues(pass).Observe(elapsed.Seconds())
}

// SetRecordCounts publishes the per-status record totals. Statuses missing
// from counts are reported as zero.
func (r *Registry) SetRecordCounts(counts map[syncstate.Status]int) {
	if r == nil {
		return
	}
	for _, status := range syncstate.AllStatuses() {
		r.records.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
}

// MarkRun stamps the completion time of a run.
func (r *Registry) MarkRun(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// An empty path disables export.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
