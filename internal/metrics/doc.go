// Package metrics exposes Prometheus collectors for reconciliation runs.
//
// The bridge runs as a short-lived batch process, so collectors are written to
// a node_exporter textfile at the end of a run instead of being scraped.
package metrics
