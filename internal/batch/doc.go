// Package batch drives scheduled runs of the reconciliation passes.
//
// A Runner holds a flock-based lock file for the duration of a run so that
// overlapping cron invocations exit early instead of racing on the same
// records. Every run gets a uuid correlation id, flushes the notification
// digest once all passes finished, and refreshes the Prometheus textfile.
package batch
