// Package preflight provides readiness checks for the filesystem paths,
// credentials and services ytbridge depends on.
//
// The CLI "ytbridge check" command runs RunAll and prints one line per check.
// Checks for optional features (notifications) are skipped when the feature
// is disabled.
package preflight
