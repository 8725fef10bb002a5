// Package logging assembles structured slog loggers and formatting helpers used
// across the bridge.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pass code can automatically
// tag log lines with run IDs, pass names, and asset IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
