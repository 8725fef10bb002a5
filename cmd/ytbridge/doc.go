// Package main hosts the ytbridge CLI entrypoint and command graph.
//
// Every command resolves the TOML configuration once, opens the SQLite store
// and wires the reconciliation engine against the YouTube adapter. Pass
// commands run through batch.Runner so that cron invocations share the
// single-run lock, digest delivery and metrics export; maintenance commands
// (records, catalog, config) work on the store directly.
//
// Keep this package lean: behaviour belongs in the internal packages, the
// commands only translate flags and render results.
package main
