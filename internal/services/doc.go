// Package services defines shared utilities consumed by the reconciliation
// passes and the remote integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, pass names, and asset IDs for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the bridge's taxonomy (not ready, consistency, configuration,
//     remote, transient).
//
// Use these helpers when wiring new pass logic so error handling and
// observability stay uniform across the bridge.
package services
