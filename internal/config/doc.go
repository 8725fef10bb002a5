// Package config loads, normalizes, and validates ytbridge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// YTBRIDGE_NTFY_TOPIC. The Config type centralizes every knob the batch passes
// and the CLI need: where the catalog database and OAuth credentials live, the
// publication policy (required tags, privacy, mastership), and notification
// delivery.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical enumerations, and clear validation errors.
package config
