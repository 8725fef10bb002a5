// Package notifications collects per-item outcomes of a reconciliation run and
// delivers an end-of-run digest.
//
// The Aggregator groups failures by remote reason code and hands the rendered
// digest to a Sender. The default Sender publishes to ntfy using the topic
// configured in config.toml and degrades to a no-op when no topic is set.
package notifications
