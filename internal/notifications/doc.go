// Package notifications publishes pipeline events to ntfy.
//
// The default implementation posts to the topic configured in config.toml
// and gracefully degrades to a no-op when no topic is set. Recording,
// delivery, and error events can be toggled independently so a noisy camera
// does not drown out real alerts.
package notifications
