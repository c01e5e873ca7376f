// Package config loads, normalizes, and validates the TOML configuration
// that drives the capture-and-delivery pipeline.
package config
