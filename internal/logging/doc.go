// Package logging configures the slog loggers used across camclip and
// provides standardized attribute keys so camera, job, and component
// identifiers look the same in every log line.
package logging
