// Command camclip is the operator CLI for the camera capture pipeline. It
// records clips locally, talks to a running camclipd over its HTTP API, and
// carries the setup utilities (config, fonts, preflight, diagnostics).
package main
