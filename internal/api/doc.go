// Package api defines the JSON types served by the daemon's HTTP API and a
// small client the CLI uses to talk to it.
package api
