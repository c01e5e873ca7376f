// Package daemon coordinates the long-running camclip process.
//
// It wires configuration, the recording ledger, the capture orchestrator,
// and the delivery engine into a single lifecycle with flock-based locking
// to prevent multiple instances, and serves the HTTP API the CLI talks to.
//
// Keep orchestration logic out of here: the capture and delivery semantics
// live in their own packages while the daemon focuses on startup, shutdown,
// and request routing.
package daemon
