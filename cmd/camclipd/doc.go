// Command camclipd runs the capture daemon: it holds the camera pipeline,
// serves the HTTP API the camclip CLI talks to, and keeps the recording
// ledger. One instance per host; a lock file rejects a second daemon.
package main
