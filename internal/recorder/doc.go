// Package recorder produces video artifacts from a camera. Two capture
// methods exist: assembling periodic snapshots into a timelapse-style clip,
// and copying the live RTSP stream directly. The orchestrator owns the
// per-camera job lifecycle on top of both.
package recorder
