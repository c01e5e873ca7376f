// Package camera talks to one IP camera's HTTP and RTSP surfaces: still
// capture across candidate endpoints, stream URL construction, telemetry
// snapshots for the overlay, and on-device SD recording controls.
package camera
