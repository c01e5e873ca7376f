// Package preflight provides readiness checks for the external pieces a
// recording run depends on: the ffmpeg binary, the camera's HTTP surface,
// writable artifact directories, overlay fonts, and delivery credentials.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and refuses to serve when a
//     required check fails.
//   - The CLI "camclip preflight" command runs the same list and renders
//     the results as a table.
//
// Each check is gated by its config toggle -- disabled features are skipped.
package preflight
