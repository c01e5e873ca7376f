// Package ffmpeg wraps the ffmpeg command line tool for the three jobs the
// pipeline needs: assembling still frames into a video, copying a bounded
// slice of a live stream without re-encoding, and probing stream URLs.
package ffmpeg
