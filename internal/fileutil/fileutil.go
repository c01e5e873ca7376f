// Package fileutil provides artifact naming and small filesystem helpers
// shared by the recorders and the delivery engine.
package fileutil

import (
	"fmt"
	"os"
	"time"
)

const timestampLayout = "20060102_150405"

// ArtifactName builds the recording filename for a camera at a point in time.
// Duration is included when positive so operators can tell clips apart at a
// glance.
func ArtifactName(camera string, at time.Time, duration time.Duration) string {
	if duration > 0 {
		seconds := int(duration.Round(time.Second) / time.Second)
		return fmt.Sprintf("%s_%s_%ds.mp4", camera, at.Format(timestampLayout), seconds)
	}
	return fmt.Sprintf("%s_%s.mp4", camera, at.Format(timestampLayout))
}

// TempFrameDirName builds a uniquely named directory for a job's still
// frames. Timestamped names keep concurrent jobs on different cameras from
// colliding without any global lock.
func TempFrameDirName(at time.Time) string {
	return "temp_" + at.Format(timestampLayout)
}

// FrameName returns the zero-padded filename for a captured still.
func FrameName(index int) string {
	return fmt.Sprintf("frame_%04d.jpg", index)
}

// FramePattern is the ffmpeg input pattern matching FrameName output.
const FramePattern = "frame_%04d.jpg"

// FileSize returns the size of the file at path, or 0 when it cannot be
// determined.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
