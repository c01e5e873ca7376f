package recorder

import "camclip/internal/services/ffmpeg"

// Method names the capture strategy that produced an artifact.
type Method string

const (
	MethodSnapshots Method = "snapshots"
	MethodStream    Method = "stream"
)

// Result describes one finished capture, successful or not.
type Result struct {
	Success         bool
	FilePath        string
	FileName        string
	SizeBytes       int64
	DurationSeconds int
	Frames          int
	Method          Method
	Transport       ffmpeg.Transport
	Audio           bool
	Error           string
}
