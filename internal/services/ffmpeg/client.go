package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

var commandContext = exec.CommandContext

// Transport selects the network transport used for stream input.
type Transport string

const (
	TransportTCP Transport = "tcp"
	TransportUDP Transport = "udp"
)

const (
	defaultProbeTimeout = 10 * time.Second
	stderrTailBytes     = 4096
)

// Client defines the ffmpeg operations used by the recorders.
type Client interface {
	EncodeFrames(ctx context.Context, framePattern string, frameRate int, outputPath string) error
	CopyStream(ctx context.Context, req CopyRequest) error
	Probe(ctx context.Context, url string, transport Transport) error
}

// CopyRequest describes a bounded stream copy into an mp4 container.
type CopyRequest struct {
	URL        string
	Duration   time.Duration
	Transport  Transport
	WithAudio  bool
	OutputPath string
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithProbeTimeout overrides the bound applied to stream probes.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *CLI) {
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

// CLI invokes the ffmpeg binary.
type CLI struct {
	binary       string
	probeTimeout time.Duration
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg", probeTimeout: defaultProbeTimeout}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// EncodeFrames assembles a numbered frame sequence into an H.264 mp4 at the
// given nominal frame rate. The rate is independent of the wall-clock
// interval the frames were captured at.
func (c *CLI) EncodeFrames(ctx context.Context, framePattern string, frameRate int, outputPath string) error {
	if strings.TrimSpace(framePattern) == "" {
		return errors.New("frame pattern required")
	}
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("output path required")
	}
	if frameRate <= 0 {
		frameRate = 1
	}

	args := []string{
		"-y",
		"-framerate", strconv.Itoa(frameRate),
		"-i", framePattern,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-preset", "medium",
		"-crf", "23",
		outputPath,
	}
	return c.run(ctx, args)
}

// CopyStream copies req.Duration worth of the stream into an mp4 without
// re-encoding video. Audio, when requested, is transcoded to AAC because
// camera audio codecs rarely survive mp4 muxing untouched.
func (c *CLI) CopyStream(ctx context.Context, req CopyRequest) error {
	if strings.TrimSpace(req.URL) == "" {
		return errors.New("stream url required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return errors.New("output path required")
	}
	if req.Duration <= 0 {
		return errors.New("duration must be positive")
	}
	transport := req.Transport
	if transport == "" {
		transport = TransportTCP
	}

	args := []string{
		"-y",
		"-t", strconv.Itoa(int(req.Duration.Round(time.Second) / time.Second)),
		"-rtsp_transport", string(transport),
		"-i", req.URL,
	}
	if req.WithAudio {
		args = append(args, "-c:v", "copy", "-c:a", "aac", "-b:a", "128k")
	} else {
		args = append(args, "-an", "-c:v", "copy")
	}
	args = append(args, "-f", "mp4", req.OutputPath)

	return c.run(ctx, args)
}

// Probe opens the stream for roughly one second and discards the output.
// A zero exit code means the path and transport work.
func (c *CLI) Probe(ctx context.Context, url string, transport Transport) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("stream url required")
	}
	if transport == "" {
		transport = TransportTCP
	}

	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	args := []string{
		"-rtsp_transport", string(transport),
		"-i", url,
		"-t", "1",
		"-f", "null",
		"-",
	}
	return c.run(probeCtx, args)
}

func (c *CLI) run(ctx context.Context, args []string) error {
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &CommandError{
			Args:   append([]string{c.binary}, args...),
			Stderr: tail(stderr.Bytes()),
			Err:    err,
		}
	}
	return nil
}

func tail(out []byte) string {
	if len(out) > stderrTailBytes {
		out = out[len(out)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(out))
}

// CommandError carries the captured stderr of a failed ffmpeg invocation so
// callers can decide whether an alternate invocation is worth trying.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, firstLine(e.Stderr))
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StderrOf returns the captured stderr of err when it is a CommandError.
func StderrOf(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Stderr
	}
	return ""
}

// IsAudioCodecRejected reports whether the failure indicates the container
// refused the negotiated audio codec.
func IsAudioCodecRejected(err error) bool {
	return strings.Contains(StderrOf(err), "codec not currently supported")
}

// IsConnectionFailure reports whether the failure looks like a
// connection-level error worth retrying over another transport.
func IsConnectionFailure(err error) bool {
	stderr := StderrOf(err)
	return strings.Contains(stderr, "Connection refused") ||
		strings.Contains(stderr, "Connection timed out")
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

var _ Client = (*CLI)(nil)
