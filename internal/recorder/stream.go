package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"camclip/internal/fileutil"
	"camclip/internal/logging"
	"camclip/internal/services"
	"camclip/internal/services/ffmpeg"
)

// ErrNoWorkingStreamPath means no RTSP path on the camera answered a probe.
var ErrNoWorkingStreamPath = errors.New("no working rtsp stream path")

// fallbackStreamPaths are probed in order when the configured path fails.
// The list covers OpenIPC plus the common vendor firmwares.
var fallbackStreamPaths = []string{
	"/stream=0",
	"/av0_0",
	"/live",
	"/h264",
	"/video",
	"/ch0",
	"/cam/realmonitor?channel=1&subtype=0",
}

// StreamSource builds RTSP URLs for a camera. *camera.Client satisfies it.
type StreamSource interface {
	Name() string
	StreamURL(path string) string
}

// StreamRecorder copies the camera's live RTSP stream to a file.
type StreamRecorder struct {
	source StreamSource
	client ffmpeg.Client
	logger *slog.Logger

	// primaryPath is probed before the fallback catalog. Empty means
	// start with the catalog directly.
	primaryPath string
	withAudio   bool
}

// StreamOption adjusts StreamRecorder construction.
type StreamOption func(*StreamRecorder)

// WithPrimaryPath sets the RTSP path tried first.
func WithPrimaryPath(path string) StreamOption {
	return func(s *StreamRecorder) { s.primaryPath = path }
}

// WithAudio requests audio transcoding in the copied stream.
func WithAudio(enabled bool) StreamOption {
	return func(s *StreamRecorder) { s.withAudio = enabled }
}

// NewStreamRecorder builds a stream recorder.
func NewStreamRecorder(source StreamSource, client ffmpeg.Client, logger *slog.Logger, opts ...StreamOption) *StreamRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	s := &StreamRecorder{
		source: source,
		client: client,
		logger: logger.With(logging.String(logging.FieldComponent, "stream")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record probes for a working stream path and copies it for the given
// duration. Audio rejection retries without audio; connection failures over
// TCP retry over UDP.
func (s *StreamRecorder) Record(ctx context.Context, duration time.Duration, outputPath string) (Result, error) {
	result := Result{
		Method:          MethodStream,
		FilePath:        outputPath,
		FileName:        filepath.Base(outputPath),
		DurationSeconds: int(duration / time.Second),
		Transport:       ffmpeg.TransportTCP,
		Audio:           s.withAudio,
	}

	path, err := s.findStreamPath(ctx)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	url := s.source.StreamURL(path)
	s.logger.Info("stream copy started",
		logging.String(logging.FieldCamera, s.source.Name()),
		logging.String("path", path),
		logging.Duration("duration", duration))

	req := ffmpeg.CopyRequest{
		URL:        url,
		Duration:   duration,
		Transport:  ffmpeg.TransportTCP,
		WithAudio:  s.withAudio,
		OutputPath: outputPath,
	}
	if err := s.copyWithRetries(ctx, &req); err != nil {
		result.Error = services.Message(err)
		return result, err
	}

	result.Transport = req.Transport
	result.Audio = req.WithAudio
	result.Success = true
	result.SizeBytes = fileutil.FileSize(outputPath)
	s.logger.Info("stream copy finished",
		logging.String(logging.FieldCamera, s.source.Name()),
		logging.Int64("size_bytes", result.SizeBytes),
		logging.String("transport", string(req.Transport)))
	return result, nil
}

func (s *StreamRecorder) copyWithRetries(ctx context.Context, req *ffmpeg.CopyRequest) error {
	err := s.client.CopyStream(ctx, *req)
	if err == nil {
		return nil
	}

	if req.WithAudio && ffmpeg.IsAudioCodecRejected(err) {
		s.logger.Warn("audio codec rejected, retrying without audio", logging.Error(err))
		req.WithAudio = false
		if err = s.client.CopyStream(ctx, *req); err == nil {
			return nil
		}
	}

	if req.Transport == ffmpeg.TransportTCP && ffmpeg.IsConnectionFailure(err) {
		s.logger.Warn("tcp transport failed, retrying over udp", logging.Error(err))
		req.Transport = ffmpeg.TransportUDP
		req.WithAudio = false
		if err = s.client.CopyStream(ctx, *req); err == nil {
			return nil
		}
	}

	return services.Wrap(services.ErrExternalTool, "ffmpeg", "copy stream", "", err)
}

// findStreamPath probes the primary path then the fallback catalog, all over
// TCP, and returns the first path that answers.
func (s *StreamRecorder) findStreamPath(ctx context.Context) (string, error) {
	candidates := make([]string, 0, len(fallbackStreamPaths)+1)
	if s.primaryPath != "" {
		candidates = append(candidates, s.primaryPath)
	}
	for _, path := range fallbackStreamPaths {
		if path != s.primaryPath {
			candidates = append(candidates, path)
		}
	}

	var lastErr error
	for _, path := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		err := s.client.Probe(ctx, s.source.StreamURL(path), ffmpeg.TransportTCP)
		if err == nil {
			return path, nil
		}
		lastErr = err
		s.logger.Debug("stream path probe failed",
			logging.String("path", path),
			logging.Error(err))
	}
	if lastErr != nil {
		return "", fmt.Errorf("%w: %w", ErrNoWorkingStreamPath, lastErr)
	}
	return "", ErrNoWorkingStreamPath
}
