// Package diagnose probes a camera's RTSP surface path by path so operators
// can see which stream URLs their firmware actually answers.
package diagnose

import (
	"context"
	"log/slog"

	"camclip/internal/logging"
	"camclip/internal/services/ffmpeg"
)

// rtspPathCatalog is every stream path worth probing, ordered from the most
// common firmwares to the long tail. The bare "/" comes last.
var rtspPathCatalog = []string{
	"/stream=0",
	"/stream=1",
	"/av0_0",
	"/av0_1",
	"/live",
	"/live0",
	"/live1",
	"/h264",
	"/h265",
	"/video",
	"/video0",
	"/video1",
	"/ch0",
	"/ch1",
	"/cam/realmonitor?channel=1&subtype=0",
	"/cam/realmonitor?channel=1&subtype=1",
	"/media/video1",
	"/media/video2",
	"/mjpeg/1",
	"/mjpeg/2",
	"/bytestream",
	"/",
}

// PathResult is the probe outcome for one catalog entry.
type PathResult struct {
	Path    string
	URL     string
	Success bool
	Error   string
}

// URLBuilder turns a path into a full RTSP URL. *camera.Client satisfies it.
type URLBuilder interface {
	StreamURL(path string) string
}

// Prober answers whether an RTSP URL yields a stream. ffmpeg.Client
// satisfies it.
type Prober interface {
	Probe(ctx context.Context, url string, transport ffmpeg.Transport) error
}

// Paths returns a copy of the probe catalog.
func Paths() []string {
	return append([]string(nil), rtspPathCatalog...)
}

// RTSP probes the full catalog in order. Every path is tried even after a
// success so the report shows the complete picture. Results keep catalog
// order.
func RTSP(ctx context.Context, source URLBuilder, prober Prober, logger *slog.Logger) ([]PathResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "diagnose"))

	results := make([]PathResult, 0, len(rtspPathCatalog))
	for _, path := range rtspPathCatalog {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		url := source.StreamURL(path)
		result := PathResult{Path: path, URL: url}
		if err := prober.Probe(ctx, url, ffmpeg.TransportTCP); err != nil {
			result.Error = truncateError(err.Error())
			logger.Debug("rtsp probe failed",
				logging.String("path", path),
				logging.Error(err))
		} else {
			result.Success = true
			logger.Info("rtsp path answered", logging.String("path", path))
		}
		results = append(results, result)
	}
	return results, nil
}

// Recommended returns the first working path from a probe run, or empty.
func Recommended(results []PathResult) string {
	for _, result := range results {
		if result.Success {
			return result.Path
		}
	}
	return ""
}

// Error text from ffmpeg can run to pages of stderr. Reports keep the head.
func truncateError(text string) string {
	const limit = 200
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
