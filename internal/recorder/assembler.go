package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"camclip/internal/camera"
	"camclip/internal/fileutil"
	"camclip/internal/logging"
	"camclip/internal/services"
	"camclip/internal/services/ffmpeg"
)

// ErrNoFramesCaptured means every snapshot attempt during a job failed.
var ErrNoFramesCaptured = errors.New("no frames captured")

// FrameSource yields still images and the telemetry the overlay renders.
// *camera.Client satisfies it.
type FrameSource interface {
	Name() string
	CaptureStill(ctx context.Context) ([]byte, error)
	FetchTelemetry(ctx context.Context) camera.Telemetry
}

// OverlayFunc decorates a captured frame before it is written to disk. A nil
// func leaves frames untouched.
type OverlayFunc func(frame []byte, at time.Time, tel camera.Telemetry) ([]byte, error)

// Assembler captures snapshots at a fixed interval and encodes them into a
// video artifact.
type Assembler struct {
	source   FrameSource
	encoder  ffmpeg.Client
	logger   *slog.Logger
	interval time.Duration
	rate     int
	overlay  OverlayFunc
}

// AssemblerOption adjusts Assembler construction.
type AssemblerOption func(*Assembler)

// WithOverlay installs the frame decorator.
func WithOverlay(fn OverlayFunc) AssemblerOption {
	return func(a *Assembler) { a.overlay = fn }
}

// WithFrameRate sets the playback rate of the encoded clip.
func WithFrameRate(fps int) AssemblerOption {
	return func(a *Assembler) {
		if fps > 0 {
			a.rate = fps
		}
	}
}

// NewAssembler builds a snapshot assembler. Interval must be positive.
func NewAssembler(source FrameSource, encoder ffmpeg.Client, interval time.Duration, logger *slog.Logger, opts ...AssemblerOption) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{
		source:   source,
		encoder:  encoder,
		logger:   logger.With(logging.String(logging.FieldComponent, "assembler")),
		interval: interval,
		rate:     1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Record captures frames for the given duration and encodes outputPath.
// Failed captures are skipped without aborting the job. The frame directory
// is removed whether or not the job succeeds.
func (a *Assembler) Record(ctx context.Context, duration time.Duration, outputPath string) (Result, error) {
	started := time.Now()
	result := Result{
		Method:          MethodSnapshots,
		FilePath:        outputPath,
		FileName:        filepath.Base(outputPath),
		DurationSeconds: int(duration / time.Second),
	}

	planned := int(duration / a.interval)
	if planned < 1 {
		planned = 1
	}

	frameDir := filepath.Join(filepath.Dir(outputPath), fileutil.TempFrameDirName(started))
	if err := os.MkdirAll(frameDir, 0o755); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("create frame dir: %w", err)
	}
	defer os.RemoveAll(frameDir)

	a.logger.Info("snapshot capture started",
		logging.String(logging.FieldCamera, a.source.Name()),
		logging.Int("planned_frames", planned),
		logging.Duration("interval", a.interval))

	captured := 0
	for i := 0; i < planned; i++ {
		if err := ctx.Err(); err != nil {
			result.Error = err.Error()
			return result, err
		}

		frame, err := a.captureFrame(ctx)
		if err != nil {
			a.logger.Warn("frame capture failed",
				logging.Int("frame", i),
				logging.Error(err))
		} else {
			// Success indices stay contiguous so the encoder's input
			// pattern has no gaps.
			path := filepath.Join(frameDir, fileutil.FrameName(captured))
			if err := os.WriteFile(path, frame, 0o644); err != nil {
				result.Error = err.Error()
				return result, fmt.Errorf("write frame: %w", err)
			}
			captured++
		}

		if i < planned-1 {
			if err := sleepContext(ctx, a.interval); err != nil {
				result.Error = err.Error()
				return result, err
			}
		}
	}

	result.Frames = captured
	if captured == 0 {
		result.Error = ErrNoFramesCaptured.Error()
		return result, ErrNoFramesCaptured
	}

	pattern := filepath.Join(frameDir, fileutil.FramePattern)
	if err := a.encoder.EncodeFrames(ctx, pattern, a.rate, outputPath); err != nil {
		wrapped := services.Wrap(services.ErrExternalTool, "ffmpeg", "encode frames", "", err)
		result.Error = services.Message(wrapped)
		return result, wrapped
	}

	result.Success = true
	result.SizeBytes = fileutil.FileSize(outputPath)
	a.logger.Info("snapshot capture finished",
		logging.String(logging.FieldCamera, a.source.Name()),
		logging.Int("frames", captured),
		logging.Int64("size_bytes", result.SizeBytes))
	return result, nil
}

func (a *Assembler) captureFrame(ctx context.Context) ([]byte, error) {
	frame, err := a.source.CaptureStill(ctx)
	if err != nil {
		return nil, err
	}
	if a.overlay == nil {
		return frame, nil
	}
	tel := a.source.FetchTelemetry(ctx)
	decorated, err := a.overlay(frame, time.Now(), tel)
	if err != nil {
		// A bad overlay should cost the caption, not the frame.
		a.logger.Warn("overlay render failed", logging.Error(err))
		return frame, nil
	}
	return decorated, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
