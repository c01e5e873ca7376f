package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCamera is the standardized structured logging key for camera names.
	FieldCamera = "camera"
	// FieldJobID is the standardized structured logging key for recording job identifiers.
	FieldJobID = "job_id"
	// FieldMethod is the standardized structured logging key for recording methods.
	FieldMethod = "method"
	// FieldMechanism is the standardized structured logging key for delivery mechanisms.
	FieldMechanism = "mechanism"
)

type contextKey string

const (
	cameraKey contextKey = "camclip.camera"
	jobIDKey  contextKey = "camclip.job_id"
)

// WithCamera stores the camera name on the context for later log enrichment.
func WithCamera(ctx context.Context, camera string) context.Context {
	camera = strings.TrimSpace(camera)
	if camera == "" {
		return ctx
	}
	return context.WithValue(ctx, cameraKey, camera)
}

// WithJobID stores the recording job id on the context.
func WithJobID(ctx context.Context, jobID string) context.Context {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, jobID)
}

// CameraFromContext returns the camera name stored on the context, if any.
func CameraFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	camera, ok := ctx.Value(cameraKey).(string)
	return camera, ok && camera != ""
}

// JobIDFromContext returns the job id stored on the context, if any.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	jobID, ok := ctx.Value(jobIDKey).(string)
	return jobID, ok && jobID != ""
}

// WithContext returns a logger enriched with the standardized fields found on ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := make([]any, 0, 2)
	if camera, ok := CameraFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldCamera, camera))
	}
	if jobID, ok := JobIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String(FieldJobID, jobID))
	}
	if len(attrs) == 0 {
		return logger
	}
	return logger.With(attrs...)
}
