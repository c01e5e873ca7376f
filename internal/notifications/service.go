package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"camclip/internal/config"
)

const userAgent = "camclip/0.1.0"

// Service defines the notification surface exposed to the recorder and the
// delivery engine.
type Service interface {
	NotifyRecordingStarted(ctx context.Context, camera, method string, duration time.Duration) error
	NotifyRecordingCompleted(ctx context.Context, camera, fileName string, sizeBytes int64) error
	NotifyDeliveryCompleted(ctx context.Context, camera, fileName, mechanism string) error
	NotifyDeliveryFailed(ctx context.Context, camera, fileName string, attempts int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:  topic,
		client:    client,
		recording: cfg.Notifications.Recording,
		delivery:  cfg.Notifications.Delivery,
		errors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	recording bool
	delivery  bool
	errors    bool
}

func (n *ntfyService) NotifyRecordingStarted(ctx context.Context, camera, method string, duration time.Duration) error {
	if !n.recording {
		return nil
	}
	data := payload{
		title:   "Camclip - Recording Started",
		message: fmt.Sprintf("Recording %s via %s for %s", camera, method, duration.Round(time.Second)),
		tags:    []string{"camclip", "recording", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRecordingCompleted(ctx context.Context, camera, fileName string, sizeBytes int64) error {
	if !n.recording {
		return nil
	}
	data := payload{
		title:   "Camclip - Recording Complete",
		message: fmt.Sprintf("%s: %s (%s)", camera, fileName, humanize.Bytes(uint64(sizeBytes))),
		tags:    []string{"camclip", "recording", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeliveryCompleted(ctx context.Context, camera, fileName, mechanism string) error {
	if !n.delivery {
		return nil
	}
	data := payload{
		title:   "Camclip - Delivered",
		message: fmt.Sprintf("Delivered %s from %s via %s", fileName, camera, mechanism),
		tags:    []string{"camclip", "delivery", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeliveryFailed(ctx context.Context, camera, fileName string, attempts int) error {
	if !n.delivery {
		return nil
	}
	data := payload{
		title:    "Camclip - Delivery Failed",
		message:  fmt.Sprintf("Could not deliver %s from %s after %d attempts", fileName, camera, attempts),
		tags:     []string{"camclip", "delivery", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Camclip - Error",
		message:  builder.String(),
		tags:     []string{"camclip", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Camclip - Test",
		message:  "Notification system test",
		tags:     []string{"camclip", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewServiceDisabled returns the noop implementation. Callers that want
// notifications off unconditionally use this instead of a nil check.
func NewServiceDisabled() Service {
	return noopService{}
}

type noopService struct{}

func (noopService) NotifyRecordingStarted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyRecordingCompleted(context.Context, string, string, int64) error {
	return nil
}
func (noopService) NotifyDeliveryCompleted(context.Context, string, string, string) error {
	return nil
}
func (noopService) NotifyDeliveryFailed(context.Context, string, string, int) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
