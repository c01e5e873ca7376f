package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// NtfyUploadHook attaches the artifact to an ntfy topic. Topics accept file
// uploads via PUT with a Filename header.
func NtfyUploadHook(topic string, client *http.Client) Hook {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return Hook{
		Name: MechanismNtfyUpload,
		Send: func(ctx context.Context, art Artifact) error {
			file, err := os.Open(art.Path)
			if err != nil {
				return fmt.Errorf("open artifact: %w", err)
			}
			defer file.Close()

			req, err := http.NewRequestWithContext(ctx, http.MethodPut, topic, file)
			if err != nil {
				return fmt.Errorf("build upload request: %w", err)
			}
			req.ContentLength = art.SizeBytes
			req.Header.Set("Filename", art.FileName)
			req.Header.Set("Title", "Recording from "+art.Camera)

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("upload to ntfy: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		},
	}
}

// MessageSender posts plain text. *Telegram satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, text, target string) error
}

// TelegramMessageHook sends a text message pointing at the stored file when
// the upload itself could not go through.
func TelegramMessageHook(sender MessageSender) Hook {
	return Hook{
		Name: MechanismTelegramMessage,
		Send: func(ctx context.Context, art Artifact) error {
			text := fmt.Sprintf(
				"Recording from %s could not be uploaded.\nStored at: %s (%.1f MB)",
				art.Camera, art.Path, float64(art.SizeBytes)/(1024*1024))
			return sender.SendMessage(ctx, text, art.Target)
		},
	}
}
