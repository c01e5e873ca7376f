package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge means the destination rejected the file size. Retrying is
// pointless; only a different mechanism can help.
var ErrTooLarge = errors.New("file too large for destination")

const defaultTelegramBaseURL = "https://api.telegram.org"

// Telegram sends videos and messages through the Bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// TelegramOption adjusts Telegram construction.
type TelegramOption func(*Telegram)

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) TelegramOption {
	return func(t *Telegram) { t.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the HTTP client. Per-attempt deadlines come from
// the caller's context, so the default client carries no timeout of its own.
func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) { t.client = client }
}

// NewTelegram builds a Bot API client. chatID is the default destination;
// per-call targets override it.
func NewTelegram(botToken, chatID string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  defaultTelegramBaseURL,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// chat resolves the destination chat id. Empty target means the default.
func (t *Telegram) chat(target string) string {
	if target = strings.TrimSpace(target); target != "" {
		return target
	}
	return t.chatID
}

// SendVideo uploads the file at path with the given caption. An empty
// target sends to the configured chat.
func (t *Telegram) SendVideo(ctx context.Context, path, caption, target string) error {
	fields := map[string]string{"supports_streaming": "true"}
	return t.upload(ctx, "sendVideo", "video", path, caption, target, fields)
}

// SendDocument uploads an arbitrary file as a document.
func (t *Telegram) SendDocument(ctx context.Context, path, caption, target string) error {
	return t.upload(ctx, "sendDocument", "document", path, caption, target, nil)
}

func (t *Telegram) upload(ctx context.Context, method, field, path, caption, target string, extra map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", field, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("chat_id", t.chat(target)); err != nil {
		return fmt.Errorf("write chat_id: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("write caption: %w", err)
		}
	}
	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy %s: %w", field, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	return t.call(ctx, method, writer.FormDataContentType(), &body)
}

// SendMessage posts a plain text message. An empty target sends to the
// configured chat.
func (t *Telegram) SendMessage(ctx context.Context, text, target string) error {
	payload := map[string]string{
		"chat_id": t.chat(target),
		"text":    text,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return t.call(ctx, "sendMessage", "application/json", bytes.NewReader(data))
}

func (t *Telegram) call(ctx context.Context, method, contentType string, body io.Reader) error {
	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return fmt.Errorf("%s returned http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if apiResp.OK {
		return nil
	}
	if strings.Contains(strings.ToLower(apiResp.Description), "file is too big") {
		return fmt.Errorf("%w: %s", ErrTooLarge, apiResp.Description)
	}
	return fmt.Errorf("%s failed: %s", method, apiResp.Description)
}
