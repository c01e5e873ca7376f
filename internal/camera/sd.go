package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"camclip/internal/fallback"
)

// ErrSDControlUnsupported is returned when no on-device record endpoint
// answered for the requested action.
var ErrSDControlUnsupported = errors.New("camera does not expose an SD record control endpoint")

// sdRecordEndpoints yields the candidate control URLs for one action.
// Firmwares ship either the classic CGI form or the newer REST form.
func sdRecordEndpoints(action string) []string {
	return []string{
		"/cgi-bin/record.cgi?action=" + action,
		"/api/v1/record?action=" + action,
	}
}

// StartSDRecording asks the camera to begin recording to its own SD card.
func (c *Client) StartSDRecording(ctx context.Context) error {
	_, err := c.sdControl(ctx, "start")
	return err
}

// StopSDRecording asks the camera to stop its on-device SD recording.
func (c *Client) StopSDRecording(ctx context.Context) error {
	_, err := c.sdControl(ctx, "stop")
	return err
}

// SDRecordingStatus reports whether the camera believes it is recording to
// SD. The body is matched loosely since firmwares answer with plain text,
// JSON, or key=value lines.
func (c *Client) SDRecordingStatus(ctx context.Context) (bool, error) {
	body, err := c.sdControl(ctx, "status")
	if err != nil {
		return false, err
	}
	lowered := strings.ToLower(body)
	switch {
	case strings.Contains(lowered, "recording"), strings.Contains(lowered, "\"on\""),
		strings.Contains(lowered, "=on"), strings.Contains(lowered, "true"),
		strings.Contains(lowered, "=1"):
		return true, nil
	}
	return false, nil
}

func (c *Client) sdControl(ctx context.Context, action string) (string, error) {
	endpoints := sdRecordEndpoints(action)
	strategies := make([]fallback.Strategy[string], 0, len(endpoints))
	for _, endpoint := range endpoints {
		strategies = append(strategies, fallback.Strategy[string]{
			Name: endpoint,
			Run: func(ctx context.Context) (string, error) {
				return c.fetchControl(ctx, endpoint)
			},
		})
	}
	body, _, err := fallback.First(ctx, strategies)
	if err != nil {
		if errors.Is(err, fallback.ErrExhausted) {
			return "", fmt.Errorf("%w: %w", ErrSDControlUnsupported, err)
		}
		return "", err
	}
	return body, nil
}

func (c *Client) fetchControl(ctx context.Context, endpoint string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.httpURL(endpoint), nil)
	if err != nil {
		return "", err
	}
	c.applyAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
