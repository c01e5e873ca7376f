package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to a running daemon.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a client for the daemon at bind ("host:port" or full URL).
func NewClient(bind, token string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Record starts a capture job.
func (c *Client) Record(ctx context.Context, req RecordRequest) (*RecordResponse, error) {
	var resp RecordResponse
	if err := c.post(ctx, "/api/record", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopRecording cancels the active job.
func (c *Client) StopRecording(ctx context.Context) (*StopResponse, error) {
	var resp StopResponse
	if err := c.post(ctx, "/api/record/stop", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deliver pushes an existing artifact through the delivery chain.
func (c *Client) Deliver(ctx context.Context, req DeliverRequest) (*DeliverResponse, error) {
	var resp DeliverResponse
	if err := c.post(ctx, "/api/deliver", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DiagnosePaths runs the RTSP path probe on the daemon.
func (c *Client) DiagnosePaths(ctx context.Context) (*DiagnoseResponse, error) {
	var resp DiagnoseResponse
	if err := c.get(ctx, "/api/diagnose/paths", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History fetches recent ledger rows.
func (c *Client) History(ctx context.Context, limit int) (*HistoryResponse, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp HistoryResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned http %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
