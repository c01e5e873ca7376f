package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"camclip/internal/fallback"
)

// ErrNoFrame is returned when every candidate still-image endpoint failed.
var ErrNoFrame = errors.New("no frame available from any snapshot endpoint")

// builtinSnapshotEndpoints are tried after any configured endpoints.
// The list covers OpenIPC builds plus the generic CGI variants cheap
// cameras tend to answer on.
var builtinSnapshotEndpoints = []string{
	"/image.jpg",
	"/cgi-bin/api.cgi?cmd=Snap&channel=0",
	"/cgi-bin/snapshot.cgi",
	"/snapshot.jpg",
	"/img/snapshot.cgi",
	"/cgi-bin/currentpic.cgi",
	"/tmpfs/auto.jpg",
}

// minPlausibleFrameBytes rejects HTML error pages served with a 200 status.
const minPlausibleFrameBytes = 1000

const snapshotTimeout = 10 * time.Second

// Config describes how to reach one camera.
type Config struct {
	Name              string
	Host              string
	Port              int
	RTSPPort          int
	Username          string
	Password          string
	SnapshotEndpoints []string
	HTTPClient        *http.Client
}

// Client is the HTTP/RTSP surface of a single camera.
type Client struct {
	name     string
	host     string
	port     int
	rtspPort int
	username string
	password string
	extra    []string
	client   *http.Client
}

// New constructs a camera client. The zero ports default to 80 and 554.
func New(cfg Config) *Client {
	port := cfg.Port
	if port <= 0 {
		port = 80
	}
	rtspPort := cfg.RTSPPort
	if rtspPort <= 0 {
		rtspPort = 554
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: snapshotTimeout}
	}
	return &Client{
		name:     strings.TrimSpace(cfg.Name),
		host:     strings.TrimSpace(cfg.Host),
		port:     port,
		rtspPort: rtspPort,
		username: cfg.Username,
		password: cfg.Password,
		extra:    append([]string(nil), cfg.SnapshotEndpoints...),
		client:   client,
	}
}

// Name returns the normalized camera name used in paths and filenames.
func (c *Client) Name() string { return c.name }

// DisplayName formats a camera name for captions and notifications
// ("front_door" becomes "Front Door").
func DisplayName(name string) string {
	spaced := strings.ReplaceAll(strings.TrimSpace(name), "_", " ")
	return cases.Title(language.English).String(spaced)
}

// DisplayName returns the camera name formatted for captions and
// notifications.
func (c *Client) DisplayName() string { return DisplayName(c.name) }

// CaptureStill fetches one still image, trying candidate endpoints in order
// and accepting the first plausible image body. Exhaustion yields ErrNoFrame.
func (c *Client) CaptureStill(ctx context.Context) ([]byte, error) {
	endpoints := append(append([]string(nil), c.extra...), builtinSnapshotEndpoints...)
	strategies := make([]fallback.Strategy[[]byte], 0, len(endpoints))
	for _, endpoint := range endpoints {
		strategies = append(strategies, fallback.Strategy[[]byte]{
			Name: endpoint,
			Run: func(ctx context.Context) ([]byte, error) {
				return c.fetchStill(ctx, endpoint)
			},
		})
	}

	data, _, err := fallback.First(ctx, strategies)
	if err != nil {
		if errors.Is(err, fallback.ErrExhausted) {
			return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
		}
		return nil, err
	}
	return data, nil
}

func (c *Client) fetchStill(ctx context.Context, endpoint string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.httpURL(endpoint), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.applyAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "image") {
		return nil, fmt.Errorf("unexpected content type %q", contentType)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) < minPlausibleFrameBytes {
		return nil, fmt.Errorf("body too small (%d bytes)", len(data))
	}
	return data, nil
}

// StreamURL builds the RTSP URL for the given path, embedding credentials.
func (c *Client) StreamURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if c.username != "" {
		return fmt.Sprintf("rtsp://%s:%s@%s:%d%s", c.username, c.password, c.host, c.rtspPort, path)
	}
	return fmt.Sprintf("rtsp://%s:%d%s", c.host, c.rtspPort, path)
}

func (c *Client) httpURL(endpoint string) string {
	return fmt.Sprintf("http://%s:%d%s", c.host, c.port, endpoint)
}

func (c *Client) applyAuth(req *http.Request) {
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
}
