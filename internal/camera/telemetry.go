package camera

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Telemetry carries the runtime readings the OSD can render. Any field the
// camera failed to report stays at its zero value.
type Telemetry struct {
	CPUTemp    float64
	UptimeSecs int64
	FPS        float64
	BitrateKbs float64
	Width      int
	Height     int
	WifiSignal int
	Motion     bool
	Recording  bool
}

// Uptime renders the uptime as "1d 2h 3m" style text for overlays.
func (t Telemetry) Uptime() string {
	if t.UptimeSecs <= 0 {
		return "0m"
	}
	d := time.Duration(t.UptimeSecs) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}

// Resolution renders "1920x1080", or empty when unknown.
func (t Telemetry) Resolution() string {
	if t.Width <= 0 || t.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", t.Width, t.Height)
}

// telemetryEndpoints are tried in order when polling camera metrics.
var telemetryEndpoints = []string{
	"/metrics",
	"/api/v1/metrics",
}

// FetchTelemetry polls the camera's Prometheus-text metrics endpoint. A
// camera without a metrics exporter yields a zero-value Telemetry and no
// error so overlays degrade instead of failing the capture.
func (c *Client) FetchTelemetry(ctx context.Context) Telemetry {
	for _, endpoint := range telemetryEndpoints {
		body, err := c.fetchText(ctx, endpoint)
		if err != nil {
			continue
		}
		return parseTelemetry(body)
	}
	return Telemetry{}
}

func (c *Client) fetchText(ctx context.Context, endpoint string) (string, error) {
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

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// parseTelemetry extracts the known gauges from Prometheus text exposition.
// Unknown metrics are skipped and malformed lines are ignored.
func parseTelemetry(body string) Telemetry {
	var t Telemetry
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := splitMetricLine(line)
		if !ok {
			continue
		}
		switch name {
		case "cpu_temp", "soc_temp", "temperature_celsius":
			t.CPUTemp = value
		case "uptime", "uptime_seconds", "system_uptime_seconds":
			t.UptimeSecs = int64(value)
		case "fps", "video_fps", "stream_fps":
			t.FPS = value
		case "bitrate", "video_bitrate_kbps", "stream_bitrate_kbps":
			t.BitrateKbs = value
		case "width", "video_width":
			t.Width = int(value)
		case "height", "video_height":
			t.Height = int(value)
		case "wifi_signal", "wifi_rssi", "wireless_signal_dbm":
			t.WifiSignal = int(value)
		case "motion", "motion_detected":
			t.Motion = value != 0
		case "recording", "sd_recording":
			t.Recording = value != 0
		}
	}
	return t
}

func splitMetricLine(line string) (string, float64, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", 0, false
	}
	name := fields[0]
	if idx := strings.IndexByte(name, '{'); idx >= 0 {
		name = name[:idx]
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, false
	}
	return name, value, true
}
