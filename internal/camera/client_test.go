package camera

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
)

func testClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	cfg.Host = u.Hostname()
	cfg.Port = port
	cfg.HTTPClient = srv.Client()
	return New(cfg)
}

func plausibleJPEG() []byte {
	body := make([]byte, 2048)
	copy(body, []byte{0xff, 0xd8, 0xff})
	return body
}

func TestCaptureStillFallsThroughEndpoints(t *testing.T) {
	var requested []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = append(requested, r.URL.Path)
		if r.URL.Path != "/snapshot.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(plausibleJPEG())
	}))
	defer srv.Close()

	client := testClient(t, srv, Config{Name: "front_door"})
	data, err := client.CaptureStill(context.Background())
	if err != nil {
		t.Fatalf("CaptureStill: %v", err)
	}
	if len(data) != 2048 {
		t.Fatalf("got %d bytes, want 2048", len(data))
	}
	if requested[0] != "/image.jpg" {
		t.Fatalf("first endpoint tried = %q, want /image.jpg", requested[0])
	}
}

func TestCaptureStillPrefersConfiguredEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/custom/snap" {
			t.Errorf("unexpected request to %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "root" || pass != "secret" {
			t.Errorf("missing or wrong basic auth")
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(plausibleJPEG())
	}))
	defer srv.Close()

	client := testClient(t, srv, Config{
		Name:              "gate",
		Username:          "root",
		Password:          "secret",
		SnapshotEndpoints: []string{"/custom/snap"},
	})
	if _, err := client.CaptureStill(context.Background()); err != nil {
		t.Fatalf("CaptureStill: %v", err)
	}
}

func TestCaptureStillRejectsImplausibleBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image.jpg":
			// HTML error page with a lying status code.
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(strings.Repeat("<html>not found</html>", 100)))
		case "/snapshot.jpg":
			// Image content type but a tiny body.
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := testClient(t, srv, Config{Name: "yard"})
	_, err := client.CaptureStill(context.Background())
	if !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}
}

func TestStreamURL(t *testing.T) {
	client := New(Config{Name: "front", Host: "10.0.0.5", Username: "root", Password: "pw"})
	got := client.StreamURL("stream=0")
	want := "rtsp://root:pw@10.0.0.5:554/stream=0"
	if got != want {
		t.Fatalf("StreamURL = %q, want %q", got, want)
	}

	anon := New(Config{Name: "front", Host: "10.0.0.5", RTSPPort: 8554})
	if got := anon.StreamURL("/live"); got != "rtsp://10.0.0.5:8554/live" {
		t.Fatalf("anonymous StreamURL = %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	client := New(Config{Name: "front_door", Host: "10.0.0.5"})
	if got := client.DisplayName(); got != "Front Door" {
		t.Fatalf("DisplayName = %q, want %q", got, "Front Door")
	}
}

func TestSDRecordingStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/record.cgi" || r.URL.Query().Get("action") != "status" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("record=on\n"))
	}))
	defer srv.Close()

	client := testClient(t, srv, Config{Name: "cam"})
	recording, err := client.SDRecordingStatus(context.Background())
	if err != nil {
		t.Fatalf("SDRecordingStatus: %v", err)
	}
	if !recording {
		t.Fatal("expected recording=true")
	}
}

func TestSDControlUnsupported(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := testClient(t, srv, Config{Name: "cam"})
	err := client.StartSDRecording(context.Background())
	if !errors.Is(err, ErrSDControlUnsupported) {
		t.Fatalf("err = %v, want ErrSDControlUnsupported", err)
	}
}

func TestFetchTelemetry(t *testing.T) {
	const metrics = `# HELP cpu_temp SoC temperature
cpu_temp 47.5
uptime_seconds 93784
stream_fps{ch="0"} 25
video_bitrate_kbps 2048
video_width 1920
video_height 1080
wifi_rssi -61
motion_detected 1
sd_recording 0
garbage line without value
`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(metrics))
	}))
	defer srv.Close()

	client := testClient(t, srv, Config{Name: "cam"})
	tel := client.FetchTelemetry(context.Background())
	if tel.CPUTemp != 47.5 {
		t.Errorf("CPUTemp = %v, want 47.5", tel.CPUTemp)
	}
	if tel.FPS != 25 {
		t.Errorf("FPS = %v, want 25", tel.FPS)
	}
	if tel.Resolution() != "1920x1080" {
		t.Errorf("Resolution = %q", tel.Resolution())
	}
	if tel.Uptime() != "1d 2h 3m" {
		t.Errorf("Uptime = %q, want %q", tel.Uptime(), "1d 2h 3m")
	}
	if !tel.Motion || tel.Recording {
		t.Errorf("Motion = %v Recording = %v", tel.Motion, tel.Recording)
	}
	if tel.WifiSignal != -61 {
		t.Errorf("WifiSignal = %d, want -61", tel.WifiSignal)
	}
}

func TestFetchTelemetryDegradesToZero(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client := testClient(t, srv, Config{Name: "cam"})
	tel := client.FetchTelemetry(context.Background())
	if tel != (Telemetry{}) {
		t.Fatalf("expected zero telemetry, got %+v", tel)
	}
}
