package recorder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"camclip/internal/logging"
	"camclip/internal/recorder"
	"camclip/internal/services/ffmpeg"
)

type fakeStreamSource struct{}

func (fakeStreamSource) Name() string { return "test_cam" }

func (fakeStreamSource) StreamURL(path string) string {
	return "rtsp://10.0.0.5:554" + path
}

type fakeStreamClient struct {
	ffmpeg.Client
	probeOK    map[string]bool
	probed     []string
	copies     []ffmpeg.CopyRequest
	copyErrors []error
}

func (f *fakeStreamClient) Probe(ctx context.Context, url string, transport ffmpeg.Transport) error {
	f.probed = append(f.probed, url)
	for path, ok := range f.probeOK {
		if ok && url == "rtsp://10.0.0.5:554"+path {
			return nil
		}
	}
	return errors.New("404 Not Found")
}

func (f *fakeStreamClient) CopyStream(ctx context.Context, req ffmpeg.CopyRequest) error {
	f.copies = append(f.copies, req)
	if len(f.copyErrors) > 0 {
		err := f.copyErrors[0]
		f.copyErrors = f.copyErrors[1:]
		if err != nil {
			return err
		}
	}
	return os.WriteFile(req.OutputPath, make([]byte, 4096), 0o644)
}

func commandError(stderr string) error {
	return &ffmpeg.CommandError{Stderr: stderr, Err: errors.New("exit status 1")}
}

func TestStreamRecorderUsesPrimaryPath(t *testing.T) {
	client := &fakeStreamClient{probeOK: map[string]bool{"/stream=1": true}}
	rec := recorder.NewStreamRecorder(fakeStreamSource{}, client, logging.NewNop(),
		recorder.WithPrimaryPath("/stream=1"),
		recorder.WithAudio(true))

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := rec.Record(context.Background(), 10*time.Second, out)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !result.Success || result.Method != recorder.MethodStream {
		t.Fatalf("result = %+v", result)
	}
	if len(client.probed) != 1 {
		t.Fatalf("probed %d paths, the primary should answer first", len(client.probed))
	}
	if len(client.copies) != 1 {
		t.Fatalf("copies = %d", len(client.copies))
	}
	copyReq := client.copies[0]
	if copyReq.Transport != ffmpeg.TransportTCP || !copyReq.WithAudio {
		t.Fatalf("copy request = %+v", copyReq)
	}
	if result.Transport != ffmpeg.TransportTCP || !result.Audio {
		t.Fatalf("result transport/audio = %v/%v", result.Transport, result.Audio)
	}
}

func TestStreamRecorderFallsBackThroughCatalog(t *testing.T) {
	client := &fakeStreamClient{probeOK: map[string]bool{"/live": true}}
	rec := recorder.NewStreamRecorder(fakeStreamSource{}, client, logging.NewNop(),
		recorder.WithPrimaryPath("/stream=0"))

	out := filepath.Join(t.TempDir(), "clip.mp4")
	if _, err := rec.Record(context.Background(), 10*time.Second, out); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// /stream=0 (primary), /av0_0, then /live answers.
	if len(client.probed) != 3 {
		t.Fatalf("probed %d paths: %v", len(client.probed), client.probed)
	}
	if client.copies[0].URL != "rtsp://10.0.0.5:554/live" {
		t.Fatalf("copied from %s", client.copies[0].URL)
	}
}

func TestStreamRecorderNoWorkingPath(t *testing.T) {
	client := &fakeStreamClient{}
	rec := recorder.NewStreamRecorder(fakeStreamSource{}, client, logging.NewNop())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := rec.Record(context.Background(), 10*time.Second, out)
	if !errors.Is(err, recorder.ErrNoWorkingStreamPath) {
		t.Fatalf("err = %v, want ErrNoWorkingStreamPath", err)
	}
	if result.Success {
		t.Fatalf("result = %+v", result)
	}
	if len(client.copies) != 0 {
		t.Fatal("copy ran without a working path")
	}
}

func TestStreamRecorderRetriesWithoutAudio(t *testing.T) {
	client := &fakeStreamClient{
		probeOK:    map[string]bool{"/stream=0": true},
		copyErrors: []error{commandError("codec not currently supported in container")},
	}
	rec := recorder.NewStreamRecorder(fakeStreamSource{}, client, logging.NewNop(),
		recorder.WithAudio(true))

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := rec.Record(context.Background(), 10*time.Second, out)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(client.copies) != 2 {
		t.Fatalf("copies = %d, want a retry", len(client.copies))
	}
	if client.copies[0].WithAudio == false || client.copies[1].WithAudio == true {
		t.Fatalf("audio flags = %v then %v", client.copies[0].WithAudio, client.copies[1].WithAudio)
	}
	if result.Audio {
		t.Fatal("result still claims audio after the retry dropped it")
	}
}

func TestStreamRecorderRetriesOverUDP(t *testing.T) {
	client := &fakeStreamClient{
		probeOK:    map[string]bool{"/stream=0": true},
		copyErrors: []error{commandError("Connection refused")},
	}
	rec := recorder.NewStreamRecorder(fakeStreamSource{}, client, logging.NewNop(),
		recorder.WithAudio(true))

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := rec.Record(context.Background(), 10*time.Second, out)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(client.copies) != 2 {
		t.Fatalf("copies = %d, want a retry", len(client.copies))
	}
	if client.copies[1].Transport != ffmpeg.TransportUDP {
		t.Fatalf("retry transport = %v, want udp", client.copies[1].Transport)
	}
	if client.copies[1].WithAudio {
		t.Fatal("udp retry kept audio enabled")
	}
	if result.Transport != ffmpeg.TransportUDP {
		t.Fatalf("result transport = %v", result.Transport)
	}
	if result.Audio {
		t.Fatal("result still claims audio after the udp retry dropped it")
	}
}

func TestStreamRecorderBothRetriesExhausted(t *testing.T) {
	client := &fakeStreamClient{
		probeOK: map[string]bool{"/stream=0": true},
		copyErrors: []error{
			commandError("Connection timed out"),
			commandError("Connection timed out"),
		},
	}
	rec := recorder.NewStreamRecorder(fakeStreamSource{}, client, logging.NewNop())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := rec.Record(context.Background(), 10*time.Second, out)
	if err == nil {
		t.Fatal("expected failure after the udp retry also failed")
	}
	if result.Success {
		t.Fatalf("result = %+v", result)
	}
	if len(client.copies) != 2 {
		t.Fatalf("copies = %d", len(client.copies))
	}
}
