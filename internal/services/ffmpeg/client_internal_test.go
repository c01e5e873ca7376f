package ffmpeg

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func stubCommand(t *testing.T, script string) (restore func(), captured *[][]string) {
	t.Helper()
	calls := &[][]string{}
	prev := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*calls = append(*calls, append([]string{name}, args...))
		return exec.CommandContext(ctx, "/bin/sh", "-c", script)
	}
	return func() { commandContext = prev }, calls
}

func TestEncodeFramesBuildsExpectedArgs(t *testing.T) {
	restore, calls := stubCommand(t, "exit 0")
	defer restore()

	cli := NewCLI()
	if err := cli.EncodeFrames(context.Background(), "/tmp/frames/frame_%04d.jpg", 1, "/tmp/out.mp4"); err != nil {
		t.Fatalf("EncodeFrames: %v", err)
	}

	if len(*calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(*calls))
	}
	joined := strings.Join((*calls)[0], " ")
	for _, want := range []string{"-framerate 1", "-c:v libx264", "-pix_fmt yuv420p", "-crf 23", "/tmp/out.mp4"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
}

func TestCopyStreamAudioToggle(t *testing.T) {
	restore, calls := stubCommand(t, "exit 0")
	defer restore()

	cli := NewCLI()
	req := CopyRequest{
		URL:        "rtsp://cam/stream=0",
		Duration:   15 * time.Second,
		Transport:  TransportTCP,
		WithAudio:  true,
		OutputPath: "/tmp/out.mp4",
	}
	if err := cli.CopyStream(context.Background(), req); err != nil {
		t.Fatalf("CopyStream: %v", err)
	}
	req.WithAudio = false
	req.Transport = TransportUDP
	if err := cli.CopyStream(context.Background(), req); err != nil {
		t.Fatalf("CopyStream without audio: %v", err)
	}

	withAudio := strings.Join((*calls)[0], " ")
	if !strings.Contains(withAudio, "-c:a aac") || strings.Contains(withAudio, "-an") {
		t.Errorf("audio args wrong: %s", withAudio)
	}
	if !strings.Contains(withAudio, "-rtsp_transport tcp") || !strings.Contains(withAudio, "-t 15") {
		t.Errorf("transport or duration args wrong: %s", withAudio)
	}

	muted := strings.Join((*calls)[1], " ")
	if !strings.Contains(muted, "-an") || strings.Contains(muted, "aac") {
		t.Errorf("mute args wrong: %s", muted)
	}
	if !strings.Contains(muted, "-rtsp_transport udp") {
		t.Errorf("udp transport missing: %s", muted)
	}
}

func TestRunCapturesStderrTail(t *testing.T) {
	restore, _ := stubCommand(t, "echo 'rtsp://cam: Connection refused' >&2; exit 1")
	defer restore()

	cli := NewCLI()
	err := cli.Probe(context.Background(), "rtsp://cam/stream=0", TransportTCP)
	if err == nil {
		t.Fatal("expected probe failure")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", err)
	}
	if !IsConnectionFailure(err) {
		t.Fatalf("expected connection failure classification, stderr=%q", cmdErr.Stderr)
	}
	if IsAudioCodecRejected(err) {
		t.Fatal("should not classify as audio codec rejection")
	}
}

func TestIsAudioCodecRejected(t *testing.T) {
	restore, _ := stubCommand(t, "echo 'Could not find tag for codec pcm_alaw in stream #1, codec not currently supported in container' >&2; exit 1")
	defer restore()

	cli := NewCLI()
	err := cli.CopyStream(context.Background(), CopyRequest{
		URL:        "rtsp://cam/stream=0",
		Duration:   5 * time.Second,
		WithAudio:  true,
		OutputPath: "/tmp/out.mp4",
	})
	if !IsAudioCodecRejected(err) {
		t.Fatalf("expected audio codec rejection, got %v", err)
	}
}

func TestCopyStreamValidatesRequest(t *testing.T) {
	cli := NewCLI()
	if err := cli.CopyStream(context.Background(), CopyRequest{OutputPath: "x", Duration: time.Second}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if err := cli.CopyStream(context.Background(), CopyRequest{URL: "rtsp://cam", OutputPath: "x"}); err == nil {
		t.Fatal("expected error for missing duration")
	}
}
