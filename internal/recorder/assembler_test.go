package recorder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"camclip/internal/camera"
	"camclip/internal/fileutil"
	"camclip/internal/logging"
	"camclip/internal/recorder"
	"camclip/internal/services/ffmpeg"
)

type fakeFrameSource struct {
	calls    int
	failOn   map[int]bool
	frame    []byte
	overlays int
}

func (f *fakeFrameSource) Name() string { return "test_cam" }

func (f *fakeFrameSource) CaptureStill(ctx context.Context) ([]byte, error) {
	call := f.calls
	f.calls++
	if f.failOn[call] {
		return nil, camera.ErrNoFrame
	}
	return f.frame, nil
}

func (f *fakeFrameSource) FetchTelemetry(ctx context.Context) camera.Telemetry {
	return camera.Telemetry{CPUTemp: 40}
}

type fakeEncoder struct {
	ffmpeg.Client
	encodeErr  error
	frameFiles []string
	pattern    string
}

func (f *fakeEncoder) EncodeFrames(ctx context.Context, framePattern string, frameRate int, outputPath string) error {
	f.pattern = framePattern
	files, _ := filepath.Glob(filepath.Join(filepath.Dir(framePattern), "frame_*.jpg"))
	f.frameFiles = files
	if f.encodeErr != nil {
		return f.encodeErr
	}
	return os.WriteFile(outputPath, make([]byte, 2048), 0o644)
}

func TestAssemblerSkipsFailedFramesAndStaysContiguous(t *testing.T) {
	source := &fakeFrameSource{
		frame:  []byte("jpegdata"),
		failOn: map[int]bool{1: true, 3: true},
	}
	encoder := &fakeEncoder{}
	asm := recorder.NewAssembler(source, encoder, 5*time.Millisecond, logging.NewNop())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := asm.Record(context.Background(), 30*time.Millisecond, out)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !result.Success || result.Method != recorder.MethodSnapshots {
		t.Fatalf("result = %+v", result)
	}
	// 6 planned captures, 2 injected failures.
	if result.Frames != 4 {
		t.Fatalf("Frames = %d, want 4", result.Frames)
	}
	if len(encoder.frameFiles) != 4 {
		t.Fatalf("encoder saw %d frame files", len(encoder.frameFiles))
	}
	for i, file := range encoder.frameFiles {
		want := filepath.Join(filepath.Dir(encoder.pattern), fileutil.FrameName(i))
		if file != want {
			t.Fatalf("frame %d = %s, want %s (gaps break the input pattern)", i, file, want)
		}
	}
	if _, err := os.Stat(filepath.Dir(encoder.pattern)); !os.IsNotExist(err) {
		t.Fatal("temp frame dir not cleaned up")
	}
}

func TestAssemblerAllFramesFailed(t *testing.T) {
	source := &fakeFrameSource{
		frame:  []byte("jpegdata"),
		failOn: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true},
	}
	encoder := &fakeEncoder{}
	asm := recorder.NewAssembler(source, encoder, 5*time.Millisecond, logging.NewNop())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := asm.Record(context.Background(), 30*time.Millisecond, out)
	if !errors.Is(err, recorder.ErrNoFramesCaptured) {
		t.Fatalf("err = %v, want ErrNoFramesCaptured", err)
	}
	if result.Success || result.Frames != 0 {
		t.Fatalf("result = %+v", result)
	}
	if encoder.pattern != "" {
		t.Fatal("encoder ran with zero frames")
	}
}

func TestAssemblerShortDurationCapturesOneFrame(t *testing.T) {
	source := &fakeFrameSource{frame: []byte("jpegdata")}
	encoder := &fakeEncoder{}
	asm := recorder.NewAssembler(source, encoder, time.Second, logging.NewNop())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := asm.Record(context.Background(), time.Millisecond, out)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.Frames != 1 || source.calls != 1 {
		t.Fatalf("frames = %d calls = %d, want exactly one", result.Frames, source.calls)
	}
}

func TestAssemblerOverlayFailureKeepsFrame(t *testing.T) {
	source := &fakeFrameSource{frame: []byte("jpegdata")}
	encoder := &fakeEncoder{}
	overlay := func(frame []byte, at time.Time, tel camera.Telemetry) ([]byte, error) {
		return nil, errors.New("font missing")
	}
	asm := recorder.NewAssembler(source, encoder, time.Second, logging.NewNop(), recorder.WithOverlay(overlay))

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := asm.Record(context.Background(), time.Millisecond, out)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if result.Frames != 1 {
		t.Fatalf("frames = %d, the raw frame should survive a bad overlay", result.Frames)
	}
}

func TestAssemblerEncodeFailure(t *testing.T) {
	source := &fakeFrameSource{frame: []byte("jpegdata")}
	encoder := &fakeEncoder{encodeErr: errors.New("exit status 1")}
	asm := recorder.NewAssembler(source, encoder, time.Second, logging.NewNop())

	out := filepath.Join(t.TempDir(), "clip.mp4")
	result, err := asm.Record(context.Background(), time.Millisecond, out)
	if err == nil {
		t.Fatal("expected encode error")
	}
	if result.Success {
		t.Fatalf("result = %+v", result)
	}
}
