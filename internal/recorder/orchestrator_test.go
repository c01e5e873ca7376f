package recorder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"camclip/internal/delivery"
	"camclip/internal/logging"
	"camclip/internal/recorder"
	"camclip/internal/testsupport"
)

type stubCapturer struct {
	mu      sync.Mutex
	block   chan struct{}
	ctxErrs []error
	err     error
}

func (s *stubCapturer) Record(ctx context.Context, duration time.Duration, outputPath string) (recorder.Result, error) {
	if s.block != nil {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.ctxErrs = append(s.ctxErrs, ctx.Err())
			s.mu.Unlock()
			return recorder.Result{Method: recorder.MethodStream, Error: ctx.Err().Error()}, ctx.Err()
		case <-s.block:
		}
	}
	if s.err != nil {
		return recorder.Result{Method: recorder.MethodStream, Error: s.err.Error()}, s.err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return recorder.Result{}, err
	}
	if err := os.WriteFile(outputPath, make([]byte, 4096), 0o644); err != nil {
		return recorder.Result{}, err
	}
	return recorder.Result{
		Success:         true,
		Method:          recorder.MethodStream,
		FilePath:        outputPath,
		FileName:        filepath.Base(outputPath),
		SizeBytes:       4096,
		DurationSeconds: int(duration / time.Second),
	}, nil
}

type stubDeliverer struct {
	mu    sync.Mutex
	calls int
	fail  bool
	last  delivery.Artifact
}

func (s *stubDeliverer) Deliver(ctx context.Context, art delivery.Artifact) (delivery.Outcome, error) {
	s.mu.Lock()
	s.calls++
	s.last = art
	s.mu.Unlock()
	att := delivery.Attempt{Mechanism: delivery.MechanismTelegramAPI, Index: 1, Success: !s.fail}
	if s.fail {
		att.Error = "unreachable"
		return delivery.Outcome{Attempts: []delivery.Attempt{att}}, errors.New("unreachable")
	}
	return delivery.Outcome{
		Delivered: true,
		Mechanism: delivery.MechanismTelegramAPI,
		Attempts:  []delivery.Attempt{att},
	}, nil
}

func TestRunRecordsAndDelivers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	deliverer := &stubDeliverer{}

	orch := recorder.NewOrchestrator("test_cam", cfg.RecordingsDir(), nil, &stubCapturer{}, logging.NewNop(),
		recorder.WithLedger(st),
		recorder.WithDeliverer(deliverer))

	outcome, err := orch.Run(context.Background(), recorder.StartRequest{
		Method:   recorder.MethodStream,
		Duration: 5 * time.Second,
		Deliver:  true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Result.Success || !outcome.Delivered {
		t.Fatalf("outcome = %+v", outcome)
	}
	if deliverer.calls != 1 {
		t.Fatalf("deliverer called %d times", deliverer.calls)
	}

	rec, err := st.GetByJobID(context.Background(), outcome.JobID)
	if err != nil {
		t.Fatalf("GetByJobID: %v", err)
	}
	if !rec.Success || !rec.Delivered {
		t.Fatalf("ledger row = %+v", rec)
	}
	attempts, err := st.Attempts(context.Background(), outcome.JobID)
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].Mechanism != delivery.MechanismTelegramAPI {
		t.Fatalf("attempts = %+v", attempts)
	}
}

func TestRunPassesCaptionTargetAndDisplayName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	deliverer := &stubDeliverer{}

	orch := recorder.NewOrchestrator("front_door", cfg.RecordingsDir(), nil, &stubCapturer{}, logging.NewNop(),
		recorder.WithDisplayName("Front Door"),
		recorder.WithDeliverer(deliverer))

	_, err := orch.Run(context.Background(), recorder.StartRequest{
		Method:   recorder.MethodStream,
		Duration: 5 * time.Second,
		Deliver:  true,
		Caption:  "Motion at the gate",
		Target:   "-100321",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if deliverer.last.Caption != "Motion at the gate" {
		t.Fatalf("artifact caption = %q", deliverer.last.Caption)
	}
	if deliverer.last.Target != "-100321" {
		t.Fatalf("artifact target = %q", deliverer.last.Target)
	}
	if deliverer.last.Camera != "Front Door" {
		t.Fatalf("artifact camera = %q, want the display name", deliverer.last.Camera)
	}
}

func TestRunCaptureFailureSkipsDelivery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	deliverer := &stubDeliverer{}
	capturer := &stubCapturer{err: recorder.ErrNoFramesCaptured}

	orch := recorder.NewOrchestrator("test_cam", cfg.RecordingsDir(), capturer, nil, logging.NewNop(),
		recorder.WithDeliverer(deliverer))

	_, err := orch.Run(context.Background(), recorder.StartRequest{
		Method:   recorder.MethodSnapshots,
		Duration: 5 * time.Second,
		Deliver:  true,
	})
	if !errors.Is(err, recorder.ErrNoFramesCaptured) {
		t.Fatalf("err = %v", err)
	}
	if deliverer.calls != 0 {
		t.Fatal("delivery ran for a failed capture")
	}
}

func TestStartSupersedesActiveJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocked := &stubCapturer{block: make(chan struct{})}

	orch := recorder.NewOrchestrator("test_cam", cfg.RecordingsDir(), nil, blocked, logging.NewNop())

	first, err := orch.Start(recorder.StartRequest{Method: recorder.MethodStream, Duration: time.Minute})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	second, err := orch.Start(recorder.StartRequest{Method: recorder.MethodStream, Duration: time.Minute})
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if first == second {
		t.Fatal("job ids must differ")
	}

	// The first job's context must be cancelled even though the second is
	// still running.
	deadline := time.After(2 * time.Second)
	for {
		blocked.mu.Lock()
		cancelled := len(blocked.ctxErrs) >= 1
		blocked.mu.Unlock()
		if cancelled {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first job never saw cancellation")
		case <-time.After(10 * time.Millisecond):
		}
	}

	status := orch.Status()
	if !status.Recording || status.JobID != second {
		t.Fatalf("status = %+v, want the superseding job", status)
	}

	close(blocked.block)
	orch.Wait()
}

func TestStopIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocked := &stubCapturer{block: make(chan struct{})}

	orch := recorder.NewOrchestrator("test_cam", cfg.RecordingsDir(), nil, blocked, logging.NewNop())

	if _, err := orch.Start(recorder.StartRequest{Method: recorder.MethodStream, Duration: time.Minute}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !orch.Stop() {
		t.Fatal("first Stop should report an active job")
	}
	orch.Wait()
	if orch.Stop() {
		t.Fatal("second Stop should be a no-op")
	}
	if status := orch.Status(); status.Recording {
		t.Fatalf("status after stop = %+v", status)
	}
}

func TestStartRejectsUnknownMethod(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	orch := recorder.NewOrchestrator("test_cam", cfg.RecordingsDir(), nil, nil, logging.NewNop())

	if _, err := orch.Start(recorder.StartRequest{Method: "webcam", Duration: time.Second}); !errors.Is(err, recorder.ErrNoCapturer) {
		t.Fatalf("err = %v, want ErrNoCapturer", err)
	}
	if _, err := orch.Start(recorder.StartRequest{Method: recorder.MethodSnapshots, Duration: time.Second}); !errors.Is(err, recorder.ErrNoCapturer) {
		t.Fatalf("err = %v, want ErrNoCapturer for the unwired method", err)
	}
}
