package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"camclip/internal/delivery"
	"camclip/internal/fileutil"
	"camclip/internal/logging"
	"camclip/internal/notifications"
	"camclip/internal/store"
)

// ErrNoCapturer means the requested method has no recorder wired.
var ErrNoCapturer = errors.New("no capturer for requested method")

// Capturer produces one artifact. Assembler and StreamRecorder satisfy it.
type Capturer interface {
	Record(ctx context.Context, duration time.Duration, outputPath string) (Result, error)
}

// Deliverer pushes a finished artifact. *delivery.Engine satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, art delivery.Artifact) (delivery.Outcome, error)
}

// StartRequest describes one capture job.
type StartRequest struct {
	Method   Method
	Duration time.Duration
	Deliver  bool

	// Caption replaces the generated delivery headline when set.
	Caption string
	// Target overrides the delivery destination for this job.
	Target string
}

// Status reports the orchestrator's current job, if any.
type Status struct {
	Recording        bool
	JobID            string
	Method           Method
	RemainingSeconds int
}

// JobOutcome is what a finished job produced.
type JobOutcome struct {
	JobID     string
	Result    Result
	Delivered bool
	Mechanism string
	Attempts  []delivery.Attempt
}

// Orchestrator owns the capture lifecycle for one camera. Starting a new job
// supersedes the previous one: the old job is cancelled and the new one
// begins without waiting for the old teardown.
type Orchestrator struct {
	cameraName    string
	displayName   string
	recordingsDir string
	snapshots     Capturer
	stream        Capturer
	deliverer     Deliverer
	ledger        *store.Store
	notifier      notifications.Service
	logger        *slog.Logger

	mu      sync.Mutex
	current *job
}

type job struct {
	id       string
	method   Method
	cancel   context.CancelFunc
	deadline time.Time
	done     chan struct{}
}

// OrchestratorOption adjusts construction.
type OrchestratorOption func(*Orchestrator)

// WithLedger persists jobs and delivery attempts to the store.
func WithLedger(st *store.Store) OrchestratorOption {
	return func(o *Orchestrator) { o.ledger = st }
}

// WithNotifier publishes job events.
func WithNotifier(svc notifications.Service) OrchestratorOption {
	return func(o *Orchestrator) { o.notifier = svc }
}

// WithDisplayName sets the human-readable camera name used in captions and
// notifications. Defaults to the raw camera name.
func WithDisplayName(name string) OrchestratorOption {
	return func(o *Orchestrator) { o.displayName = name }
}

// WithDeliverer wires the delivery engine.
func WithDeliverer(d Deliverer) OrchestratorOption {
	return func(o *Orchestrator) { o.deliverer = d }
}

// NewOrchestrator builds the per-camera job owner.
func NewOrchestrator(cameraName, recordingsDir string, snapshots, stream Capturer, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		cameraName:    cameraName,
		recordingsDir: recordingsDir,
		snapshots:     snapshots,
		stream:        stream,
		notifier:      notifications.NewServiceDisabled(),
		logger:        logger.With(logging.String(logging.FieldComponent, "orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.displayName == "" {
		o.displayName = cameraName
	}
	return o
}

// Start begins a capture job and returns its id immediately. The job runs in
// the background; a safety timer cancels it if the capturer overruns the
// requested duration.
func (o *Orchestrator) Start(req StartRequest) (string, error) {
	capturer, err := o.capturerFor(req.Method)
	if err != nil {
		return "", err
	}
	if req.Duration <= 0 {
		return "", errors.New("duration must be positive")
	}

	jobID := uuid.New().String()
	// Capture overruns get the duration again as grace before the hard stop.
	jobCtx, cancel := context.WithTimeout(context.Background(), 2*req.Duration+30*time.Second)
	jobCtx = logging.WithJobID(logging.WithCamera(jobCtx, o.cameraName), jobID)
	newJob := &job{
		id:       jobID,
		method:   req.Method,
		cancel:   cancel,
		deadline: time.Now().Add(req.Duration),
		done:     make(chan struct{}),
	}

	o.mu.Lock()
	prior := o.current
	o.current = newJob
	o.mu.Unlock()

	if prior != nil {
		prior.cancel()
		o.logger.Info("superseding active job",
			logging.String(logging.FieldJobID, prior.id))
	}

	if o.ledger != nil {
		if err := o.ledger.CreateJob(jobCtx, jobID, o.cameraName, string(req.Method)); err != nil {
			o.logger.Warn("ledger insert failed", logging.Error(err))
		}
	}
	_ = o.notifier.NotifyRecordingStarted(jobCtx, o.displayName, string(req.Method), req.Duration)

	go o.run(jobCtx, newJob, capturer, req)
	return jobID, nil
}

// Run executes a capture job synchronously and returns the full outcome.
// The CLI uses this; the daemon API uses Start.
func (o *Orchestrator) Run(ctx context.Context, req StartRequest) (JobOutcome, error) {
	capturer, err := o.capturerFor(req.Method)
	if err != nil {
		return JobOutcome{}, err
	}
	if req.Duration <= 0 {
		return JobOutcome{}, errors.New("duration must be positive")
	}

	jobID := uuid.New().String()
	ctx = logging.WithJobID(logging.WithCamera(ctx, o.cameraName), jobID)
	if o.ledger != nil {
		if err := o.ledger.CreateJob(ctx, jobID, o.cameraName, string(req.Method)); err != nil {
			o.logger.Warn("ledger insert failed", logging.Error(err))
		}
	}
	_ = o.notifier.NotifyRecordingStarted(ctx, o.displayName, string(req.Method), req.Duration)
	return o.execute(ctx, jobID, capturer, req)
}

// Stop cancels the active job. It reports whether a job was running and is
// safe to call repeatedly.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	active := o.current
	o.mu.Unlock()

	if active == nil {
		return false
	}
	active.cancel()
	o.logger.Info("job stopped", logging.String(logging.FieldJobID, active.id))
	return true
}

// Status reports the current job.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil {
		return Status{}
	}
	remaining := int(time.Until(o.current.deadline).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Recording:        true,
		JobID:            o.current.id,
		Method:           o.current.method,
		RemainingSeconds: remaining,
	}
}

// Wait blocks until the active job finishes. Mostly useful in tests.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	active := o.current
	o.mu.Unlock()
	if active != nil {
		<-active.done
	}
}

func (o *Orchestrator) run(ctx context.Context, j *job, capturer Capturer, req StartRequest) {
	defer close(j.done)
	defer j.cancel()
	defer func() {
		o.mu.Lock()
		if o.current == j {
			o.current = nil
		}
		o.mu.Unlock()
	}()

	if _, err := o.execute(ctx, j.id, capturer, req); err != nil {
		logging.WithContext(ctx, o.logger).Error("job failed", logging.Error(err))
	}
}

func (o *Orchestrator) execute(ctx context.Context, jobID string, capturer Capturer, req StartRequest) (JobOutcome, error) {
	outcome := JobOutcome{JobID: jobID}
	startedAt := time.Now()
	outputPath := filepath.Join(o.recordingsDir, fileutil.ArtifactName(o.cameraName, startedAt, req.Duration))

	result, err := capturer.Record(ctx, req.Duration, outputPath)
	outcome.Result = result
	o.saveResult(jobID, result)

	if err != nil {
		_ = o.notifier.NotifyError(context.WithoutCancel(ctx), err, "recording")
		return outcome, fmt.Errorf("capture: %w", err)
	}
	_ = o.notifier.NotifyRecordingCompleted(ctx, o.displayName, result.FileName, result.SizeBytes)

	if !req.Deliver || o.deliverer == nil {
		return outcome, nil
	}

	art := delivery.Artifact{
		Path:            result.FilePath,
		FileName:        result.FileName,
		SizeBytes:       result.SizeBytes,
		Camera:          o.displayName,
		CapturedAt:      startedAt,
		DurationSeconds: result.DurationSeconds,
		Caption:         req.Caption,
		Target:          req.Target,
	}
	// Delivery keeps going even if the job context was cancelled to stop
	// the capture early; the artifact on disk is still worth sending.
	deliveryCtx := context.WithoutCancel(ctx)
	deliveryOutcome, deliverErr := o.deliverer.Deliver(deliveryCtx, art)
	outcome.Delivered = deliveryOutcome.Delivered
	outcome.Mechanism = deliveryOutcome.Mechanism
	outcome.Attempts = deliveryOutcome.Attempts
	o.saveAttempts(jobID, deliveryOutcome)

	if deliverErr != nil {
		_ = o.notifier.NotifyDeliveryFailed(deliveryCtx, o.displayName, result.FileName, len(deliveryOutcome.Attempts))
		return outcome, fmt.Errorf("deliver: %w", deliverErr)
	}
	_ = o.notifier.NotifyDeliveryCompleted(deliveryCtx, o.displayName, result.FileName, deliveryOutcome.Mechanism)
	return outcome, nil
}

func (o *Orchestrator) saveResult(jobID string, result Result) {
	if o.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := o.ledger.SaveResult(ctx, jobID, store.Recording{
		Method:          string(result.Method),
		FileName:        result.FileName,
		FilePath:        result.FilePath,
		SizeBytes:       result.SizeBytes,
		DurationSeconds: result.DurationSeconds,
		Frames:          result.Frames,
		Transport:       string(result.Transport),
		Audio:           result.Audio,
		Success:         result.Success,
		Error:           result.Error,
	})
	if err != nil {
		o.logger.Warn("ledger update failed", logging.Error(err))
	}
}

func (o *Orchestrator) saveAttempts(jobID string, outcome delivery.Outcome) {
	if o.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, att := range outcome.Attempts {
		err := o.ledger.RecordAttempt(ctx, store.Attempt{
			JobID:     jobID,
			Mechanism: att.Mechanism,
			Attempt:   att.Index,
			Success:   att.Success,
			Elapsed:   att.Elapsed,
			Error:     att.Error,
		})
		if err != nil {
			o.logger.Warn("attempt insert failed", logging.Error(err))
		}
	}
	if outcome.Delivered {
		if err := o.ledger.MarkDelivered(ctx, jobID, true); err != nil {
			o.logger.Warn("mark delivered failed", logging.Error(err))
		}
	}
}

func (o *Orchestrator) capturerFor(method Method) (Capturer, error) {
	switch method {
	case MethodSnapshots:
		if o.snapshots != nil {
			return o.snapshots, nil
		}
	case MethodStream:
		if o.stream != nil {
			return o.stream, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoCapturer, method)
	}
	return nil, fmt.Errorf("%w: %q", ErrNoCapturer, method)
}
