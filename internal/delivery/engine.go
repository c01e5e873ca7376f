package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"camclip/internal/logging"
)

// Mechanism names used in attempt records and notifications.
const (
	MechanismTelegramAPI     = "telegram_api"
	MechanismNtfyUpload      = "ntfy_upload"
	MechanismTelegramMessage = "telegram_message"
)

// Artifact describes one recording handed to the engine.
type Artifact struct {
	Path            string
	FileName        string
	SizeBytes       int64
	Camera          string
	CapturedAt      time.Time
	DurationSeconds int

	// Caption replaces the generated headline when set. The timestamp and
	// size lines are appended either way.
	Caption string
	// Target overrides the destination chat for this artifact. Empty means
	// the sender's configured default.
	Target string
}

// Attempt records one delivery try. Index is the global sequence number
// across all mechanisms for this artifact.
type Attempt struct {
	Mechanism string
	Index     int
	Success   bool
	Elapsed   time.Duration
	Error     string
}

// Outcome summarizes a delivery run.
type Outcome struct {
	Delivered bool
	Mechanism string
	Attempts  []Attempt
}

// VideoSender is the primary upload mechanism. *Telegram satisfies it.
// An empty target means the sender's configured destination.
type VideoSender interface {
	SendVideo(ctx context.Context, path, caption, target string) error
}

// DocumentSender uploads an arbitrary small file. *Telegram satisfies it.
type DocumentSender interface {
	SendDocument(ctx context.Context, path, caption, target string) error
}

// Hook is a fallback mechanism tried once after the primary is exhausted.
type Hook struct {
	Name string
	Send func(ctx context.Context, art Artifact) error
}

// Options tune retry and timeout behavior. Zero values take the defaults
// matching config.Default.
type Options struct {
	MaxRetries    int
	SizeLimitMB   int
	TimeoutScale  int
	MinTimeout    time.Duration
	MaxTimeout    time.Duration
	RetryBackoff  time.Duration
	CaptionPrefix string
}

func (o *Options) fillDefaults() {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.SizeLimitMB <= 0 {
		o.SizeLimitMB = 50
	}
	if o.TimeoutScale <= 0 {
		o.TimeoutScale = 30
	}
	if o.MinTimeout <= 0 {
		o.MinTimeout = 120 * time.Second
	}
	if o.MaxTimeout <= 0 {
		o.MaxTimeout = 600 * time.Second
	}
	if o.MaxTimeout < o.MinTimeout {
		o.MaxTimeout = o.MinTimeout
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 10 * time.Second
	}
}

// Engine drives the mechanism chain for each artifact.
type Engine struct {
	sender VideoSender
	hooks  []Hook
	opts   Options
	logger *slog.Logger
}

// NewEngine builds a delivery engine around the primary sender and an
// ordered fallback chain.
func NewEngine(sender VideoSender, opts Options, logger *slog.Logger, hooks ...Hook) *Engine {
	opts.fillDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		sender: sender,
		hooks:  hooks,
		opts:   opts,
		logger: logger.With(logging.String(logging.FieldComponent, "delivery")),
	}
}

// Deliver pushes one artifact. Oversized files fail immediately with zero
// attempts. The primary mechanism retries with growing timeouts; a size
// rejection from the destination skips the remaining retries and moves
// straight to the fallback chain.
func (e *Engine) Deliver(ctx context.Context, art Artifact) (Outcome, error) {
	outcome := Outcome{}

	if limit := int64(e.opts.SizeLimitMB) * 1024 * 1024; art.SizeBytes > limit {
		err := fmt.Errorf("%w: %d bytes exceeds the %dMB ceiling", ErrTooLarge, art.SizeBytes, e.opts.SizeLimitMB)
		e.logger.Warn("artifact exceeds size ceiling, skipping delivery",
			logging.String(logging.FieldCamera, art.Camera),
			logging.Int64("size_bytes", art.SizeBytes))
		return outcome, err
	}

	caption := e.caption(art)
	index := 0
	var lastErr error

	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		index++
		err := e.tryPrimary(ctx, art, caption, attempt, index, &outcome)
		if err == nil {
			outcome.Delivered = true
			outcome.Mechanism = MechanismTelegramAPI
			return outcome, nil
		}
		lastErr = err
		if errors.Is(err, ErrTooLarge) {
			// Retrying the same upload cannot change the verdict.
			break
		}
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		if attempt < e.opts.MaxRetries {
			if err := sleepContext(ctx, e.opts.RetryBackoff*time.Duration(attempt)); err != nil {
				return outcome, err
			}
		}
	}

	for _, hook := range e.hooks {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		index++
		started := time.Now()
		err := hook.Send(ctx, art)
		record := Attempt{
			Mechanism: hook.Name,
			Index:     index,
			Success:   err == nil,
			Elapsed:   time.Since(started),
		}
		if err != nil {
			record.Error = err.Error()
			lastErr = err
			e.logger.Warn("fallback mechanism failed",
				logging.String(logging.FieldMechanism, hook.Name),
				logging.Error(err))
		}
		outcome.Attempts = append(outcome.Attempts, record)
		if err == nil {
			outcome.Delivered = true
			outcome.Mechanism = hook.Name
			e.logger.Info("artifact delivered by fallback",
				logging.String(logging.FieldMechanism, hook.Name),
				logging.String("file", art.FileName))
			return outcome, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no delivery mechanism configured")
	}
	return outcome, fmt.Errorf("all delivery mechanisms failed: %w", lastErr)
}

// MechanismStatus reports whether one mechanism of the chain is ready.
type MechanismStatus struct {
	Mechanism  string
	Configured bool
}

// Diagnose lists the mechanism chain in delivery order and whether each
// entry is wired. It makes no network calls.
func (e *Engine) Diagnose() []MechanismStatus {
	statuses := []MechanismStatus{
		{Mechanism: MechanismTelegramAPI, Configured: e.sender != nil},
	}
	for _, hook := range e.hooks {
		statuses = append(statuses, MechanismStatus{
			Mechanism:  hook.Name,
			Configured: hook.Send != nil,
		})
	}
	return statuses
}

// Test uploads a small generated text file end to end so an operator can
// verify credentials without recording anything. The file is removed
// afterwards. An empty target uses the sender's configured destination.
func (e *Engine) Test(ctx context.Context, target string) error {
	sender, ok := e.sender.(DocumentSender)
	if !ok {
		return errors.New("primary sender does not support test uploads")
	}

	dir, err := os.MkdirTemp("", "delivery-test-")
	if err != nil {
		return fmt.Errorf("create test dir: %w", err)
	}
	defer os.RemoveAll(dir)

	now := time.Now()
	path := filepath.Join(dir, "test_"+now.Format("20060102_150405")+".txt")
	content := fmt.Sprintf("Delivery test\nTimestamp: %s\nThis file verifies that uploads reach their destination.\n",
		now.Format("2006-01-02 15:04:05"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write test file: %w", err)
	}

	timeout := e.timeoutFor(int64(len(content)), 1)
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sender.SendDocument(sendCtx, path, "Delivery test", target); err != nil {
		return fmt.Errorf("test upload: %w", err)
	}
	e.logger.Info("test upload delivered",
		logging.String(logging.FieldMechanism, MechanismTelegramAPI))
	return nil
}

func (e *Engine) tryPrimary(ctx context.Context, art Artifact, caption string, attempt, index int, outcome *Outcome) error {
	timeout := e.timeoutFor(art.SizeBytes, attempt)
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	err := e.sender.SendVideo(attemptCtx, art.Path, caption, art.Target)
	record := Attempt{
		Mechanism: MechanismTelegramAPI,
		Index:     index,
		Success:   err == nil,
		Elapsed:   time.Since(started),
	}
	if err != nil {
		record.Error = err.Error()
		e.logger.Warn("upload attempt failed",
			logging.String(logging.FieldMechanism, MechanismTelegramAPI),
			logging.Int("attempt", attempt),
			logging.Duration("timeout", timeout),
			logging.Error(err))
	} else {
		e.logger.Info("artifact delivered",
			logging.String(logging.FieldMechanism, MechanismTelegramAPI),
			logging.Int("attempt", attempt),
			logging.String("file", art.FileName))
	}
	outcome.Attempts = append(outcome.Attempts, record)
	return err
}

// timeoutFor scales the upload deadline with file size, clamps it to the
// configured window, then multiplies by the attempt number so each retry
// gets more room than the last.
func (e *Engine) timeoutFor(sizeBytes int64, attempt int) time.Duration {
	sizeMB := float64(sizeBytes) / (1024 * 1024)
	base := time.Duration(sizeMB*float64(e.opts.TimeoutScale)) * time.Second
	if base < e.opts.MinTimeout {
		base = e.opts.MinTimeout
	}
	if base > e.opts.MaxTimeout {
		base = e.opts.MaxTimeout
	}
	return base * time.Duration(attempt)
}

func (e *Engine) caption(art Artifact) string {
	headline := art.Caption
	if headline == "" {
		prefix := e.opts.CaptionPrefix
		if prefix == "" {
			prefix = "Recording"
		}
		headline = fmt.Sprintf("%s from %s", prefix, art.Camera)
	}
	caption := fmt.Sprintf("%s\n%s\nDuration: %ds, Size: %.1f MB",
		headline,
		art.CapturedAt.Format("2006-01-02 15:04:05"),
		art.DurationSeconds,
		float64(art.SizeBytes)/(1024*1024))
	runes := []rune(caption)
	if len(runes) > 1024 {
		caption = string(runes[:1024])
	}
	return caption
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
