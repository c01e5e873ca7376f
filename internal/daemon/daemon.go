package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"camclip/internal/config"
	"camclip/internal/diagnose"
	"camclip/internal/logging"
	"camclip/internal/notifications"
	"camclip/internal/recorder"
	"camclip/internal/store"
)

// Daemon owns the long-running process and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *store.Store
	orchestrator *recorder.Orchestrator
	deliverer    recorder.Deliverer
	streamSource diagnose.URLBuilder
	prober       diagnose.Prober
	notifier     notifications.Service

	lockPath string
	lock     *flock.Flock

	api     *apiServer
	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Camera       string
	LedgerDBPath string
	LockFilePath string
	Job          recorder.Status
	Stats        store.Stats
}

// Options carries the daemon's collaborators.
type Options struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        *store.Store
	Orchestrator *recorder.Orchestrator
	Deliverer    recorder.Deliverer
	StreamSource diagnose.URLBuilder
	Prober       diagnose.Prober
	Notifier     notifications.Service
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Store == nil || opts.Orchestrator == nil {
		return nil, errors.New("daemon requires config, store, and orchestrator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewServiceDisabled()
	}

	lockPath := filepath.Join(opts.Config.Paths.LogDir, "camclipd.lock")
	return &Daemon{
		cfg:          opts.Config,
		logger:       logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:        opts.Store,
		orchestrator: opts.Orchestrator,
		deliverer:    opts.Deliverer,
		streamSource: opts.StreamSource,
		prober:       opts.Prober,
		notifier:     notifier,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another camclip daemon instance is already running")
	}

	daemonCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("build api server: %w", err)
	}
	d.api = server
	if err := d.api.start(daemonCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("camclip daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels any active job, shuts down the API, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.orchestrator.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("camclip daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, or empty before Start.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Camera:       d.cfg.Camera.Name,
		LedgerDBPath: d.store.Path(),
		LockFilePath: d.lockPath,
		Job:          d.orchestrator.Status(),
	}
	if stats, err := d.store.Summary(ctx); err == nil {
		status.Stats = stats
	}
	return status
}

// DiagnosePaths probes the RTSP catalog against the configured camera.
func (d *Daemon) DiagnosePaths(ctx context.Context) ([]diagnose.PathResult, error) {
	if d.streamSource == nil || d.prober == nil {
		return nil, errors.New("rtsp diagnostics unavailable")
	}
	return diagnose.RTSP(ctx, d.streamSource, d.prober, d.logger)
}
