package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"redub/internal/config"
	"redub/internal/editor"
	"redub/internal/logging"
	"redub/internal/preflight"
	"redub/internal/queue"
	"redub/internal/session"
)

// Daemon coordinates the editing engine and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	engine *session.Engine

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	QueueDBPath  string
	LockFilePath string
	Queue        queue.HealthSummary
	Checks       []preflight.Result
	Session      editor.State
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, engine *session.Engine, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || engine == nil {
		return nil, errors.New("daemon requires config, store, and session engine")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "redubd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		engine:   engine,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, launches the HTTP API, and begins the
// periodic throughput refresh.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another redub daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.wg.Add(1)
	go d.refreshStatsLoop(d.ctx)

	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "redub*.log*",
		Exclude: []string{filepath.Join(d.cfg.Paths.LogDir, "redub.log")},
	})

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// refreshStatsLoop keeps the progress estimator fed with current throughput
// ratios. The first refresh is immediate so estimates work from the start.
func (d *Daemon) refreshStatsLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Speech.StatsRefreshInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := d.engine.RefreshStats(ctx); err != nil {
			d.logger.Warn("throughput refresh failed", logging.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop halts background work, fails any in-flight render entries, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()

	if count, err := d.store.FailRendering(context.Background(), queue.DaemonStopReason); err != nil {
		d.logger.Warn("failed to close in-flight entries", logging.Error(err))
	} else if count > 0 {
		d.logger.Info("closed in-flight entries", logging.Int64("count", count))
	}

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases all resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	d.engine.Close()
	return d.store.Close()
}

// Engine returns the session engine hosted by the daemon.
func (d *Daemon) Engine() *session.Engine {
	return d.engine
}

// APIAddr returns the HTTP API listen address, empty when the API is
// disabled or not yet started.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// ListQueue returns render entries filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Job, error) {
	return d.store.List(ctx, statuses...)
}

// GetQueueJob returns one render entry by id, nil when missing.
func (d *Daemon) GetQueueJob(ctx context.Context, id int64) (*queue.Job, error) {
	return d.store.GetByID(ctx, id)
}

// ClearQueue removes all render entries.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearFinished removes only terminal render entries.
func (d *Daemon) ClearFinished(ctx context.Context) (int64, error) {
	return d.store.ClearFinished(ctx)
}

// Status returns the current daemon status, including preflight checks over
// directories and the speech service.
func (d *Daemon) Status(ctx context.Context) Status {
	health, err := d.store.Health(ctx)
	if err != nil {
		d.logger.Warn("queue health check failed", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Queue:        health,
		Checks:       preflight.RunAll(ctx, d.cfg),
		Session:      d.engine.Snapshot(),
	}
}
