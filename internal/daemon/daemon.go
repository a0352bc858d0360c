package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gofrs/flock"

	"teko/internal/collection"
	"teko/internal/config"
	"teko/internal/logging"
	"teko/internal/pipeline"
)

// ErrAlreadyRunning is returned when another daemon holds the lock.
var ErrAlreadyRunning = errors.New("another teko daemon instance is already running")

// Daemon coordinates the API server and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *collection.Store
	registry *pipeline.Registry
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool   `json:"running"`
	APIAddress   string `json:"apiAddress,omitempty"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	OpenRuns     int    `json:"openRuns"`
}

// New constructs a daemon serving handler on the configured bind address.
func New(cfg *config.Config, store *collection.Store, registry *pipeline.Registry, handler http.Handler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || registry == nil || handler == nil {
		return nil, errors.New("daemon requires config, store, registry, and handler")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		registry: registry,
		api:      newAPIServer(cfg.Paths.APIBind, handler, logger),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("teko daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.addr()),
	)
	return nil
}

// Stop dismisses open runs, stops the API server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.api.stop()
	d.registry.DismissAll()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("teko daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the listening address, or "" when stopped.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		APIAddress:   d.api.addr(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		OpenRuns:     d.registry.Len(),
	}
}
