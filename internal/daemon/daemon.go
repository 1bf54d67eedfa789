// Package daemon runs a compilation task repeatedly in the background.
package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/zerr"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/unit"
)

var (
	// ErrAlreadyRunning is returned when starting a daemon that is running.
	ErrAlreadyRunning = zerr.New("compilation daemon is already running")

	// ErrInvalidInterval is returned for non-positive intervals.
	ErrInvalidInterval = zerr.New("daemon interval must be positive")
)

// Executor runs one compilation pass and returns the units it compiled.
type Executor interface {
	Execute() ([]*unit.Unit, error)
}

// Listener is notified after a pass that compiled at least one unit.
type Listener interface {
	NotifyCompiled(units []*unit.Unit)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(units []*unit.Unit)

func (f ListenerFunc) NotifyCompiled(units []*unit.Unit) {
	f(units)
}

// Daemon repeats an Executor at a fixed interval until stopped. At most one
// worker runs per Daemon.
type Daemon struct {
	executor Executor
	listener Listener
	logger   *zap.Logger

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// New returns a stopped daemon running executor. listener may be nil.
func New(executor Executor, listener Listener, logger *zap.Logger) *Daemon {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Daemon{
		executor: executor,
		listener: listener,
		logger:   logger.With(zap.String("service", "daemon")),
	}
}

// Start launches the worker. It fails without side effects if a worker is
// already running.
func (d *Daemon) Start(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	d.mu.Lock()
	d.cancel = cancel
	d.done = done
	d.err = nil
	d.mu.Unlock()

	d.logger.Info("Starting compilation daemon", zap.Duration("interval", interval))

	go d.run(ctx, interval, done)

	return nil
}

// Stop asks the worker to exit. A pass in progress runs to completion.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}
}

// Wait blocks until the most recently started worker has exited.
func (d *Daemon) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Err returns the error that ended the most recent worker, or nil when it
// was stopped or is still running.
func (d *Daemon) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.err
}

// Running reports whether a worker is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

func (d *Daemon) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	defer d.running.Store(false)

	for {
		if ctx.Err() != nil {
			d.logger.Info("Terminating compilation daemon")
			return
		}

		if err := d.pass(); err != nil {
			d.mu.Lock()
			d.err = err
			d.mu.Unlock()

			d.logger.Info("Terminating compilation daemon")
			return
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			d.logger.Info("Terminating compilation daemon")
			return
		}
	}
}

// pass executes once. A non-nil result ends the worker; compile failures are
// logged and do not.
func (d *Daemon) pass() error {
	units, err := d.executor.Execute()
	if len(units) > 0 && d.listener != nil {
		d.listener.NotifyCompiled(units)
	}

	if err == nil {
		return nil
	}

	errs := multierr.Errors(err)
	for _, e := range errs {
		if !compiler.IsCompileError(e) {
			d.logger.Error("Compilation daemon failed", zap.Error(err))
			return err
		}
	}

	for _, e := range errs {
		d.logger.Warn("Compilation failed", zap.Error(e))
	}

	return nil
}
