// Package task compiles a set of units, skipping those whose destination is
// up to date.
package task

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Norgate-AV/lessbuild/internal/cache"
	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/daemon"
	"github.com/Norgate-AV/lessbuild/internal/resource"
	"github.com/Norgate-AV/lessbuild/internal/unit"
	"github.com/Norgate-AV/lessbuild/internal/utils"
)

// Task owns a set of compilation units, the engine that compiles them and
// the cache that remembers their imports between runs.
type Task struct {
	engine      compiler.Engine
	cache       *cache.Cache
	logger      *zap.Logger
	listener    daemon.Listener
	parallelism int
	now         func() time.Time

	mu    sync.RWMutex
	units []*unit.Unit

	daemon *daemon.Daemon
}

// New returns a task compiling with engine and remembering imports in c.
func New(engine compiler.Engine, c *cache.Cache, opts ...Option) *Task {
	t := &Task{
		engine:      engine,
		cache:       c,
		logger:      zap.NewNop(),
		parallelism: 1,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	t.daemon = daemon.New(t, t.listener, t.logger)

	return t
}

// Add registers units. A unit equal to one already registered is ignored.
func (t *Task) Add(units ...*unit.Unit) {
	t.mu.Lock()
	defer t.mu.Unlock()

outer:
	for _, u := range units {
		for _, existing := range t.units {
			if existing.Equals(u) {
				continue outer
			}
		}

		t.units = append(t.units, u)
	}
}

// Units returns the registered units.
func (t *Task) Units() []*unit.Unit {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return append([]*unit.Unit(nil), t.units...)
}

// Execute compiles every dirty unit and returns those that compiled. Unlike
// a pass that aborts on the first failure, a failing unit does not stop the
// others; all failures are returned combined, each as a *UnitError.
func (t *Task) Execute() ([]*unit.Unit, error) {
	var (
		mu       sync.Mutex
		compiled []*unit.Unit
		errs     error
	)

	g := new(errgroup.Group)
	g.SetLimit(t.parallelism)

	for _, u := range t.Units() {
		g.Go(func() error {
			ok, err := t.compileIfDirty(u)

			mu.Lock()
			defer mu.Unlock()

			if ok {
				compiled = append(compiled, u)
			}

			errs = multierr.Append(errs, err)

			return nil
		})
	}

	_ = g.Wait()

	return compiled, errs
}

func (t *Task) compileIfDirty(u *unit.Unit) (bool, error) {
	dirty, err := t.refresh(u)
	if err != nil {
		return false, &UnitError{Unit: u, Err: err}
	}

	if !dirty {
		t.logger.Debug("Unit is up to date", zap.Stringer("unit", u))
		return false, nil
	}

	if err := t.compile(u); err != nil {
		return false, &UnitError{Unit: u, Err: err}
	}

	return true, nil
}

// refresh brings u's imports and failure time up to date and reports
// whether it needs compiling. Imports come from the cache when it holds an
// equivalent unit, and from a dependency-only compilation otherwise.
func (t *Task) refresh(u *unit.Unit) (bool, error) {
	if u.IsDirty() {
		return true, nil
	}

	cached := t.cache.Load(u)
	if cached != nil && cached.IsEquivalent(u) {
		u.Adopt(cached)
	} else if err := t.resolveImports(u); err != nil {
		return false, err
	}

	return u.IsDirty(), nil
}

func (t *Task) resolveImports(u *unit.Unit) error {
	source, err := t.readSource(u)
	if err != nil {
		return err
	}

	tracker := resource.NewTracking(u.Resolver())
	result, err := t.engine.Compile(source, u.Options().WithDependenciesOnly(), tracker)
	if err != nil {
		t.recordFailure(u, err)
		return err
	}

	u.SetImports(trackedImports(tracker, result))
	t.cache.Store(u)

	t.logger.Debug("Resolved imports", zap.Stringer("unit", u), zap.Strings("imports", u.Imports()))

	return nil
}

func (t *Task) compile(u *unit.Unit) error {
	start := t.now()

	source, err := t.readSource(u)
	if err != nil {
		return err
	}

	tracker := resource.NewTracking(u.Resolver())
	result, err := t.engine.Compile(source, u.Options(), tracker)
	if err != nil {
		t.recordFailure(u, err)
		return err
	}

	data, err := resource.Encode(result.Output, u.Encoding())
	if err != nil {
		return errors.Join(ErrDestinationWrite, err)
	}

	if err := utils.WriteFileAtomic(u.Destination(), data, 0o644); err != nil {
		return errors.Join(ErrDestinationWrite, err)
	}

	u.Succeeded(trackedImports(tracker, result))
	t.cache.Store(u)

	t.logger.Info("Compiled unit",
		zap.Stringer("unit", u),
		zap.Duration("duration", t.now().Sub(start)),
	)

	return nil
}

func (t *Task) readSource(u *unit.Unit) (string, error) {
	source, err := u.Resolver().Read(u.SourceLocation())
	if err != nil {
		return "", errors.Join(ErrSourceUnreadable, err)
	}

	return source, nil
}

// recordFailure stamps compile failures on u and persists them. Other errors
// leave the unit untouched.
func (t *Task) recordFailure(u *unit.Unit, err error) {
	if !compiler.IsCompileError(err) {
		return
	}

	u.RecordFailure(t.now().UnixMilli())
	t.cache.Store(u)
}

func trackedImports(tracker *resource.Tracking, result *compiler.Result) []string {
	if imports := tracker.Imports(); len(imports) > 0 || result == nil {
		return imports
	}

	return result.Imports
}

// StartDaemon starts recompiling in the background every interval. It fails
// if the daemon is already running.
func (t *Task) StartDaemon(interval time.Duration) error {
	return t.daemon.Start(interval)
}

// StopDaemon asks the daemon to exit after its current pass.
func (t *Task) StopDaemon() {
	t.daemon.Stop()
}

// WaitDaemon blocks until the daemon has exited.
func (t *Task) WaitDaemon() {
	t.daemon.Wait()
}

// DaemonErr returns the error that stopped the daemon on its own, or nil.
func (t *Task) DaemonErr() error {
	return t.daemon.Err()
}

// DaemonRunning reports whether the daemon is active.
func (t *Task) DaemonRunning() bool {
	return t.daemon.Running()
}
