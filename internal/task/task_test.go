package task

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Norgate-AV/lessbuild/internal/cache"
	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/compiler/mocks"
	"github.com/Norgate-AV/lessbuild/internal/daemon"
	"github.com/Norgate-AV/lessbuild/internal/resource"
	"github.com/Norgate-AV/lessbuild/internal/unit"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type workspace struct {
	dir      string
	out      string
	resolver *resource.FileSystem
	store    cache.Store
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()

	dir := t.TempDir()
	resolver, err := resource.NewFileSystem("", dir)
	require.NoError(t, err)

	store, err := cache.NewFileStore(t.TempDir())
	require.NoError(t, err)

	return &workspace{
		dir:      dir,
		out:      t.TempDir(),
		resolver: resolver,
		store:    store,
	}
}

func (w *workspace) write(t *testing.T, name, content string, mtime time.Time) {
	t.Helper()

	path := filepath.Join(w.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func (w *workspace) unit(t *testing.T, source, destination string) *unit.Unit {
	t.Helper()

	u, err := unit.New(source, filepath.Join(w.out, destination), compiler.DefaultOptions(), w.resolver, "")
	require.NoError(t, err)

	return u
}

func (w *workspace) task(engine compiler.Engine, opts ...Option) *Task {
	return New(engine, cache.New(w.store, "", nil), opts...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestExecute_CompilesMissingDestination(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"b.less\";\n.a { color: red; }", epoch)
	w.write(t, "b.less", ".b { color: blue; }", epoch)

	core, logs := observer.New(zap.InfoLevel)
	engine := &importEngine{}
	u := w.unit(t, "a.less", "a.css")

	task := w.task(engine, WithLogger(zap.New(core)))
	task.Add(u)

	compiled, err := task.Execute()
	require.NoError(t, err)

	assert.Equal(t, []*unit.Unit{u}, compiled)
	assert.Equal(t, ".b { color: blue; }\n.a { color: red; }\n", readFile(t, u.Destination()))
	assert.Equal(t, []string{"b.less"}, u.Imports())
	assert.Zero(t, u.LastFailure())

	// A missing destination compiles straight away without resolving imports first.
	assert.Equal(t, 1, len(engine.Calls()))
	assert.Equal(t, 1, engine.FullCompiles())

	entries := logs.FilterMessage("Compiled unit").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "compilation", entries[0].ContextMap()["service"])
}

func TestExecute_Idempotent(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"b.less\";\n.a {}", epoch)
	w.write(t, "b.less", ".b {}", epoch)

	engine := &importEngine{}
	task := w.task(engine)
	task.Add(w.unit(t, "a.less", "a.css"))

	compiled, err := task.Execute()
	require.NoError(t, err)
	require.Len(t, compiled, 1)

	calls := len(engine.Calls())

	compiled, err = task.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
	assert.Equal(t, calls, len(engine.Calls()))
}

func TestExecute_ImportChangeRecompiles(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"b.less\";\n.a {}", epoch)
	w.write(t, "b.less", ".b {}", epoch)

	engine := &importEngine{}
	u := w.unit(t, "a.less", "a.css")
	task := w.task(engine)
	task.Add(u)

	_, err := task.Execute()
	require.NoError(t, err)

	w.write(t, "b.less", ".b { margin: 0; }", time.Now().Add(time.Hour))

	compiled, err := task.Execute()
	require.NoError(t, err)
	assert.Equal(t, []*unit.Unit{u}, compiled)
	assert.Contains(t, readFile(t, u.Destination()), ".b { margin: 0; }")
}

func TestExecute_UnrelatedChangeDoesNotRecompile(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"b.less\";\n.a {}", epoch)
	w.write(t, "b.less", ".b {}", epoch)
	w.write(t, "c.less", ".c {}", epoch)

	engine := &importEngine{}
	task := w.task(engine)
	task.Add(w.unit(t, "a.less", "a.css"))

	_, err := task.Execute()
	require.NoError(t, err)

	w.write(t, "c.less", ".c { margin: 0; }", time.Now().Add(time.Hour))

	compiled, err := task.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
}

func TestExecute_FreshProcessUsesCache(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"b.less\";\n.a {}", epoch)
	w.write(t, "b.less", ".b {}", epoch)

	first := w.task(&importEngine{})
	first.Add(w.unit(t, "a.less", "a.css"))

	_, err := first.Execute()
	require.NoError(t, err)

	// A new task with a new unit sees the imports persisted by the first one.
	engine := &importEngine{}
	u := w.unit(t, "a.less", "a.css")
	second := w.task(engine)
	second.Add(u)

	compiled, err := second.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
	assert.Empty(t, engine.Calls())
	assert.Equal(t, []string{"b.less"}, u.Imports())

	w.write(t, "b.less", ".b { padding: 0; }", time.Now().Add(time.Hour))

	compiled, err = second.Execute()
	require.NoError(t, err)
	assert.Equal(t, []*unit.Unit{u}, compiled)
	assert.Equal(t, 1, engine.FullCompiles())
}

func TestExecute_ResolvesImportsOnceWithoutCache(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"b.less\";\n.a {}", epoch)
	w.write(t, "b.less", ".b {}", epoch)

	u := w.unit(t, "a.less", "a.css")
	require.NoError(t, os.WriteFile(u.Destination(), []byte(".a {}\n"), 0o644))

	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().
		Compile("@import \"b.less\";\n.a {}", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ string, opts compiler.Options, r resource.Resolver) (*compiler.Result, error) {
			assert.True(t, opts.DependenciesOnly)

			_, err := r.Read("b.less")
			require.NoError(t, err)

			return &compiler.Result{}, nil
		}).
		Times(1)

	task := w.task(engine)
	task.Add(u)

	compiled, err := task.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
	assert.Equal(t, []string{"b.less"}, u.Imports())

	// The second pass reuses the cached imports.
	compiled, err = task.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
}

func TestExecute_CacheMissResolvesImports(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", "@import \"c.less\";\n.a {}", epoch)
	w.write(t, "c.less", ".c {}", epoch)

	u := w.unit(t, "a.less", "a.css")
	require.NoError(t, os.WriteFile(u.Destination(), []byte(".a {}\n"), 0o644))

	// An entry for a different destination does not apply to u.
	other := w.unit(t, "a.less", "other.css")
	other.SetImports([]string{"b.less"})
	c := cache.New(w.store, "", nil)
	c.Store(other)

	engine := &importEngine{}
	task := New(engine, c)
	task.Add(u)

	compiled, err := task.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
	assert.Equal(t, []string{"c.less"}, u.Imports())

	calls := engine.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].DependenciesOnly)

	cached := c.Load(u)
	require.NotNil(t, cached)
	assert.Equal(t, []string{"c.less"}, cached.Imports())
}

func TestExecute_FailureIsMemoized(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", ".a {\n!error", epoch)

	failedAt := epoch.Add(time.Hour)
	engine := &importEngine{}
	u := w.unit(t, "a.less", "a.css")
	c := cache.New(w.store, "", nil)
	task := New(engine, c, WithClock(fixedClock(failedAt)))
	task.Add(u)

	compiled, err := task.Execute()
	require.Error(t, err)
	assert.Empty(t, compiled)
	assert.True(t, compiler.IsCompileError(err))
	assert.Equal(t, failedAt.UnixMilli(), u.LastFailure())
	assert.NoFileExists(t, u.Destination())

	var unitErr *UnitError
	require.ErrorAs(t, err, &unitErr)
	assert.Same(t, u, unitErr.Unit)

	cached := c.Load(u)
	require.NotNil(t, cached)
	assert.Equal(t, failedAt.UnixMilli(), cached.LastFailure())

	compiled, err = task.Execute()
	require.NoError(t, err)
	assert.Empty(t, compiled)
	assert.Len(t, engine.Calls(), 1)

	// A fresh process has no failure in memory and no destination to compare
	// against, so it compiles again.
	fresh := w.unit(t, "a.less", "a.css")
	next := New(engine, cache.New(w.store, "", nil))
	next.Add(fresh)

	compiled, err = next.Execute()
	require.Error(t, err)
	assert.Empty(t, compiled)
}

func TestExecute_FailureRecoversAfterEdit(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", ".a {}\n!error", epoch)

	clock := epoch.Add(time.Hour)
	engine := &importEngine{}
	u := w.unit(t, "a.less", "a.css")
	task := w.task(engine, WithClock(func() time.Time { return clock }))
	task.Add(u)

	_, err := task.Execute()
	require.Error(t, err)
	require.NotZero(t, u.LastFailure())

	w.write(t, "a.less", ".a {}", clock.Add(time.Minute))

	compiled, err := task.Execute()
	require.NoError(t, err)
	assert.Equal(t, []*unit.Unit{u}, compiled)
	assert.Zero(t, u.LastFailure())
	assert.Equal(t, ".a {}\n", readFile(t, u.Destination()))
}

func TestExecute_ContinuesPastFailures(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "good.less", ".good {}", epoch)
	w.write(t, "bad.less", "!error", epoch)

	good := w.unit(t, "good.less", "good.css")
	bad := w.unit(t, "bad.less", "bad.css")
	missing := w.unit(t, "missing.less", "missing.css")

	task := w.task(&importEngine{}, WithClock(fixedClock(epoch.Add(time.Hour))))
	task.Add(bad, missing, good)

	compiled, err := task.Execute()
	require.Error(t, err)
	assert.Equal(t, []*unit.Unit{good}, compiled)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)

	failed := map[*unit.Unit]error{}
	for _, e := range errs {
		var unitErr *UnitError
		require.ErrorAs(t, e, &unitErr)
		failed[unitErr.Unit] = unitErr.Err
	}

	assert.True(t, compiler.IsCompileError(failed[bad]))
	assert.ErrorIs(t, failed[missing], ErrSourceUnreadable)
	assert.ErrorIs(t, failed[missing], resource.ErrNotFound)

	// Only compile errors are memoized.
	assert.NotZero(t, bad.LastFailure())
	assert.Zero(t, missing.LastFailure())
}

func TestExecute_EncodesOutput(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", ".a { content: \"é\"; }", epoch)

	u, err := unit.New("a.less", filepath.Join(w.out, "a.css"), compiler.DefaultOptions(), w.resolver, "ISO-8859-1")
	require.NoError(t, err)

	task := w.task(&importEngine{})
	task.Add(u)

	_, err = task.Execute()
	require.NoError(t, err)

	data, err := os.ReadFile(u.Destination())
	require.NoError(t, err)
	assert.Equal(t, []byte(".a { content: \"\xe9\"; }\n"), data)
}

func TestExecute_Parallel(t *testing.T) {
	w := newWorkspace(t)

	var units []*unit.Unit
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		w.write(t, name+".less", "."+name+" {}", epoch)
		units = append(units, w.unit(t, name+".less", name+".css"))
	}

	engine := &importEngine{}
	task := w.task(engine, WithParallelism(3))
	task.Add(units...)

	compiled, err := task.Execute()
	require.NoError(t, err)
	assert.ElementsMatch(t, units, compiled)
	assert.Equal(t, len(units), engine.FullCompiles())

	for _, u := range units {
		assert.FileExists(t, u.Destination())
	}
}

func TestAdd_IgnoresEqualUnits(t *testing.T) {
	w := newWorkspace(t)

	a := w.unit(t, "a.less", "a.css")
	same := w.unit(t, "a.less", "a.css")
	b := w.unit(t, "b.less", "b.css")

	withImports := w.unit(t, "a.less", "a.css")
	withImports.SetImports([]string{"x.less"})

	task := w.task(&importEngine{})
	task.Add(a, same, b)
	task.Add(a, withImports)

	assert.Equal(t, []*unit.Unit{a, b, withImports}, task.Units())
}

func TestWithParallelism(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{name: "positive", n: 4, expected: 4},
		{name: "zero", n: 0, expected: 1},
		{name: "negative", n: -2, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := New(&importEngine{}, nil, WithParallelism(tt.n))
			assert.Equal(t, tt.expected, task.parallelism)
		})
	}
}

func TestDaemon_RecompilesChangedUnits(t *testing.T) {
	w := newWorkspace(t)
	w.write(t, "a.less", ".a {}", epoch)

	var (
		mu       sync.Mutex
		notified [][]*unit.Unit
	)
	listener := daemon.ListenerFunc(func(units []*unit.Unit) {
		mu.Lock()
		defer mu.Unlock()
		notified = append(notified, units)
	})

	u := w.unit(t, "a.less", "a.css")
	task := w.task(&importEngine{}, WithListener(listener))
	task.Add(u)

	require.NoError(t, task.StartDaemon(10*time.Millisecond))
	assert.True(t, task.DaemonRunning())
	assert.Error(t, task.StartDaemon(10*time.Millisecond))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(notified) == 1
	}, time.Second, 5*time.Millisecond)

	w.write(t, "a.less", ".a { color: red; }", time.Now().Add(time.Hour))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(u.Destination())
		return err == nil && string(data) == ".a { color: red; }\n"
	}, time.Second, 5*time.Millisecond)

	task.StopDaemon()
	task.WaitDaemon()
	assert.False(t, task.DaemonRunning())

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, len(notified), 2)
	assert.Equal(t, []*unit.Unit{u}, notified[0])
}

func TestUnitError(t *testing.T) {
	w := newWorkspace(t)
	u := w.unit(t, "a.less", "a.css")

	cause := errors.New("boom")
	err := &UnitError{Unit: u, Err: cause}

	assert.Equal(t, u.String()+": boom", err.Error())
	assert.ErrorIs(t, err, cause)
}
