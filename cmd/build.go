package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Norgate-AV/lessbuild/internal/cache"
	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/config"
	"github.com/Norgate-AV/lessbuild/internal/daemon"
	"github.com/Norgate-AV/lessbuild/internal/logger"
	"github.com/Norgate-AV/lessbuild/internal/resource"
	"github.com/Norgate-AV/lessbuild/internal/task"
	"github.com/Norgate-AV/lessbuild/internal/unit"
)

// newEngine creates the compilation engine. Tests replace it.
var newEngine = func(cfg *config.Config, log *zap.Logger) (compiler.Engine, error) {
	engine := compiler.NewLessc(cfg.LesscPath, log)

	if cfg.CustomJS != "" {
		if err := engine.LoadExtensions(cfg.CustomJS); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	depends, _ := cmd.Flags().GetBool("depends")
	daemonMode, _ := cmd.Flags().GetBool("daemon")

	// The first source, or the manifest, selects the local config
	configArgs := args
	if manifestPath != "" {
		if len(args) > 0 {
			return zerr.New("positional arguments cannot be combined with --manifest")
		}

		configArgs = []string{manifestPath}
	} else if len(args) == 0 {
		return zerr.New("requires a source file or --manifest")
	}

	cfg, err := config.NewLoader().LoadForBuild(cmd, configArgs)
	if err != nil {
		return err
	}

	cmd.SilenceErrors = cfg.Silent

	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	engine, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	if manifestPath == "" && len(args) == 1 {
		return printResult(cmd.OutOrStdout(), cfg, engine, args[0], depends)
	}

	if depends {
		return zerr.New("--depends prints a single source and takes no destination")
	}

	units, err := buildUnits(cfg, manifestPath, args)
	if err != nil {
		return err
	}

	c, err := openCache(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	out := cmd.OutOrStdout()
	t := task.New(engine, c,
		task.WithLogger(log),
		task.WithParallelism(cfg.Parallelism),
		task.WithListener(compiledPrinter(out)),
	)
	t.Add(units...)

	if daemonMode {
		return runDaemon(cmd.Context(), t, cfg, cmd.InOrStdin(), out)
	}

	compiled, err := t.Execute()
	if cfg.Verbose {
		compiledPrinter(out).NotifyCompiled(compiled)
	}

	return err
}

func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	lc := logger.NewConfig()
	lc.Format = cfg.LogFormat

	switch {
	case cfg.Verbose:
		lc.Level = zapcore.DebugLevel
	case cfg.Silent:
		lc.Level = zapcore.ErrorLevel
	}

	return logger.New(w, lc)
}

// printResult compiles source without a destination and prints the output,
// or its imports when depends is set.
func printResult(w io.Writer, cfg *config.Config, engine compiler.Engine, source string, depends bool) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return err
	}

	r, err := cfg.Resolver(abs, "")
	if err != nil {
		return err
	}

	location := filepath.Base(abs)
	content, err := r.Read(location)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read source"), "source", source)
	}

	opts := cfg.Options
	if depends {
		opts = opts.WithDependenciesOnly()
	}

	tracker := resource.NewTracking(r)
	result, err := engine.Compile(content, opts, tracker)
	if err != nil {
		return err
	}

	if !depends {
		_, err = fmt.Fprintln(w, result.Output)
		return err
	}

	imports := tracker.Imports()
	if len(imports) == 0 {
		imports = result.Imports
	}

	if _, err := fmt.Fprintf(w, "Dependencies for %s:\n", source); err != nil {
		return err
	}

	for _, imp := range imports {
		if _, err := fmt.Fprintln(w, imp); err != nil {
			return err
		}
	}

	return nil
}

func buildUnits(cfg *config.Config, manifestPath string, args []string) ([]*unit.Unit, error) {
	if manifestPath == "" {
		u, err := cfg.Unit(config.UnitSpec{Source: args[0], Destination: args[1]})
		if err != nil {
			return nil, err
		}

		return []*unit.Unit{u}, nil
	}

	m, err := config.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	return m.Build(cfg)
}

// openCache opens the dependency cache namespaced by the plugin script.
func openCache(cfg *config.Config, log *zap.Logger) (*cache.Cache, error) {
	script := ""
	if cfg.CustomJS != "" {
		data, err := os.ReadFile(cfg.CustomJS)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read custom script"), "custom_js", cfg.CustomJS)
		}

		script = cache.ScriptIdentity(string(data))
	}

	store, err := cache.OpenStore(cfg.CacheBackend, cfg.CacheDir)
	if err != nil {
		return nil, err
	}

	return cache.New(store, script, log), nil
}

func compiledPrinter(w io.Writer) daemon.ListenerFunc {
	return func(units []*unit.Unit) {
		for _, u := range units {
			_, _ = fmt.Fprintf(w, "Compiled %s\n", u)
		}
	}
}

// runDaemon recompiles until q is read from in, the process is signalled or
// the daemon stops on its own.
func runDaemon(ctx context.Context, t *task.Task, cfg *config.Config, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := t.StartDaemon(cfg.Interval); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Compiler daemon running, press q to quit...")

	finished := make(chan struct{})
	go func() {
		t.WaitDaemon()
		close(finished)
	}()

	select {
	case <-waitForQuit(in):
	case <-ctx.Done():
	case <-finished:
	}

	t.StopDaemon()
	t.WaitDaemon()

	return t.DaemonErr()
}

// waitForQuit returns a channel closed when a 'q' is read from in.
func waitForQuit(in io.Reader) <-chan struct{} {
	quit := make(chan struct{})

	go func() {
		r := bufio.NewReader(in)
		for {
			b, err := r.ReadByte()
			if err != nil {
				return
			}

			if b == 'q' {
				close(quit)
				return
			}
		}
	}()

	return quit
}
