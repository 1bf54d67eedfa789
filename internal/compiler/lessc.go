package compiler

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.trai.ch/zerr"
	"go.uber.org/zap"

	"github.com/Norgate-AV/lessbuild/internal/codes"
	"github.com/Norgate-AV/lessbuild/internal/resource"
)

// DefaultExecutable is the lessc command looked up on PATH.
const DefaultExecutable = "lessc"

var (
	// ErrUnsupportedResolver is returned when lessc cannot be told where to
	// find imports.
	ErrUnsupportedResolver = zerr.New("lessc requires a file system resolver")

	// ErrPluginNotFound is returned when an extension script does not exist.
	ErrPluginNotFound = zerr.New("lessc plugin not found")

	// ErrUnresolvedImport is returned when lessc lists an import the
	// resolver cannot read.
	ErrUnresolvedImport = zerr.New("lessc import is not visible to the resolver")
)

// Commander interface for testing
type Commander interface {
	Run(stdin io.Reader, stdout, stderr io.Writer) error
}

type execCommander struct {
	cmd *exec.Cmd
}

func (c execCommander) Run(stdin io.Reader, stdout, stderr io.Writer) error {
	c.cmd.Stdin = stdin
	c.cmd.Stdout = stdout
	c.cmd.Stderr = stderr

	return c.cmd.Run()
}

// ShellCommand is a fully built lessc invocation.
type ShellCommand struct {
	Path string
	Args []string
}

func (c ShellCommand) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Lessc compiles by piping source into the lessc executable. Imports are
// discovered with a dependency listing first and then read through the
// caller's resolver, so a tracking resolver observes them.
type Lessc struct {
	executable  string
	plugins     []string
	logger      *zap.Logger
	execCommand func(name string, args ...string) Commander
}

// NewLessc returns an engine running executable, or lessc from PATH when
// executable is empty.
func NewLessc(executable string, logger *zap.Logger) *Lessc {
	if executable == "" {
		executable = DefaultExecutable
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Lessc{
		executable: executable,
		logger:     logger,
		execCommand: func(name string, args ...string) Commander {
			return execCommander{cmd: exec.Command(name, args...)}
		},
	}
}

// Executable returns the lessc command this engine runs.
func (l *Lessc) Executable() string {
	return l.executable
}

// LoadExtensions registers a lessc plugin script by path.
func (l *Lessc) LoadExtensions(script string) error {
	if script == "" {
		return nil
	}

	abs, err := filepath.Abs(script)
	if err != nil {
		return zerr.With(zerr.Wrap(err, ErrPluginNotFound.Error()), "plugin", script)
	}

	if _, err := os.Stat(abs); err != nil {
		return zerr.With(zerr.Wrap(err, ErrPluginNotFound.Error()), "plugin", abs)
	}

	l.plugins = append(l.plugins, abs)

	return nil
}

func (l *Lessc) Compile(source string, opts Options, r resource.Resolver) (*Result, error) {
	includePaths := resource.IncludePaths(r)
	if r != nil && len(includePaths) == 0 {
		return nil, zerr.With(ErrUnsupportedResolver, "resolver", r.Identity())
	}

	listing, err := l.run(source, l.BuildCommand(opts, includePaths, true))
	if err != nil {
		return nil, err
	}

	imports := ParseDependencies(listing, includePaths)
	if r != nil {
		for _, location := range imports {
			if !r.CanRead(location) {
				return nil, zerr.With(ErrUnresolvedImport, "import", location)
			}

			if _, err := r.Read(location); err != nil {
				return nil, err
			}
		}
	}

	if opts.DependenciesOnly {
		return &Result{Imports: imports}, nil
	}

	output, err := l.run(source, l.BuildCommand(opts, includePaths, false))
	if err != nil {
		return nil, err
	}

	return &Result{Output: output, Imports: imports}, nil
}

// BuildCommand builds the lessc invocation for opts. Source is always read
// from stdin.
func (l *Lessc) BuildCommand(opts Options, includePaths []string, dependenciesOnly bool) ShellCommand {
	args := []string{"-"}
	if dependenciesOnly {
		// lessc -M requires a destination name to print as the make target
		args = append(args, "-M", "dummy.css")
	}

	args = append(args, "--no-color")

	if len(includePaths) > 0 {
		args = append(args, "--include-path="+strings.Join(includePaths, string(filepath.ListSeparator)))
	}

	for _, plugin := range l.plugins {
		args = append(args, "--plugin="+plugin)
	}

	if opts.StrictImports {
		args = append(args, "--strict-imports")
	}

	if opts.Compress {
		args = append(args, "-x")
	}

	if opts.Minify {
		args = append(args, "--clean-css")
	}

	if opts.RootPath != "" {
		args = append(args, "--rootpath="+opts.RootPath)
	}

	if opts.RelativeURLs {
		args = append(args, "-ru")
	}

	args = append(args, "-sm="+onOff(opts.StrictMath), "-su="+onOff(opts.StrictUnits))

	for _, key := range sortedKeys(opts.GlobalVars) {
		args = append(args, "--global-var="+key+"="+opts.GlobalVars[key])
	}

	if len(opts.ModifyVars) > 0 {
		// lessc ignores the first --modify-var
		args = append(args, "--modify-var=_dummy_var_=0")
		for _, key := range sortedKeys(opts.ModifyVars) {
			args = append(args, "--modify-var="+key+"="+opts.ModifyVars[key])
		}
	}

	args = append(args, "-O"+strconv.Itoa(opts.OptimizationLevel))

	if opts.LineNumbers != LineNumbersNone {
		args = append(args, "--line-numbers="+string(opts.LineNumbers))
	}

	return ShellCommand{Path: l.executable, Args: args}
}

// ParseDependencies extracts import locations from lessc -M output. The
// first token is the make target. Escaped spaces and line continuations are
// honored, and unescaped spaces are kept inside a path when that names an
// existing file. Paths under an include path are made relative to it.
func ParseDependencies(listing string, includePaths []string) []string {
	tokens := splitListing(listing)
	if len(tokens) < 2 {
		return nil
	}

	paths := joinPaths(tokens[1:])

	imports := make([]string, 0, len(paths))
	for _, path := range paths {
		imports = append(imports, relativeTo(path, includePaths))
	}

	return imports
}

func splitListing(listing string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(listing); i++ {
		c := listing[i]

		switch {
		case c == '\\' && i+1 < len(listing) && listing[i+1] == ' ':
			current.WriteByte(' ')
			i++
		case c == '\\' && i+1 < len(listing) && (listing[i+1] == '\n' || listing[i+1] == '\r'):
			flush()
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			current.WriteByte(c)
		}
	}

	flush()

	return tokens
}

// joinPaths rejoins tokens that lessc printed with unescaped spaces. A token
// that is not a file is extended with the following tokens until the joined
// text names one.
func joinPaths(tokens []string) []string {
	paths := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); {
		end := i + 1

		if !isFile(tokens[i]) {
			for j := i + 2; j <= len(tokens); j++ {
				if isFile(strings.Join(tokens[i:j], " ")) {
					end = j
					break
				}
			}
		}

		paths = append(paths, strings.Join(tokens[i:end], " "))
		i = end
	}

	return paths
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func relativeTo(path string, includePaths []string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	for _, base := range includePaths {
		prefix := strings.TrimSuffix(base, string(filepath.Separator)) + string(filepath.Separator)
		if strings.HasPrefix(abs, prefix) {
			return filepath.ToSlash(strings.TrimPrefix(abs, prefix))
		}
	}

	return abs
}

func (l *Lessc) run(source string, command ShellCommand) (string, error) {
	l.logger.Debug("Executing lessc", zap.String("command", command.String()))

	var stdout, stderr bytes.Buffer
	err := l.execCommand(command.Path, command.Args...).Run(strings.NewReader(source), &stdout, &stderr)
	if err == nil {
		return stdout.String(), nil
	}

	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if codes.IsSuccess(code) {
			return stdout.String(), nil
		}

		if codes.IsLaunchFailure(code) {
			return "", zerr.With(zerr.Wrap(err, codes.GetErrorMessage(code)), "executable", command.Path)
		}

		return "", &CompileError{Message: strings.TrimSpace(stderr.String())}
	}

	return "", zerr.With(zerr.Wrap(err, "failed to run lessc"), "executable", command.Path)
}

func onOff(b bool) string {
	if b {
		return "on"
	}

	return "off"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
