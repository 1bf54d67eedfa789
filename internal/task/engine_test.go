package task

import (
	"strings"
	"sync"

	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/resource"
)

// importEngine is a minimal stylesheet engine. It inlines `@import "x";`
// lines by reading them through the resolver, copies other lines, and fails
// on a line reading "!error".
type importEngine struct {
	mu    sync.Mutex
	calls []compiler.Options
}

func (e *importEngine) Compile(source string, opts compiler.Options, r resource.Resolver) (*compiler.Result, error) {
	e.mu.Lock()
	e.calls = append(e.calls, opts)
	e.mu.Unlock()

	var out strings.Builder
	if err := e.expand(source, r, &out); err != nil {
		return nil, err
	}

	if opts.DependenciesOnly {
		return &compiler.Result{}, nil
	}

	return &compiler.Result{Output: out.String()}, nil
}

func (e *importEngine) expand(source string, r resource.Resolver, out *strings.Builder) error {
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "@import"):
			location := strings.Trim(strings.TrimSuffix(strings.TrimPrefix(line, "@import"), ";"), ` "'`)

			content, err := r.Read(location)
			if err != nil {
				return &compiler.CompileError{Message: "cannot import " + location}
			}

			if err := e.expand(content, r, out); err != nil {
				return err
			}
		case line == "!error":
			return &compiler.CompileError{Message: "unrecognised input"}
		case line != "":
			out.WriteString(line + "\n")
		}
	}

	return nil
}

func (e *importEngine) Calls() []compiler.Options {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]compiler.Options(nil), e.calls...)
}

func (e *importEngine) FullCompiles() int {
	n := 0
	for _, opts := range e.Calls() {
		if !opts.DependenciesOnly {
			n++
		}
	}

	return n
}
