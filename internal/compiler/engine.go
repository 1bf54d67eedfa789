// Package compiler defines the stylesheet compilation engine contract and a
// lessc command-line implementation of it.
package compiler

import (
	"errors"

	"github.com/Norgate-AV/lessbuild/internal/resource"
)

//go:generate mockgen -source=engine.go -destination=mocks/mock_engine.go -package=mocks

// Engine compiles stylesheet source text.
type Engine interface {
	// Compile translates source using r to read every import. A malformed
	// source yields a *CompileError; any other error is an engine fault.
	Compile(source string, opts Options, r resource.Resolver) (*Result, error)
}

// Extensible is implemented by engines that accept a custom extension script.
type Extensible interface {
	LoadExtensions(script string) error
}

// Result is the outcome of a successful compilation.
type Result struct {
	// Output is the compiled stylesheet. Empty for dependency-only runs.
	Output string

	// Imports lists the locations the engine read, in order.
	Imports []string
}

// CompileError reports a source that failed to parse or compile.
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	if e.Message == "" {
		return "compilation failed"
	}

	return "compilation failed: " + e.Message
}

// IsCompileError reports whether err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var cerr *CompileError
	return errors.As(err, &cerr)
}
