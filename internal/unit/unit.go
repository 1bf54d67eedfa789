// Package unit models a single source-to-destination stylesheet compilation
// and decides whether its destination is stale.
package unit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/zerr"

	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/resource"
)

// ErrInvalidUnit is returned when a unit is missing a required field.
var ErrInvalidUnit = zerr.New("invalid compilation unit")

// Unit is one stylesheet compiled to one destination file.
//
// Source, destination, options, resolver and encoding never change. Imports
// and the last failure time are updated by the compilation task and may be
// read concurrently.
type Unit struct {
	sourceLocation string
	destination    string
	options        compiler.Options
	resolver       resource.Resolver
	encoding       string

	mu          sync.RWMutex
	imports     []string
	lastFailure int64
}

// New returns a unit compiling sourceLocation, read through r, into
// destination. destination is made absolute.
func New(sourceLocation, destination string, opts compiler.Options, r resource.Resolver, encoding string) (*Unit, error) {
	switch {
	case sourceLocation == "":
		return nil, errors.Join(ErrInvalidUnit, zerr.New("source location is required"))
	case destination == "":
		return nil, errors.Join(ErrInvalidUnit, zerr.New("destination is required"))
	case r == nil:
		return nil, errors.Join(ErrInvalidUnit, zerr.New("resolver is required"))
	}

	abs, err := filepath.Abs(destination)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrInvalidUnit.Error()), "destination", destination)
	}

	return &Unit{
		sourceLocation: sourceLocation,
		destination:    abs,
		options:        opts.Clone(),
		resolver:       r,
		encoding:       encoding,
	}, nil
}

// NewFromFiles returns a unit for a source file on disk using default
// options. Imports are resolved relative to the source's directory.
func NewFromFiles(source, destination string) (*Unit, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, ErrInvalidUnit.Error()), "source", source)
	}

	r, err := resource.NewFileSystem("", filepath.Dir(abs))
	if err != nil {
		return nil, err
	}

	return New(filepath.Base(abs), destination, compiler.DefaultOptions(), r, "")
}

// Restore rebuilds a unit from persisted state. The resolver only needs to
// carry the identity of the original one.
func Restore(sourceLocation, destination string, opts compiler.Options, r resource.Resolver, encoding string, imports []string, lastFailure int64) *Unit {
	return &Unit{
		sourceLocation: sourceLocation,
		destination:    destination,
		options:        opts.Clone(),
		resolver:       r,
		encoding:       encoding,
		imports:        slices.Clone(imports),
		lastFailure:    lastFailure,
	}
}

// SourceLocation returns the source location, as passed to the resolver.
func (u *Unit) SourceLocation() string { return u.sourceLocation }

// Destination returns the absolute path of the compiled output.
func (u *Unit) Destination() string { return u.destination }

// Options returns a copy of the compile options.
func (u *Unit) Options() compiler.Options { return u.options.Clone() }

// Resolver returns the resolver for the source and its imports.
func (u *Unit) Resolver() resource.Resolver { return u.resolver }

// Encoding returns the character encoding of the source and destination.
func (u *Unit) Encoding() string { return u.encoding }

// Imports returns a copy of the locations read by the last compilation.
func (u *Unit) Imports() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return slices.Clone(u.imports)
}

// LastFailure returns the Unix millisecond time of the last failed
// compilation, or 0 when the last attempt succeeded or none was made.
func (u *Unit) LastFailure() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()

	return u.lastFailure
}

// SetImports replaces the import list.
func (u *Unit) SetImports(imports []string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.imports = slices.Clone(imports)
}

// RecordFailure marks a failed compilation at ts.
func (u *Unit) RecordFailure(ts int64) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.lastFailure = ts
}

// Succeeded records a successful compilation that read imports.
func (u *Unit) Succeeded(imports []string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.imports = slices.Clone(imports)
	u.lastFailure = 0
}

// Adopt takes over the imports and failure time of another unit.
func (u *Unit) Adopt(other *Unit) {
	imports := other.Imports()
	lastFailure := other.LastFailure()

	u.mu.Lock()
	defer u.mu.Unlock()

	u.imports = imports
	u.lastFailure = lastFailure
}

// IsDirty reports whether the destination must be recompiled.
//
// The reference time is the newer of the destination's modification time and
// the last failure. With no destination, only a recorded failure suppresses
// recompilation until the source or an import changes.
func (u *Unit) IsDirty() bool {
	u.mu.RLock()
	imports := u.imports
	lastFailure := u.lastFailure
	u.mu.RUnlock()

	reference := lastFailure
	if info, err := os.Stat(u.destination); err == nil {
		reference = max(info.ModTime().UnixMilli(), lastFailure)
	} else if lastFailure == 0 {
		return true
	}

	if u.resolver.LastModified(u.sourceLocation) > reference {
		return true
	}

	for _, location := range imports {
		if u.resolver.LastModified(location) > reference {
			return true
		}
	}

	return false
}

// IsEquivalent reports whether other describes the same compilation,
// regardless of what either has learned about imports.
func (u *Unit) IsEquivalent(other *Unit) bool {
	if other == nil {
		return false
	}

	if u == other {
		return true
	}

	return u.sourceLocation == other.sourceLocation &&
		u.destination == other.destination &&
		u.encoding == other.encoding &&
		u.options.Equal(other.options) &&
		resource.Equal(u.resolver, other.resolver)
}

// Equals reports whether other is equivalent and has the same imports in the
// same order.
func (u *Unit) Equals(other *Unit) bool {
	if !u.IsEquivalent(other) {
		return false
	}

	if u == other {
		return true
	}

	return slices.Equal(u.Imports(), other.Imports())
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s -> %s", u.sourceLocation, u.destination)
}
