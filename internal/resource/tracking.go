package resource

import (
	"path"
	"strings"
	"sync"
)

// Tracking wraps a resolver and records every location read through it, in
// call order and including repeats. Existence and timestamp queries are not
// recorded.
type Tracking struct {
	delegate Resolver

	mu      sync.Mutex
	imports []string
}

// NewTracking returns a tracking wrapper around delegate.
func NewTracking(delegate Resolver) *Tracking {
	return &Tracking{delegate: delegate}
}

// Unwrap returns the wrapped resolver.
func (t *Tracking) Unwrap() Resolver {
	return t.delegate
}

// Imports returns the normalized locations read so far.
func (t *Tracking) Imports() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string(nil), t.imports...)
}

func (t *Tracking) CanRead(location string) bool {
	return t.delegate.CanRead(location)
}

func (t *Tracking) Read(location string) (string, error) {
	t.mu.Lock()
	t.imports = append(t.imports, Normalize(location))
	t.mu.Unlock()

	return t.delegate.Read(location)
}

func (t *Tracking) LastModified(location string) int64 {
	return t.delegate.LastModified(location)
}

func (t *Tracking) Identity() string {
	return t.delegate.Identity()
}

// Normalize resolves "." and ".." segments in a slash or backslash separated
// location. Leading ".." segments that cannot be resolved are kept.
func Normalize(location string) string {
	if location == "" {
		return location
	}

	return path.Clean(strings.ReplaceAll(location, `\`, "/"))
}
