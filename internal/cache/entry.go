package cache

import (
	"time"

	"github.com/Norgate-AV/lessbuild/internal/compiler"
	"github.com/Norgate-AV/lessbuild/internal/resource"
	"github.com/Norgate-AV/lessbuild/internal/unit"
)

// Entry represents a persisted compilation unit
type Entry struct {
	// SourceLocation is the source as known to the resolver
	SourceLocation string `json:"source_location"`

	// Destination is the absolute path of the compiled output
	Destination string `json:"destination"`

	// Options are the compile options of the unit
	Options compiler.Options `json:"options"`

	// Encoding is the destination character set
	Encoding string `json:"encoding,omitempty"`

	// Resolver is the identity of the unit's resolver
	Resolver string `json:"resolver"`

	// Imports lists the locations read by the last compilation
	Imports []string `json:"imports"`

	// LastFailure is the Unix millisecond time of the last failed compilation
	LastFailure int64 `json:"last_failure,omitempty"`

	// Timestamp when this entry was written
	Timestamp time.Time `json:"timestamp"`
}

// NewEntry snapshots u.
func NewEntry(u *unit.Unit, now time.Time) *Entry {
	imports := u.Imports()
	if imports == nil {
		imports = []string{}
	}

	return &Entry{
		SourceLocation: u.SourceLocation(),
		Destination:    u.Destination(),
		Options:        u.Options(),
		Encoding:       u.Encoding(),
		Resolver:       u.Resolver().Identity(),
		Imports:        imports,
		LastFailure:    u.LastFailure(),
		Timestamp:      now,
	}
}

// Unit rebuilds a detached unit from the entry.
func (e *Entry) Unit() *unit.Unit {
	return unit.Restore(
		e.SourceLocation,
		e.Destination,
		e.Options,
		resource.Detached(e.Resolver),
		e.Encoding,
		e.Imports,
		e.LastFailure,
	)
}
