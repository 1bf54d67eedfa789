package task

import (
	"go.trai.ch/zerr"

	"github.com/Norgate-AV/lessbuild/internal/unit"
)

var (
	// ErrSourceUnreadable is returned when a unit's source cannot be read.
	ErrSourceUnreadable = zerr.New("failed to read source")

	// ErrDestinationWrite is returned when compiled output cannot be written.
	ErrDestinationWrite = zerr.New("failed to write destination")
)

// UnitError ties a failure to the unit it happened in.
type UnitError struct {
	Unit *unit.Unit
	Err  error
}

func (e *UnitError) Error() string {
	return e.Unit.String() + ": " + e.Err.Error()
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
