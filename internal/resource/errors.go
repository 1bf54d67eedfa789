package resource

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrNotFound is returned when a location does not resolve.
	ErrNotFound = zerr.New("resource not found")

	// ErrNoResolvers is returned when combining an empty resolver list.
	ErrNoResolvers = zerr.New("at least one resolver is required")

	// ErrUnknownEncoding is returned for character sets outside the IANA index.
	ErrUnknownEncoding = zerr.New("unknown character encoding")
)

func notFound(location string) error {
	return errors.Join(ErrNotFound, zerr.With(zerr.New("cannot resolve location"), "location", location))
}
