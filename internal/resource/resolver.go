// Package resource resolves stylesheet locations to content and modification times.
//
// A Resolver maps opaque location strings (relative paths, file names,
// embedded asset names) to their text and last-modified timestamp. Timestamps
// are Unix milliseconds; a location that cannot be resolved reports
// Unresolvable so that anything depending on it always looks stale.
package resource

import "math"

// Unresolvable is the modification time reported for locations a resolver
// cannot find.
const Unresolvable int64 = math.MaxInt64

// Resolver maps locations to content and modification times.
type Resolver interface {
	// CanRead reports whether location resolves to readable content.
	CanRead(location string) bool

	// Read returns the decoded content at location. It returns an error
	// wrapping ErrNotFound when the location does not resolve.
	Read(location string) (string, error)

	// LastModified returns the modification time of location in Unix
	// milliseconds, or Unresolvable.
	LastModified(location string) int64

	// Identity describes the resolver by value. Resolvers with equal
	// identities resolve the same locations to the same content.
	Identity() string
}

// Equal reports whether two resolvers are equal by value.
func Equal(a, b Resolver) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Identity() == b.Identity()
}

// Detached is a resolver that only carries an identity. Units rebuilt from
// the dependency cache use it so they can be compared with live units.
type Detached string

func (d Detached) CanRead(string) bool { return false }

func (d Detached) Read(location string) (string, error) {
	return "", notFound(location)
}

func (d Detached) LastModified(string) int64 { return Unresolvable }

func (d Detached) Identity() string { return string(d) }

// IncludePaths returns the directories searched by the file-system resolvers
// reachable from r, in resolution order.
func IncludePaths(r Resolver) []string {
	switch v := r.(type) {
	case *FileSystem:
		return v.IncludePaths()
	case *Tracking:
		return IncludePaths(v.Unwrap())
	case *Combining:
		var paths []string
		for _, inner := range v.resolvers {
			paths = append(paths, IncludePaths(inner)...)
		}

		return paths
	default:
		return nil
	}
}
