package cache

import (
	"path/filepath"

	"go.trai.ch/zerr"
)

const (
	// BackendFile stores one JSON file per entry
	BackendFile = "file"

	// BackendBolt stores all entries in a single BoltDB file
	BackendBolt = "bolt"
)

// ErrUnknownBackend is returned for unsupported store backends.
var ErrUnknownBackend = zerr.New("unknown cache backend")

// Stats summarizes a store
type Stats struct {
	// Entries is the number of stored entries
	Entries int

	// Scripts is the number of script namespaces
	Scripts int

	// Size is the on-disk size in bytes
	Size int64
}

// Store persists cache entries by key.
type Store interface {
	// Load returns the entry for key, or nil when there is none.
	Load(key Key) (*Entry, error)

	// Store writes entry under key, replacing any previous entry.
	Store(key Key, entry *Entry) error

	// Clear removes every entry.
	Clear() error

	// Stats reports the store's contents.
	Stats() (Stats, error)

	// Close releases the store.
	Close() error
}

// OpenStore opens the backend rooted at dir.
func OpenStore(backend, dir string) (Store, error) {
	if dir == "" {
		return nil, zerr.New("cache directory is required")
	}

	switch backend {
	case BackendFile, "":
		return NewFileStore(dir)
	case BackendBolt:
		return NewBoltStore(filepath.Join(dir, boltFile))
	default:
		return nil, zerr.With(ErrUnknownBackend, "backend", backend)
	}
}
