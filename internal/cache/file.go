package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"

	"github.com/Norgate-AV/lessbuild/internal/utils"
)

const entryExt = ".json"

// FileStore keeps each entry in <root>/<script>/<fingerprint>.json.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at root. The directory is created on
// the first write.
func NewFileStore(root string) (*FileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve cache directory")
	}

	return &FileStore{root: abs}, nil
}

// Root returns the cache directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(key Key) string {
	return filepath.Join(s.root, key.Script, key.Fingerprint+entryExt)
}

func (s *FileStore) Load(key Key) (*Entry, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, zerr.Wrap(err, "failed to read cache entry")
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, "failed to decode cache entry")
	}

	return &entry, nil
}

func (s *FileStore) Store(key Key, entry *Entry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to encode cache entry")
	}

	if err := utils.WriteFileAtomic(s.path(key), data, 0o644); err != nil {
		return zerr.Wrap(err, "failed to write cache entry")
	}

	return nil
}

// Clear removes the cache directory
func (s *FileStore) Clear() error {
	if err := os.RemoveAll(s.root); err != nil {
		return zerr.Wrap(err, "failed to remove cache directory")
	}

	return nil
}

// Stats walks the cache directory
func (s *FileStore) Stats() (Stats, error) {
	var stats Stats

	scripts, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}

		return stats, zerr.Wrap(err, "failed to read cache directory")
	}

	for _, script := range scripts {
		if !script.IsDir() {
			continue
		}

		stats.Scripts++

		entries, err := os.ReadDir(filepath.Join(s.root, script.Name()))
		if err != nil {
			continue // Skip unreadable namespaces
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), entryExt) {
				continue
			}

			stats.Entries++
			if info, err := entry.Info(); err == nil {
				stats.Size += info.Size()
			}
		}
	}

	return stats, nil
}

func (s *FileStore) Close() error {
	return nil
}
