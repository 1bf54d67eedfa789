package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.trai.ch/zerr"
)

// boltFile is the BoltDB file name inside the cache directory
const boltFile = "cache.db"

// BoltStore keeps entries in a BoltDB file, one bucket per script identity
// keyed by fingerprint.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore opens or creates the database at path
func NewBoltStore(path string) (*BoltStore, error) {
	// Ensure cache directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, zerr.Wrap(err, "failed to create cache directory")
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open cache database"), "path", path)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Close closes the cache database
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *BoltStore) Load(key Key) (*Entry, error) {
	var entry *Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(key.Script))
		if b == nil {
			return nil // Cache miss
		}

		data := b.Get([]byte(key.Fingerprint))
		if data == nil {
			return nil // Cache miss
		}

		entry = &Entry{}
		return json.Unmarshal(data, entry)
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load cache entry")
	}

	return entry, nil
}

func (s *BoltStore) Store(key Key, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.Wrap(err, "failed to encode cache entry")
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(key.Script))
		if err != nil {
			return err
		}

		return b.Put([]byte(key.Fingerprint), data)
	})
	if err != nil {
		return zerr.Wrap(err, "failed to store cache entry")
	}

	return nil
}

// Clear removes all buckets
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		var names [][]byte
		err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		})
		if err != nil {
			return err
		}

		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}

		return nil
	})
}

// Stats returns cache statistics
func (s *BoltStore) Stats() (Stats, error) {
	var stats Stats

	err := s.db.View(func(tx *bbolt.Tx) error {
		stats.Size = tx.Size()

		return tx.ForEach(func(_ []byte, b *bbolt.Bucket) error {
			stats.Scripts++
			stats.Entries += b.Stats().KeyN

			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}
