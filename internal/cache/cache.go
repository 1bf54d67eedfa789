// Package cache persists what lessbuild learned about each compilation unit.
//
// The cache remembers a unit's imports and its last failure time between
// runs, so a fresh process can decide staleness without recompiling anything.
// Entries are keyed in two levels:
//
//  1. The identity of the extension script the engine runs with ("0" if none)
//  2. A fingerprint of the unit's source, destination, encoding, resolver and options
//
// The cache is advisory. Read failures are reported as misses and write
// failures are logged.
package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/Norgate-AV/lessbuild/internal/unit"
)

// Cache stores units in a Store under one script identity.
type Cache struct {
	store  Store
	script string
	logger *zap.Logger
	now    func() time.Time
}

// New returns a cache writing to store for the given script identity.
func New(store Store, script string, logger *zap.Logger) *Cache {
	if script == "" {
		script = NoScript
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		store:  store,
		script: script,
		logger: logger.With(zap.String("service", "cache")),
		now:    time.Now,
	}
}

// Script returns the script identity this cache is namespaced by.
func (c *Cache) Script() string {
	return c.script
}

// Key returns the cache key of u.
func (c *Cache) Key(u *unit.Unit) (Key, error) {
	fingerprint, err := Fingerprint(u)
	if err != nil {
		return Key{}, err
	}

	return Key{Script: c.script, Fingerprint: fingerprint}, nil
}

// Load returns the cached unit for u, or nil if there is none or it cannot
// be read.
func (c *Cache) Load(u *unit.Unit) *unit.Unit {
	key, err := c.Key(u)
	if err != nil {
		c.logger.Warn("Failed to compute cache key", zap.Stringer("unit", u), zap.Error(err))
		return nil
	}

	entry, err := c.store.Load(key)
	if err != nil {
		c.logger.Warn("Failed to load cache entry",
			zap.Stringer("unit", u),
			zap.String("fingerprint", key.Fingerprint),
			zap.Error(err),
		)

		return nil
	}

	if entry == nil {
		return nil
	}

	return entry.Unit()
}

// Store persists u. Failures are logged and otherwise ignored.
func (c *Cache) Store(u *unit.Unit) {
	key, err := c.Key(u)
	if err != nil {
		c.logger.Warn("Failed to compute cache key", zap.Stringer("unit", u), zap.Error(err))
		return
	}

	if err := c.store.Store(key, NewEntry(u, c.now())); err != nil {
		c.logger.Warn("Failed to store cache entry",
			zap.Stringer("unit", u),
			zap.String("fingerprint", key.Fingerprint),
			zap.Error(err),
		)
	}
}

// Clear removes all cache entries
func (c *Cache) Clear() error {
	return c.store.Clear()
}

// Stats returns cache statistics
func (c *Cache) Stats() (Stats, error) {
	return c.store.Stats()
}

// Close closes the underlying store
func (c *Cache) Close() error {
	return c.store.Close()
}
