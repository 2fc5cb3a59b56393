// Package cache provides a bounded, concurrency-safe hot-lookup cache that
// sits in front of a dnindex.Index, short-circuiting repeat Lookup calls
// for hot DNs without touching the KV layer or the hierarchical tree.
// Backed by github.com/hashicorp/golang-lru/v2, present in the example
// pack's dependency set (AKJUS-bsc-erigon's go.mod) though not directly
// exercised there; its application to DN lookups here is this module's own.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache maps normalized DNs to entry IDs. A zero-value Cache is not usable;
// construct one with New.
type Cache struct {
	entries *lru.Cache[string, uint32]
}

// New returns a Cache holding at most size entries. size must be positive.
func New(size int) (*Cache, error) {
	entries, err := lru.New[string, uint32](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

// Get returns the cached ID for ndn, if present.
func (c *Cache) Get(ndn string) (uint32, bool) {
	return c.entries.Get(ndn)
}

// Put records ndn -> id, evicting the least recently used entry if the
// cache is full.
func (c *Cache) Put(ndn string, id uint32) {
	c.entries.Add(ndn, id)
}

// Invalidate drops ndn from the cache, if present. Callers must invalidate
// on Delete and on both the old and new DN of a ModRDN; a stale hit would
// otherwise outlive the index mutation that made it wrong.
func (c *Cache) Invalidate(ndn string) {
	c.entries.Remove(ndn)
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Purge clears the cache entirely.
func (c *Cache) Purge() {
	c.entries.Purge()
}
