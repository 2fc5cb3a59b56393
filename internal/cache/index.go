package cache

import (
	"context"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
	"github.com/KilimcininKorOglu/dnidx/internal/idl"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
)

// CachedIndex wraps a dnindex.Index with a hot-lookup Cache, satisfying the
// same interface so callers can swap it in transparently.
type CachedIndex struct {
	dnindex.Index
	cache *Cache
}

var _ dnindex.Index = (*CachedIndex)(nil)

// Wrap returns idx fronted by a Cache of the given size.
func Wrap(idx dnindex.Index, size int) (*CachedIndex, error) {
	c, err := New(size)
	if err != nil {
		return nil, err
	}
	return &CachedIndex{Index: idx, cache: c}, nil
}

// Lookup serves from cache when possible, falling back to the wrapped
// index. Only a committed-snapshot read (txn == nil) populates the cache:
// caching a hit made inside an in-flight txn would seed the shared cache
// with a value that does not yet exist in committed state, and that is
// never invalidated if the txn is later rolled back.
func (c *CachedIndex) Lookup(ctx context.Context, txn *kv.Txn, dn string) (uint32, error) {
	if txn == nil {
		if id, ok := c.cache.Get(dn); ok {
			return id, nil
		}
	}
	id, err := c.Index.Lookup(ctx, txn, dn)
	if err != nil {
		return dnindex.NOID, err
	}
	if txn == nil {
		c.cache.Put(dn, id)
	}
	return id, nil
}

// Add delegates to the wrapped index, then drops any cached entry for
// entry.NDN after a successful add.
func (c *CachedIndex) Add(ctx context.Context, txn *kv.Txn, pdn string, entry dnindex.Entry) error {
	if err := c.Index.Add(ctx, txn, pdn, entry); err != nil {
		return err
	}
	c.cache.Invalidate(entry.NDN)
	return nil
}

// Delete invalidates dn's cache entry, if any, after a successful delete.
func (c *CachedIndex) Delete(ctx context.Context, txn *kv.Txn, pdn, dn string, id uint32) error {
	if err := c.Index.Delete(ctx, txn, pdn, dn, id); err != nil {
		return err
	}
	c.cache.Invalidate(dn)
	return nil
}

// ModRDN invalidates both the old and new DN's cache entries after a
// successful rename; a stale hit under either name would otherwise survive
// the move.
func (c *CachedIndex) ModRDN(ctx context.Context, txn *kv.Txn, oldPDN, oldDN, newPDN, newRDN string, id uint32) error {
	if err := c.Index.ModRDN(ctx, txn, oldPDN, oldDN, newPDN, newRDN, id); err != nil {
		return err
	}
	c.cache.Invalidate(oldDN)
	newDN := dn.Join(append([]string{newRDN}, dn.Explode(newPDN)...))
	c.cache.Invalidate(newDN)
	return nil
}

// Descendants is never cached — an IDL can be large and is cheap enough
// to recompute, so it always goes straight through to the wrapped index.
func (c *CachedIndex) Descendants(ctx context.Context, txn *kv.Txn, dn string, scope dnindex.Scope) (*idl.IDL, error) {
	return c.Index.Descendants(ctx, txn, dn, scope)
}
