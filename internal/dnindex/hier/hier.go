// Package hier implements the hierarchical DN index: entries are keyed by
// numeric ID, and the DN hierarchy lives in an in-memory arena tree rebuilt
// from the ID rows at startup. See SPEC_FULL.md §4.3.
package hier

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
	"github.com/KilimcininKorOglu/dnidx/internal/idl"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
	"github.com/KilimcininKorOglu/dnidx/internal/logging"
)

// prefixID namespaces id->diskNode rows within the shared KV keyspace.
const prefixID byte = 0x10

// decodeBatchSize bounds how many rows a single startup decode goroutine
// takes, so the errgroup fan-out is batched rather than one goroutine per row.
const decodeBatchSize = 256

// Index is the hierarchical DN index: a numeric-ID-keyed KV store backing
// an in-memory tree that mirrors the last committed state.
type Index struct {
	db     kv.DB
	suffix dn.Suffix
	log    *logging.Logger
	t      *tree
}

var _ dnindex.Index = (*Index)(nil)

func idKey(id uint32) []byte {
	return append([]byte{prefixID}, encodeID(id)...)
}

// New opens the hierarchical index, rebuilding its in-memory tree from
// every ID row currently in db.
func New(ctx context.Context, db kv.DB, suffix dn.Suffix, log *logging.Logger) (*Index, error) {
	if log == nil {
		log = logging.NewNop()
	}
	ix := &Index{db: db, suffix: suffix, log: log, t: newTree()}
	if err := ix.build(ctx); err != nil {
		return nil, err
	}
	return ix, nil
}

type rawIDRow struct {
	id  uint32
	raw []byte
}

// build performs the two-pass startup reconstruction described in
// SPEC_FULL.md §4.3: a decode pass parallelized across cursor batches with
// errgroup, followed by a strictly single-threaded link pass.
func (ix *Index) build(ctx context.Context) error {
	txn, err := ix.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}
	defer txn.Rollback(ctx)

	cur, err := ix.db.Cursor(ctx, txn)
	if err != nil {
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}
	defer cur.Close()

	var raws []rawIDRow
	for {
		k, v, ok := cur.Next()
		if !ok {
			break
		}
		if len(k) != 5 || k[0] != prefixID {
			continue
		}
		id, err := decodeID(k[1:])
		if err != nil {
			return err
		}
		raws = append(raws, rawIDRow{id: id, raw: append([]byte(nil), v...)})
	}

	decoded := make([]diskNode, len(raws))
	g := new(errgroup.Group)
	for start := 0; start < len(raws); start += decodeBatchSize {
		start := start
		end := min(start+decodeBatchSize, len(raws))
		g.Go(func() error {
			for i := start; i < end; i++ {
				n, err := unmarshalDiskNode(raws[i].raw)
				if err != nil {
					return err
				}
				decoded[i] = n
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, row := range raws {
		n := decoded[i]
		idx := ix.t.alloc(&idNode{id: row.id, parent: noParent, rdn: n.rdn, nrdn: n.nrdn})
		ix.t.byID[row.id] = idx
	}
	for i, row := range raws {
		n := decoded[i]
		childIdx := ix.t.byID[row.id]
		if row.id == dnindex.RootID {
			ix.t.root = childIdx
			continue
		}
		parentIdx, ok := ix.t.byID[n.parent]
		if !ok {
			return errors.Wrapf(dnindex.ErrCorrupt, "id %d references missing parent %d", row.id, n.parent)
		}
		ix.t.nodes[childIdx].parent = parentIdx
		p := ix.t.nodes[parentIdx]
		p.kids = insertSorted(p.kids, ix.t.nodes, childIdx)
	}
	return nil
}

// resolveToIdx descends the tree from the root matching one RDN component
// per level, hand-over-hand over each node's kidsLock. On success it returns
// the resolved arena index and a nil error. On failure it returns the arena
// index of the deepest ancestor it reached and dnindex.ErrNotFound; idx is
// noParent only when the tree has no root or ndn falls outside the suffix.
//
// resolveToIdx itself does not take t.treeLock: the lock must cover not just
// this walk but every subsequent dereference of the returned idx into
// t.nodes, since t.nodes is a slice header that alloc() can reassign via
// append's reallocation. Callers must hold t.treeLock (read is sufficient)
// from before calling resolveToIdx until they are done with idx.
func (ix *Index) resolveToIdx(ndn string) (idx int, walked int, err error) {
	suffixStr := ix.suffix.String()
	if ndn == suffixStr {
		if ix.t.root == noParent {
			return noParent, 0, dnindex.ErrNotFound
		}
		return ix.t.root, 0, nil
	}
	if !dn.IsDescendantOf(ndn, suffixStr) {
		return noParent, 0, dnindex.ErrNotFound
	}
	if ix.t.root == noParent {
		return noParent, 0, dnindex.ErrNotFound
	}

	parts := dn.Explode(ndn)
	suffixDepth := ix.suffix.RDNCount()
	rdnParts := parts[:len(parts)-suffixDepth] // leaf-first, nearest RDN first

	cur := ix.t.root
	for i := len(rdnParts) - 1; i >= 0; i-- {
		node := ix.t.nodes[cur]
		node.kidsLock.RLock()
		childIdx, ok := findChild(node.kids, ix.t.nodes, rdnParts[i])
		node.kidsLock.RUnlock()
		if !ok {
			return cur, walked, dnindex.ErrNotFound
		}
		cur = childIdx
		walked++
	}
	return cur, walked, nil
}

// reconstructPath walks idx up to the root, collecting either display RDNs
// or normalized RDNs, then appends the configured suffix and joins them into
// a full DN string. Callers must hold t.treeLock for the duration.
func (ix *Index) reconstructPath(idx int, display bool) string {
	var comps []string
	cur := idx
	for cur != ix.t.root {
		n := ix.t.nodes[cur]
		if display {
			comps = append(comps, n.rdn)
		} else {
			comps = append(comps, n.nrdn)
		}
		cur = n.parent
	}
	comps = append(comps, ix.suffix.String())
	return dn.Join(comps)
}

// ReconstructDN rebuilds the display-case DN for id by walking its tree
// ancestry, per SPEC_FULL.md §4.3's display-DN reconstruction.
func (ix *Index) ReconstructDN(id uint32) (string, error) {
	ix.t.treeLock.RLock()
	defer ix.t.treeLock.RUnlock()
	idx, ok := ix.t.byID[id]
	if !ok {
		return "", dnindex.ErrNotFound
	}
	return ix.reconstructPath(idx, true), nil
}

func (ix *Index) Lookup(ctx context.Context, txn *kv.Txn, dnStr string) (uint32, error) {
	ix.t.treeLock.RLock()
	defer ix.t.treeLock.RUnlock()
	idx, _, err := ix.resolveToIdx(dnStr)
	if err != nil {
		return dnindex.NOID, err
	}
	return ix.t.nodes[idx].id, nil
}

func (ix *Index) LookupMatched(ctx context.Context, txn *kv.Txn, dnStr string) (uint32, string, error) {
	if dnStr == "" {
		return dnindex.NOID, "", dnindex.ErrNotFound
	}
	ix.t.treeLock.RLock()
	defer ix.t.treeLock.RUnlock()
	idx, _, err := ix.resolveToIdx(dnStr)
	if err == nil {
		return ix.t.nodes[idx].id, "", nil
	}
	if !errors.Is(err, dnindex.ErrNotFound) {
		return dnindex.NOID, "", err
	}
	if idx == noParent {
		return dnindex.NOID, "", dnindex.ErrNotFound
	}
	matched := ix.reconstructPath(idx, false)
	return ix.t.nodes[idx].id, matched, dnindex.ErrNotFound
}

func (ix *Index) HasChildren(ctx context.Context, txn *kv.Txn, dnStr string) (bool, error) {
	ix.t.treeLock.RLock()
	defer ix.t.treeLock.RUnlock()
	idx, _, err := ix.resolveToIdx(dnStr)
	if err != nil {
		return false, err
	}
	n := ix.t.nodes[idx]
	n.kidsLock.RLock()
	has := len(n.kids) > 0
	n.kidsLock.RUnlock()
	return has, nil
}

func (ix *Index) Descendants(ctx context.Context, txn *kv.Txn, dnStr string, scope dnindex.Scope) (*idl.IDL, error) {
	if scope == dnindex.Subtree && ix.suffix.IsSuffix(dnStr) {
		return idl.All(), nil
	}
	ix.t.treeLock.RLock()
	defer ix.t.treeLock.RUnlock()
	idx, _, err := ix.resolveToIdx(dnStr)
	if err != nil {
		return nil, err
	}

	result := idl.New()
	switch scope {
	case dnindex.One:
		n := ix.t.nodes[idx]
		n.kidsLock.RLock()
		for _, k := range n.kids {
			result.Insert(ix.t.nodes[k].id)
		}
		n.kidsLock.RUnlock()
	case dnindex.Subtree:
		ix.collectSubtree(idx, result)
	}
	return result, nil
}

// collectSubtree assumes the caller already holds t.treeLock (read) for the
// duration of the recursion; it only manages per-node kidsLock itself.
func (ix *Index) collectSubtree(idx int, result *idl.IDL) {
	n := ix.t.nodes[idx]
	n.kidsLock.RLock()
	kids := append([]int(nil), n.kids...)
	n.kidsLock.RUnlock()
	for _, k := range kids {
		result.Insert(ix.t.nodes[k].id)
		ix.collectSubtree(k, result)
	}
}

// Add stores the id row for entry and, once txn commits, links it into the
// tree under pdn's node. pdn == "" means entry is the suffix root.
func (ix *Index) Add(ctx context.Context, txn *kv.Txn, pdn string, entry dnindex.Entry) error {
	if entry.ID == dnindex.NOID {
		return errors.Wrap(dnindex.ErrInvalid, "NOID entry")
	}

	var parentID uint32
	if pdn == "" {
		if !ix.suffix.IsSuffix(entry.NDN) {
			return errors.Wrapf(dnindex.ErrInvalid, "root-less add of non-suffix DN %q", entry.NDN)
		}
		if entry.ID != dnindex.RootID {
			return errors.Wrapf(dnindex.ErrInvalid, "suffix root must have id %d, got %d", dnindex.RootID, entry.ID)
		}
		ix.t.treeLock.RLock()
		rootExists := ix.t.root != noParent
		ix.t.treeLock.RUnlock()
		if rootExists {
			return errors.Wrap(dnindex.ErrExists, "suffix root already present")
		}
		parentID = dnindex.NOID
	} else {
		ix.t.treeLock.RLock()
		parentIdx, _, err := ix.resolveToIdx(pdn)
		if err != nil {
			ix.t.treeLock.RUnlock()
			return err
		}
		parentID = ix.t.nodes[parentIdx].id
		ix.t.treeLock.RUnlock()
	}

	rdn := dn.RDN(entry.NDN)
	row := diskNode{parent: parentID, rdn: rdn, nrdn: rdn}
	if err := ix.db.Put(ctx, txn, idKey(entry.ID), row.marshal(), kv.NoOverwrite); err != nil {
		if errors.Is(err, kv.ErrExists) {
			return errors.Wrapf(dnindex.ErrExists, "id %d already present", entry.ID)
		}
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}

	txn.OnCommit(func() { ix.t.applyAdd(entry.ID, parentID, rdn) })
	return nil
}

// Delete removes id's row. Deleting a non-leaf entry succeeds here and
// orphans its children in the tree; refusing non-leaf deletes is the
// caller's responsibility (see dnindex.Index.Delete and SPEC_FULL.md §9).
func (ix *Index) Delete(ctx context.Context, txn *kv.Txn, pdn, dnStr string, id uint32) error {
	ix.t.treeLock.RLock()
	idx, _, err := ix.resolveToIdx(dnStr)
	if err != nil {
		ix.t.treeLock.RUnlock()
		return err
	}
	nID := ix.t.nodes[idx].id
	ix.t.treeLock.RUnlock()
	if nID != id {
		return errors.Wrapf(dnindex.ErrInvalid, "id mismatch for %q: have %d, want %d", dnStr, nID, id)
	}

	if err := ix.db.Del(ctx, txn, idKey(id)); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return errors.Wrapf(dnindex.ErrNotFound, "id %d not present", id)
		}
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}

	txn.OnCommit(func() { ix.t.applyDelete(id) })
	return nil
}

// ModRDN moves id from oldPDN/oldDN to newPDN under newRDN.
func (ix *Index) ModRDN(ctx context.Context, txn *kv.Txn, oldPDN, oldDN, newPDN, newRDN string, id uint32) error {
	ix.t.treeLock.RLock()
	idx, _, err := ix.resolveToIdx(oldDN)
	if err != nil {
		ix.t.treeLock.RUnlock()
		return err
	}
	nID := ix.t.nodes[idx].id
	if nID != id {
		ix.t.treeLock.RUnlock()
		return errors.Wrapf(dnindex.ErrInvalid, "id mismatch for %q: have %d, want %d", oldDN, nID, id)
	}

	newParentIdx, _, err := ix.resolveToIdx(newPDN)
	if err != nil {
		ix.t.treeLock.RUnlock()
		return err
	}
	newParentID := ix.t.nodes[newParentIdx].id
	ix.t.treeLock.RUnlock()

	row := diskNode{parent: newParentID, rdn: newRDN, nrdn: newRDN}
	if err := ix.db.Put(ctx, txn, idKey(id), row.marshal(), kv.PutDefault); err != nil {
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}

	txn.OnCommit(func() { ix.t.applyModRDN(id, newParentID, newRDN) })
	return nil
}

// applyAdd links a newly committed id into the tree. Called only from a
// txn's OnCommit hook, never speculatively.
func (t *tree) applyAdd(id uint32, parentID uint32, rdn string) {
	t.treeLock.Lock()
	defer t.treeLock.Unlock()

	n := &idNode{id: id, parent: noParent, rdn: rdn, nrdn: rdn}
	idx := t.alloc(n)
	t.byID[id] = idx

	if id == dnindex.RootID {
		t.root = idx
		return
	}
	parentIdx := t.byID[parentID]
	n.parent = parentIdx
	p := t.nodes[parentIdx]
	p.kidsLock.Lock()
	p.kids = insertSorted(p.kids, t.nodes, idx)
	p.kidsLock.Unlock()
}

func (t *tree) applyDelete(id uint32) {
	t.treeLock.Lock()
	defer t.treeLock.Unlock()

	idx, ok := t.byID[id]
	if !ok {
		return
	}
	n := t.nodes[idx]
	if n.parent != noParent {
		p := t.nodes[n.parent]
		p.kidsLock.Lock()
		p.kids = removeSorted(p.kids, t.nodes, n.nrdn)
		p.kidsLock.Unlock()
	} else if t.root == idx {
		t.root = noParent
	}
	delete(t.byID, id)

	n.kidsLock.RLock()
	orphaned := len(n.kids) > 0
	n.kidsLock.RUnlock()
	if orphaned {
		// n's children still carry parent==idx; reusing this slot would
		// graft them onto whatever unrelated node alloc() places here
		// next, so the slot stays retired rather than freed. The children
		// remain resolvable by ID (ReconstructDN) but unreachable from
		// root, matching the documented orphaning behavior.
		return
	}
	t.free(idx)
}

func (t *tree) applyModRDN(id uint32, newParentID uint32, newRDN string) {
	t.treeLock.Lock()
	defer t.treeLock.Unlock()

	idx, ok := t.byID[id]
	if !ok {
		return
	}
	n := t.nodes[idx]
	if n.parent != noParent {
		oldParent := t.nodes[n.parent]
		oldParent.kidsLock.Lock()
		oldParent.kids = removeSorted(oldParent.kids, t.nodes, n.nrdn)
		oldParent.kidsLock.Unlock()
	}
	n.rdn = newRDN
	n.nrdn = newRDN

	newParentIdx := t.byID[newParentID]
	n.parent = newParentIdx
	newParent := t.nodes[newParentIdx]
	newParent.kidsLock.Lock()
	newParent.kids = insertSorted(newParent.kids, t.nodes, idx)
	newParent.kidsLock.Unlock()
}
