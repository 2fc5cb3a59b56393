// Package flat implements the Flat DN Index (variant A): per-DN rows in
// the KV store under three key prefixes (BASE, ONE, SUBTREE). It is a
// direct translation of back-bdb's non-BDB_HIER dn2id.c functions
// (bdb_dn2id_add, bdb_dn2id_delete, bdb_dn2id, bdb_dn2id_matched,
// bdb_dn2id_children, bdb_dn2idl) into the Go KV/IDL contracts in
// internal/kv and internal/idl. All synchronization is deferred to the KV
// store's transaction handle; this package holds no locks of its own.
package flat

import (
	"context"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
	"github.com/KilimcininKorOglu/dnidx/internal/idl"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
	"github.com/KilimcininKorOglu/dnidx/internal/logging"
)

// Key prefixes partition one physical KV keyspace into three logical
// tables, exactly as DN_BASE_PREFIX/DN_ONE_PREFIX/DN_SUBTREE_PREFIX do in
// the original engine.
const (
	prefixBase    byte = 0x01
	prefixOne     byte = 0x02
	prefixSubtree byte = 0x03
)

// Index is the Flat DN Index.
type Index struct {
	db     kv.DB
	suffix dn.Suffix
	log    *logging.Logger
}

// New constructs a flat Index backed by db, rooted at suffix.
func New(db kv.DB, suffix dn.Suffix, log *logging.Logger) *Index {
	if log == nil {
		log = logging.NewNop()
	}
	return &Index{db: db, suffix: suffix, log: log}
}

func key(prefix byte, ndn string) []byte {
	b := make([]byte, 0, 1+len(ndn)+1)
	b = append(b, prefix)
	b = append(b, ndn...)
	b = append(b, 0)
	return b
}

// Add implements dnindex.Index.
func (ix *Index) Add(ctx context.Context, txn *kv.Txn, pdn string, e dnindex.Entry) error {
	if e.ID == dnindex.NOID {
		return errors.Wrap(dnindex.ErrInvalid, "NOID entry")
	}
	if pdn == "" && !ix.suffix.IsSuffix(e.NDN) {
		// A root-less add that isn't the configured suffix would create a
		// second tree root; reject it explicitly per SPEC_FULL.md §9
		// (root.id = 1 is a convention the KV layer itself never enforces).
		return errors.Wrapf(dnindex.ErrInvalid, "root-less add of non-suffix DN %q", e.NDN)
	}
	if pdn == "" && e.ID != dnindex.RootID {
		return errors.Wrapf(dnindex.ErrInvalid, "suffix root must have id %d, got %d", dnindex.RootID, e.ID)
	}

	err := ix.db.Put(ctx, txn, key(prefixBase, e.NDN), encodeID(e.ID), kv.NoOverwrite)
	if err != nil {
		if errors.Is(err, kv.ErrExists) {
			return errors.Wrapf(dnindex.ErrExists, "add %q", e.NDN)
		}
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}

	if pdn != "" {
		if err := idl.InsertKey(ctx, ix.db, txn, key(prefixOne, pdn), e.ID); err != nil {
			return errors.Wrap(dnindex.ErrStorage, err.Error())
		}
	}

	for _, a := range dn.AncestorsOf(e.NDN, ix.suffix.String()) {
		if ix.suffix.IsSuffix(a) {
			continue
		}
		if err := idl.InsertKey(ctx, ix.db, txn, key(prefixSubtree, a), e.ID); err != nil {
			return errors.Wrap(dnindex.ErrStorage, err.Error())
		}
	}
	return nil
}

// Delete implements dnindex.Index.
func (ix *Index) Delete(ctx context.Context, txn *kv.Txn, pdn, dnStr string, id uint32) error {
	if err := ix.db.Del(ctx, txn, key(prefixBase, dnStr)); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return errors.Wrapf(dnindex.ErrNotFound, "delete %q", dnStr)
		}
		return errors.Wrap(dnindex.ErrStorage, err.Error())
	}

	if pdn != "" {
		if err := idl.DeleteKey(ctx, ix.db, txn, key(prefixOne, pdn), id); err != nil {
			return errors.Wrap(dnindex.ErrCorrupt, err.Error())
		}
	}

	for _, a := range dn.AncestorsOf(dnStr, ix.suffix.String()) {
		if ix.suffix.IsSuffix(a) {
			continue
		}
		if err := idl.DeleteKey(ctx, ix.db, txn, key(prefixSubtree, a), id); err != nil {
			return errors.Wrap(dnindex.ErrCorrupt, err.Error())
		}
	}
	return nil
}

// ModRDN implements dnindex.Index as delete-then-add of the three key
// prefixes under the new (pdn, dn) pair, within the caller's single txn —
// the flat variant has no cheaper rename path since every key embeds the
// full DN string.
func (ix *Index) ModRDN(ctx context.Context, txn *kv.Txn, oldPDN, oldDN, newPDN, newRDN string, id uint32) error {
	newDN := dn.Join(append([]string{newRDN}, dn.Explode(newPDN)...))
	if err := ix.Delete(ctx, txn, oldPDN, oldDN, id); err != nil {
		return err
	}
	return ix.Add(ctx, txn, newPDN, dnindex.Entry{NDN: newDN, ID: id})
}

// Lookup implements dnindex.Index.
func (ix *Index) Lookup(ctx context.Context, txn *kv.Txn, dnStr string) (uint32, error) {
	raw, err := ix.db.Get(ctx, txn, key(prefixBase, dnStr))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return dnindex.NOID, errors.Wrapf(dnindex.ErrNotFound, "lookup %q", dnStr)
		}
		return dnindex.NOID, errors.Wrap(dnindex.ErrStorage, err.Error())
	}
	return decodeID(ix.log, raw)
}

// LookupMatched implements dnindex.Index, walking ancestors on NOTFOUND
// exactly as bdb_dn2id_matched does.
func (ix *Index) LookupMatched(ctx context.Context, txn *kv.Txn, dnStr string) (uint32, string, error) {
	if dnStr == "" {
		return dnindex.NOID, "", errors.Wrap(dnindex.ErrNotFound, "empty DN")
	}

	walked := 0
	cur := dnStr
	for {
		raw, err := ix.db.Get(ctx, txn, key(prefixBase, cur))
		if err == nil {
			id, derr := decodeID(ix.log, raw)
			if derr != nil {
				return dnindex.NOID, "", derr
			}
			if walked == 0 {
				return id, "", nil
			}
			return id, cur, nil
		}
		if !errors.Is(err, kv.ErrNotFound) {
			return dnindex.NOID, "", errors.Wrap(dnindex.ErrStorage, err.Error())
		}

		parent := dn.Parent(cur)
		if parent == "" {
			return dnindex.NOID, "", errors.Wrap(dnindex.ErrNotFound, "no ancestor found")
		}
		cur = parent
		walked++
	}
}

// HasChildren implements dnindex.Index.
func (ix *Index) HasChildren(ctx context.Context, txn *kv.Txn, dnStr string) (bool, error) {
	_, err := ix.db.Get(ctx, txn, key(prefixOne, dnStr))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(dnindex.ErrStorage, err.Error())
	}
	return true, nil
}

// Descendants implements dnindex.Index.
func (ix *Index) Descendants(ctx context.Context, txn *kv.Txn, dnStr string, scope dnindex.Scope) (*idl.IDL, error) {
	if scope == dnindex.Subtree && ix.suffix.IsSuffix(dnStr) {
		return idl.All(), nil
	}

	var prefix byte
	switch scope {
	case dnindex.One:
		prefix = prefixOne
	case dnindex.Subtree:
		prefix = prefixSubtree
	default:
		return nil, errors.Wrap(dnindex.ErrInvalid, "unknown scope")
	}

	if _, err := ix.Lookup(ctx, txn, dnStr); err != nil {
		return nil, err
	}

	list, err := idl.FetchKey(ctx, ix.db, txn, key(prefix, dnStr))
	if err != nil {
		return nil, errors.Wrap(dnindex.ErrStorage, err.Error())
	}
	return list, nil
}

func encodeID(id uint32) []byte {
	return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
}

// decodeID mirrors bdb_dn2id_matched's size-mismatch handling: a value
// whose length isn't exactly 4 bytes is logged as an anomaly and the
// available bytes are used (zero-extended or truncated) rather than
// failing the call — the original logs and continues rather than
// returning a hard error, per SPEC_FULL.md §9's resolution of this open
// question.
func decodeID(log *logging.Logger, raw []byte) (uint32, error) {
	if len(raw) != 4 {
		log.Warn("dn2id value size mismatch", "expected", 4, "got", len(raw))
	}
	n := min(len(raw), 4)
	var b [4]byte
	copy(b[4-n:], raw[:n])
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}
