// Package idl implements the ID list: a compact sorted multiset of entry
// IDs stored as a single KV value, backed by a roaring bitmap so dense
// populations compress to a run-length range rather than one word per ID.
// It is the concrete, swappable implementation of the IDL contract the DN
// index variants consume (InsertKey/DeleteKey/FetchKey), the same role the
// teacher's btree package plays for attribute indexing, adapted here from
// paged B+Tree leaves to an in-memory bitmap since a single IDL row is
// always read and rewritten as one KV value.
package idl

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/pkg/errors"
)

// IDL is a sorted set of IDs, or the special "all" sentinel meaning every
// ID in the backend.
type IDL struct {
	all bool
	bm  *roaring.Bitmap
}

// New returns an empty, non-all IDL.
func New() *IDL {
	return &IDL{bm: roaring.New()}
}

// All returns the sentinel IDL representing "every ID in the backend",
// used when a subtree query targets the configured suffix.
func All() *IDL {
	return &IDL{all: true, bm: roaring.New()}
}

// IsAll reports whether this IDL is the all-sentinel.
func (l *IDL) IsAll() bool { return l.all }

// Insert adds id to the set. Insertion is idempotent: inserting an id
// already present is a no-op, matching the original engine's IDL semantics.
func (l *IDL) Insert(id uint32) {
	if l.all {
		return
	}
	l.bm.Add(id)
}

// Delete removes id from the set. Deleting an id that is not present is an
// error the caller must treat as corruption (the index's own bookkeeping
// claimed the id belonged to this IDL).
func (l *IDL) Delete(id uint32) error {
	if l.all {
		return nil
	}
	if !l.bm.Contains(id) {
		return errors.Wrapf(ErrCorrupt, "delete of absent member %d", id)
	}
	l.bm.Remove(id)
	return nil
}

// Contains reports whether id is a member.
func (l *IDL) Contains(id uint32) bool {
	if l.all {
		return true
	}
	return l.bm.Contains(id)
}

// Len returns the number of members, or -1 for the all-sentinel (whose
// true cardinality is the backend's total entry count, which this package
// does not track).
func (l *IDL) Len() int {
	if l.all {
		return -1
	}
	return int(l.bm.GetCardinality())
}

// Slice returns the sorted member IDs. Returns nil for the all-sentinel.
func (l *IDL) Slice() []uint32 {
	if l.all {
		return nil
	}
	return l.bm.ToArray()
}

// First returns the smallest member and true, or (0, false) if empty or all.
func (l *IDL) First() (uint32, bool) {
	if l.all || l.bm.IsEmpty() {
		return 0, false
	}
	return l.bm.Minimum(), true
}

// Last returns the largest member and true, or (0, false) if empty or all.
func (l *IDL) Last() (uint32, bool) {
	if l.all || l.bm.IsEmpty() {
		return 0, false
	}
	return l.bm.Maximum(), true
}

// ErrCorrupt reports an IDL invariant violation (size mismatch on decode,
// delete of an absent member).
var ErrCorrupt = errors.New("idl: corrupt record")

// Marshal serializes the IDL for storage as a KV value. The all-sentinel
// serializes to a single marker byte; a populated IDL serializes as the
// roaring bitmap's portable format.
func (l *IDL) Marshal() ([]byte, error) {
	if l.all {
		return []byte{allMarker}, nil
	}
	buf, err := l.bm.ToBytes()
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return append([]byte{bitmapMarker}, buf...), nil
}

// Unmarshal decodes a KV value produced by Marshal.
func Unmarshal(data []byte) (*IDL, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrCorrupt, "empty IDL record")
	}
	switch data[0] {
	case allMarker:
		return All(), nil
	case bitmapMarker:
		bm := roaring.New()
		if err := bm.UnmarshalBinary(data[1:]); err != nil {
			return nil, errors.Wrap(ErrCorrupt, err.Error())
		}
		return &IDL{bm: bm}, nil
	default:
		return nil, errors.Wrapf(ErrCorrupt, "unknown IDL marker byte 0x%02x", data[0])
	}
}

const (
	bitmapMarker byte = 0x01
	allMarker    byte = 0xff
)
