// Package dnindex defines the public contract shared by the flat and
// hierarchical DN index implementations (internal/dnindex/flat and
// internal/dnindex/hier): add/delete/modrdn/lookup/lookup_matched/
// has_children/descendants, plus the error taxonomy both variants surface.
// Exactly one variant is constructed per deployment from configuration;
// callers (add/modify/delete/search operations in the surrounding backend)
// depend only on the Index interface, never on a concrete variant.
package dnindex

import (
	"context"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/dnidx/internal/idl"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
)

// NOID is the reserved sentinel meaning "absent" for an entry ID.
const NOID uint32 = 0

// RootID is the reserved ID of the backend's suffix entry.
const RootID uint32 = 1

// Scope selects which hierarchical relationship Descendants enumerates.
type Scope int

const (
	// One selects direct children only.
	One Scope = iota
	// Subtree selects every descendant, direct or indirect.
	Subtree
)

func (s Scope) String() string {
	switch s {
	case One:
		return "one"
	case Subtree:
		return "subtree"
	default:
		return "invalid"
	}
}

// Entry is the minimal slice of directory-entry state the index consumes:
// its normalized DN and its stable ID. The surrounding backend owns the
// full entry body; the index never sees it.
type Entry struct {
	NDN string
	ID  uint32
}

// Error taxonomy. Each is a distinct sentinel so callers branch with
// errors.Is; concrete variants wrap these with github.com/pkg/errors at
// the point of origin to attach call-site context.
var (
	// ErrExists: attempted Add for an already-mapped DN (flat) or ID (hier).
	ErrExists = errors.New("dnindex: already exists")
	// ErrNotFound: absent key/DN/ID.
	ErrNotFound = errors.New("dnindex: not found")
	// ErrCorrupt: an IDL row with wrong value length, a dangling parent at
	// hierarchical startup, or an IDL delete of an absent member.
	ErrCorrupt = errors.New("dnindex: corrupt state")
	// ErrStorage: any other failure propagated from the KV layer.
	ErrStorage = errors.New("dnindex: storage error")
	// ErrInvalid: caller passed NOID, an unnormalized DN, or an invalid
	// scope.
	ErrInvalid = errors.New("dnindex: invalid argument")
)

// Index is the capability set both variants implement.
type Index interface {
	// Add maps entry.NDN to entry.ID. pdn is the normalized parent DN, or
	// "" for a root (suffix) entry. Returns ErrExists if entry.NDN (flat)
	// or entry.ID (hier) is already mapped.
	Add(ctx context.Context, txn *kv.Txn, pdn string, entry Entry) error

	// Delete removes the mapping for (pdn, dn, id). Deleting a non-leaf
	// entry succeeds for its own row but — in the hierarchical variant —
	// leaves its children orphaned; refusing non-leaf deletes is the
	// caller's responsibility, not this index's (see SPEC_FULL.md §9).
	Delete(ctx context.Context, txn *kv.Txn, pdn, dn string, id uint32) error

	// ModRDN moves/renames id from (oldPDN, oldRDN) to (newPDN, newRDN).
	ModRDN(ctx context.Context, txn *kv.Txn, oldPDN, oldDN, newPDN, newRDN string, id uint32) error

	// Lookup returns the ID mapped to dn, or ErrNotFound.
	Lookup(ctx context.Context, txn *kv.Txn, dn string) (uint32, error)

	// LookupMatched returns the ID of the deepest existing ancestor of dn.
	// When dn itself resolves, its ID is returned with matchedDN = "" and a
	// nil error; when only a strict ancestor exists, that ancestor's ID and
	// DN are returned together with ErrNotFound; when no ancestor exists at
	// all, it returns (NOID, "", ErrNotFound).
	LookupMatched(ctx context.Context, txn *kv.Txn, dn string) (id uint32, matchedDN string, err error)

	// HasChildren reports whether dn has at least one direct child.
	HasChildren(ctx context.Context, txn *kv.Txn, dn string) (bool, error)

	// Descendants returns the IDs described by scope applied to dn. If scope
	// is Subtree and dn is the configured suffix, it returns the All
	// sentinel regardless of population.
	Descendants(ctx context.Context, txn *kv.Txn, dn string, scope Scope) (*idl.IDL, error)
}
