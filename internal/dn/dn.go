// Package dn provides Distinguished Name parsing, normalization, and
// hierarchy helpers shared by both DN index variants.
package dn

import "strings"

// Explode splits a DN into its RDN components in leaf-to-suffix (display)
// order, honoring backslash-escaped commas inside a component's value.
//
//	Explode("uid=alice,ou=users,dc=example,dc=com")
//	  -> ["uid=alice", "ou=users", "dc=example", "dc=com"]
func Explode(d string) []string {
	if d == "" {
		return nil
	}

	var components []string
	var current strings.Builder
	escaped := false

	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case escaped:
			current.WriteByte(c)
			escaped = false
		case c == '\\':
			current.WriteByte(c)
			escaped = true
		case c == ',':
			components = append(components, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		components = append(components, strings.TrimSpace(current.String()))
	}

	return components
}

// normalizeRDN lowercases the attribute type of a single RDN while leaving
// the value untouched, e.g. "UID=Alice" -> "uid=Alice".
func normalizeRDN(rdn string) string {
	idx := strings.Index(rdn, "=")
	if idx < 0 {
		return strings.ToLower(strings.TrimSpace(rdn))
	}
	attr := strings.ToLower(strings.TrimSpace(rdn[:idx]))
	val := strings.TrimSpace(rdn[idx+1:])
	return attr + "=" + val
}

// Normalize returns the normalized form of a DN: each RDN's attribute type
// lowercased, components rejoined in display order. The index never stores
// anything but normalized DNs; this helper exists for callers translating
// a user-supplied DN before calling into the index.
func Normalize(d string) string {
	parts := Explode(d)
	if len(parts) == 0 {
		return ""
	}
	for i, p := range parts {
		parts[i] = normalizeRDN(p)
	}
	return strings.Join(parts, ",")
}

// Join reassembles RDN components (leaf-first order) into a DN string.
func Join(components []string) string {
	return strings.Join(components, ",")
}

// Parent returns the DN of d's immediate parent, or "" if d has no parent
// (d is a single-RDN DN, i.e. a suffix).
func Parent(d string) string {
	parts := Explode(d)
	if len(parts) <= 1 {
		return ""
	}
	return Join(parts[1:])
}

// RDN returns d's leaf (first) RDN component.
func RDN(d string) string {
	parts := Explode(d)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// AncestorsOf yields each strict ancestor of ndn within the backend rooted
// at suffix, nearest first, including the suffix itself as the final
// element. Ancestors above the configured suffix do not exist in this
// backend and are never yielded. If ndn equals suffix, or ndn does not fall
// under suffix, the result is empty — mirroring the original engine's
// dn_subtree(), which is always computed relative to be_suffix rather than
// walking to the bare root.
func AncestorsOf(ndn string, suffix string) []string {
	if ndn == suffix || !IsDescendantOf(ndn, suffix) {
		return nil
	}
	parts := Explode(ndn)
	suffixDepth := Depth(suffix)
	if len(parts) <= suffixDepth {
		return nil
	}
	ancestors := make([]string, 0, len(parts)-suffixDepth)
	for i := 1; i <= len(parts)-suffixDepth; i++ {
		ancestors = append(ancestors, Join(parts[i:]))
	}
	return ancestors
}

// IsDescendantOf reports whether child is a (possibly indirect) descendant
// of parent under normalized comparison.
func IsDescendantOf(child, parent string) bool {
	if child == parent {
		return false
	}
	return strings.HasSuffix(child, ","+parent)
}

// IsDirectChildOf reports whether child's Parent equals parent exactly.
func IsDirectChildOf(child, parent string) bool {
	return Parent(child) == parent
}

// Depth returns the number of RDN components in d.
func Depth(d string) int {
	return len(Explode(d))
}

// Suffix represents the configured root DN of a backend and answers the
// is-suffix question the hierarchical and flat variants both special-case.
type Suffix struct {
	dn  string
	ndn string
}

// NewSuffix constructs a Suffix from its normalized form.
func NewSuffix(ndn string) Suffix {
	return Suffix{dn: ndn, ndn: ndn}
}

// String returns the suffix's normalized DN.
func (s Suffix) String() string { return s.ndn }

// IsSuffix reports whether dn equals the configured suffix exactly.
func (s Suffix) IsSuffix(d string) bool {
	return d == s.ndn
}

// RDNCount returns how many RDN components the suffix itself has; variant B
// uses this to compute how far below the suffix a queried DN sits.
func (s Suffix) RDNCount() int {
	return Depth(s.ndn)
}
