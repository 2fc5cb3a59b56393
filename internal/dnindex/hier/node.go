package hier

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
)

// diskNode is the on-disk value for each ID row: parent ID plus the RDN in
// display and normalized form. Serialized as
// parent:u32 | rdnLen:u32 | nrdnLen:u32 | rdnBytes | NUL | nrdnBytes | NUL
// per SPEC_FULL.md §4.3. This implementation carries only normalized DNs
// throughout (Entry.NDN has no separate display-case form), so rdn and
// nrdn are always equal here; the on-disk layout still reserves both
// fields so a caller with true display-case DNs can populate them
// differently without a format change.
type diskNode struct {
	parent uint32
	rdn    string
	nrdn   string
}

func (d diskNode) marshal() []byte {
	buf := make([]byte, 4+4+4+len(d.rdn)+1+len(d.nrdn)+1)
	binary.BigEndian.PutUint32(buf[0:4], d.parent)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(d.rdn)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(d.nrdn)))
	off := 12
	off += copy(buf[off:], d.rdn)
	buf[off] = 0
	off++
	off += copy(buf[off:], d.nrdn)
	buf[off] = 0
	return buf
}

func unmarshalDiskNode(buf []byte) (diskNode, error) {
	if len(buf) < 12 {
		return diskNode{}, errors.Wrap(dnindex.ErrCorrupt, "diskNode record too short")
	}
	parent := binary.BigEndian.Uint32(buf[0:4])
	rdnLen := binary.BigEndian.Uint32(buf[4:8])
	nrdnLen := binary.BigEndian.Uint32(buf[8:12])

	off := 12
	if off+int(rdnLen)+1+int(nrdnLen)+1 > len(buf) {
		return diskNode{}, errors.Wrap(dnindex.ErrCorrupt, "diskNode record length mismatch")
	}
	rdn := string(buf[off : off+int(rdnLen)])
	off += int(rdnLen) + 1 // skip NUL
	nrdn := string(buf[off : off+int(nrdnLen)])

	return diskNode{parent: parent, rdn: rdn, nrdn: nrdn}, nil
}

func encodeID(id uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], id)
	return b[:]
}

func decodeID(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, errors.Wrapf(dnindex.ErrCorrupt, "id key must be 4 bytes, got %d", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}
