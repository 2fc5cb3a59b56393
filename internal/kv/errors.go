package kv

import "github.com/pkg/errors"

// ErrorKind classifies a failure from the store so callers can branch on
// category rather than on a specific wrapped message.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindExists
	KindCorrupt
	KindStorage
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindExists:
		return "exists"
	case KindCorrupt:
		return "corrupt"
	case KindStorage:
		return "storage"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Sentinel errors. Wrap with errors.Wrapf (github.com/pkg/errors) at the
// point of origin to attach call-site context; errors.Is still matches
// through the wrap because pkg/errors' wrapped types implement Unwrap.
var (
	ErrNotFound = errors.New("kv: not found")
	ErrExists   = errors.New("kv: key already exists")
	ErrCorrupt  = errors.New("kv: corrupt record")
	ErrStorage  = errors.New("kv: storage error")
	ErrInvalid  = errors.New("kv: invalid argument")
)

// Kind maps one of the sentinel errors (possibly wrapped) to its ErrorKind,
// defaulting to KindStorage for anything unrecognized.
func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrExists):
		return KindExists
	case errors.Is(err, ErrCorrupt):
		return KindCorrupt
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	default:
		return KindStorage
	}
}
