package kv

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// TxState mirrors the teacher's tx.TxState: a transaction's lifecycle is
// Active -> Committed or Active -> Aborted, never reversed.
type TxState int

const (
	StateActive TxState = iota
	StateCommitted
	StateAborted
)

func (s TxState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type stagedWrite struct {
	value   []byte
	deleted bool
}

// Txn is a caller-held handle over a set of staged writes. Every public DN
// index operation takes one; mutations are only visible to other callers
// once Commit succeeds, and every OnCommit hook then fires in registration
// order — this is how the hierarchical variant defers its in-memory tree
// update until the KV row is truly durable, closing the tree-drift gap
// documented in SPEC_FULL.md §5/§9.
type Txn struct {
	id      uint64
	db      *MemDB
	baseSeq uint64

	mu       sync.Mutex
	state    TxState
	staged   map[string]*stagedWrite
	onCommit []func()
}

// ID returns the transaction's identifier, stable for its lifetime.
func (t *Txn) ID() uint64 { return t.id }

// State returns the transaction's current lifecycle state.
func (t *Txn) State() TxState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsActive reports whether the transaction can still accept writes.
func (t *Txn) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateActive
}

// OnCommit registers fn to run after this transaction commits successfully.
// Hooks never run if the transaction is rolled back. Panics if called after
// the transaction has already ended.
func (t *Txn) OnCommit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		panic("kv: OnCommit called on a non-active transaction")
	}
	t.onCommit = append(t.onCommit, fn)
}

// Commit applies every staged write atomically, after checking that no key
// this transaction touched was modified by another transaction that
// committed after this one began (a conservative write-write conflict
// check, grounded in the teacher's tx.TxManager.validateWriteSet).
func (t *Txn) Commit(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return errors.Wrap(ErrInvalid, "commit called on a non-active transaction")
	}
	staged := t.staged
	hooks := t.onCommit
	t.mu.Unlock()

	db := t.db
	db.mu.Lock()
	for k := range staged {
		if v, ok := db.version[k]; ok && v > t.baseSeq {
			db.mu.Unlock()
			t.mu.Lock()
			t.state = StateAborted
			t.mu.Unlock()
			return errors.Wrapf(ErrStorage, "write conflict on key %q", k)
		}
	}

	db.seq++
	seq := db.seq
	for k, w := range staged {
		if w.deleted {
			delete(db.data, k)
		} else {
			db.data[k] = w.value
		}
		db.version[k] = seq
	}
	db.mu.Unlock()

	t.mu.Lock()
	t.state = StateCommitted
	t.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	return nil
}

// Rollback discards every staged write; no commit hook ever runs.
func (t *Txn) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateActive {
		return errors.Wrap(ErrInvalid, "rollback called on a non-active transaction")
	}
	t.staged = nil
	t.onCommit = nil
	t.state = StateAborted
	return nil
}
