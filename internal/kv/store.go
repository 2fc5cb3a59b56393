// Package kv provides the transactional key-value store contract consumed
// by the DN index variants: opaque byte-keyed put/get/del/cursor with a
// NoOverwrite flag, NotFound distinguished from other failures, and a
// caller-supplied transaction handle whose commit/rollback governs every
// side effect recorded through it.
//
// The DN index treats this package as an external collaborator — it never
// reaches past Put/Get/Del/Cursor/Begin — but the package itself ships one
// concrete, embedded implementation (MemDB) so the rest of the module has
// something real to run and test against, the way the teacher's storage
// engine ships a concrete PageManager behind its StorageEngine interface.
package kv

import (
	"context"
	"encoding/gob"
	"os"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// PutFlags modifies Put behavior.
type PutFlags uint8

const (
	// PutDefault overwrites any existing value for the key.
	PutDefault PutFlags = 0
	// NoOverwrite causes Put to fail with ErrExists if the key is already
	// present, mirroring the original DB_NOOVERWRITE flag.
	NoOverwrite PutFlags = 1 << 0
)

// Cursor walks a DB's keyspace in ascending byte order.
type Cursor interface {
	// Next advances the cursor and reports whether a row was produced.
	Next() (key, value []byte, ok bool)
	// Close releases resources held by the cursor.
	Close()
}

// DB is the transactional key-value store contract. A nil *Txn passed to
// Get/Cursor means "read the latest committed state without isolation from
// concurrent commits"; Put/Del require a non-nil, active *Txn.
type DB interface {
	Begin(ctx context.Context) (*Txn, error)
	Put(ctx context.Context, txn *Txn, key, value []byte, flags PutFlags) error
	Get(ctx context.Context, txn *Txn, key []byte) ([]byte, error)
	Del(ctx context.Context, txn *Txn, key []byte) error
	Cursor(ctx context.Context, txn *Txn) (Cursor, error)
	Close() error
}

// MemDB is an in-memory, optionally file-snapshotted DB implementation.
// Writes inside a transaction are staged locally and applied atomically at
// Commit, after which registered commit hooks run in registration order —
// this is what lets variant B defer its in-memory tree mutation until the
// KV row is truly durable (see internal/dnindex/hier).
type MemDB struct {
	mu       sync.RWMutex
	data     map[string][]byte
	version  map[string]uint64 // last commit sequence that touched a key
	seq      uint64
	nextTxID uint64

	snapshotPath string
	lock         *flock.Flock
}

// Options configures a MemDB.
type Options struct {
	// SnapshotPath, if non-empty, names a file MemDB loads from on Open (if
	// present) and writes to on Close/Flush, guarded by a sibling .lock
	// file so a second process cannot concurrently open the same data file.
	SnapshotPath string
}

// Open constructs a MemDB, acquiring an exclusive file lock on
// opts.SnapshotPath when one is given and loading any snapshot already
// there.
func Open(opts Options) (*MemDB, error) {
	db := &MemDB{
		data:    make(map[string][]byte),
		version: make(map[string]uint64),
	}

	if opts.SnapshotPath == "" {
		return db, nil
	}

	db.snapshotPath = opts.SnapshotPath
	db.lock = flock.New(opts.SnapshotPath + ".lock")
	locked, err := db.lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(ErrStorage, err.Error())
	}
	if !locked {
		return nil, errors.Wrap(ErrStorage, "store already locked by another process")
	}

	if err := db.load(); err != nil {
		_ = db.lock.Unlock()
		return nil, err
	}
	return db, nil
}

// load populates db.data from db.snapshotPath, if the file exists.
func (db *MemDB) load() error {
	f, err := os.Open(db.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(ErrStorage, err.Error())
	}
	defer f.Close()

	var data map[string][]byte
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return errors.Wrap(ErrCorrupt, err.Error())
	}
	db.data = data
	return nil
}

// Flush writes the current committed state to snapshotPath, atomically via
// a temp-file-plus-rename. A no-op when MemDB was opened without one.
func (db *MemDB) Flush() error {
	if db.snapshotPath == "" {
		return nil
	}
	db.mu.RLock()
	data := make(map[string][]byte, len(db.data))
	for k, v := range db.data {
		data[k] = v
	}
	db.mu.RUnlock()

	tmp := db.snapshotPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrap(ErrStorage, err.Error())
	}
	if err := gob.NewEncoder(f).Encode(data); err != nil {
		f.Close()
		return errors.Wrap(ErrStorage, err.Error())
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(ErrStorage, err.Error())
	}
	if err := os.Rename(tmp, db.snapshotPath); err != nil {
		return errors.Wrap(ErrStorage, err.Error())
	}
	return nil
}

// Close flushes the current state (if a snapshot path is configured) and
// releases the file lock.
func (db *MemDB) Close() error {
	if db.snapshotPath != "" {
		if err := db.Flush(); err != nil {
			return err
		}
	}
	if db.lock != nil {
		return db.lock.Unlock()
	}
	return nil
}

// Begin starts a new transaction.
func (db *MemDB) Begin(ctx context.Context) (*Txn, error) {
	db.mu.Lock()
	db.nextTxID++
	id := db.nextTxID
	baseSeq := db.seq
	db.mu.Unlock()

	return &Txn{
		id:      id,
		db:      db,
		state:   StateActive,
		baseSeq: baseSeq,
		staged:  make(map[string]*stagedWrite),
	}, nil
}

// Get reads key, preferring a txn's staged (uncommitted) writes over the
// committed state.
func (db *MemDB) Get(ctx context.Context, txn *Txn, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := string(key)

	if txn != nil {
		txn.mu.Lock()
		if w, ok := txn.staged[k]; ok {
			txn.mu.Unlock()
			if w.deleted {
				return nil, ErrNotFound
			}
			return append([]byte(nil), w.value...), nil
		}
		txn.mu.Unlock()
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	v, ok := db.data[k]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stages a write into txn, to be applied on Commit.
func (db *MemDB) Put(ctx context.Context, txn *Txn, key, value []byte, flags PutFlags) error {
	if txn == nil || !txn.IsActive() {
		return errors.Wrap(ErrInvalid, "put requires an active transaction")
	}
	k := string(key)

	if flags&NoOverwrite != 0 {
		if _, err := db.Get(ctx, txn, key); err == nil {
			return errors.Wrapf(ErrExists, "put %q", k)
		}
	}

	txn.mu.Lock()
	txn.staged[k] = &stagedWrite{value: append([]byte(nil), value...)}
	txn.mu.Unlock()
	return nil
}

// Del stages a delete into txn.
func (db *MemDB) Del(ctx context.Context, txn *Txn, key []byte) error {
	if txn == nil || !txn.IsActive() {
		return errors.Wrap(ErrInvalid, "del requires an active transaction")
	}
	if _, err := db.Get(ctx, txn, key); err != nil {
		return err
	}
	k := string(key)
	txn.mu.Lock()
	txn.staged[k] = &stagedWrite{deleted: true}
	txn.mu.Unlock()
	return nil
}

// Cursor returns a snapshot cursor over the committed keyspace overlaid
// with txn's staged writes, in ascending key order.
func (db *MemDB) Cursor(ctx context.Context, txn *Txn) (Cursor, error) {
	db.mu.RLock()
	merged := make(map[string][]byte, len(db.data))
	for k, v := range db.data {
		merged[k] = v
	}
	db.mu.RUnlock()

	if txn != nil {
		txn.mu.Lock()
		for k, w := range txn.staged {
			if w.deleted {
				delete(merged, k)
			} else {
				merged[k] = w.value
			}
		}
		txn.mu.Unlock()
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return &memCursor{keys: keys, values: merged}, nil
}

type memCursor struct {
	keys   []string
	values map[string][]byte
	pos    int
}

func (c *memCursor) Next() (key, value []byte, ok bool) {
	if c.pos >= len(c.keys) {
		return nil, nil, false
	}
	k := c.keys[c.pos]
	c.pos++
	return []byte(k), c.values[k], true
}

func (c *memCursor) Close() {}
