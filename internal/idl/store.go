package idl

import (
	"context"

	"github.com/pkg/errors"

	"github.com/KilimcininKorOglu/dnidx/internal/kv"
)

// InsertKey adds id to the IDL stored under key, creating the row if
// absent. Mirrors bdb_idl_insert_key: read-modify-write within txn.
func InsertKey(ctx context.Context, db kv.DB, txn *kv.Txn, key []byte, id uint32) error {
	list, err := fetchOrNew(ctx, db, txn, key)
	if err != nil {
		return err
	}
	list.Insert(id)
	return put(ctx, db, txn, key, list)
}

// DeleteKey removes id from the IDL stored under key, deleting the row
// itself once its last member is gone. Returns ErrCorrupt
// (via IDL.Delete) if id was not a member, or kv.ErrNotFound if the row
// itself does not exist — both cases the caller must treat as corruption
// per the shared contract (a dangling index entry pointing at a deleted
// posting list).
func DeleteKey(ctx context.Context, db kv.DB, txn *kv.Txn, key []byte, id uint32) error {
	raw, err := db.Get(ctx, txn, key)
	if err != nil {
		return err
	}
	list, err := Unmarshal(raw)
	if err != nil {
		return err
	}
	if err := list.Delete(id); err != nil {
		return err
	}
	if list.Len() == 0 {
		return db.Del(ctx, txn, key)
	}
	return put(ctx, db, txn, key, list)
}

// FetchKey returns the IDL stored under key, or an empty IDL if the row is
// absent (fetching a non-existent posting list is a normal "no matches"
// outcome, not an error, matching bdb_idl_fetch_key's NOTFOUND handling).
func FetchKey(ctx context.Context, db kv.DB, txn *kv.Txn, key []byte) (*IDL, error) {
	raw, err := db.Get(ctx, txn, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return New(), nil
		}
		return nil, err
	}
	return Unmarshal(raw)
}

func fetchOrNew(ctx context.Context, db kv.DB, txn *kv.Txn, key []byte) (*IDL, error) {
	raw, err := db.Get(ctx, txn, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return New(), nil
		}
		return nil, err
	}
	return Unmarshal(raw)
}

func put(ctx context.Context, db kv.DB, txn *kv.Txn, key []byte, list *IDL) error {
	buf, err := list.Marshal()
	if err != nil {
		return err
	}
	return db.Put(ctx, txn, key, buf, kv.PutDefault)
}
