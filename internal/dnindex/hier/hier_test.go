package hier

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
)

const suffixDN = "dc=example,dc=com"

func newTestIndex(t *testing.T) (*Index, kv.DB) {
	t.Helper()
	db, err := kv.Open(kv.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ix, err := New(context.Background(), db, dn.NewSuffix(suffixDN), nil)
	require.NoError(t, err)
	return ix, db
}

func commit(t *testing.T, db kv.DB, fn func(ctx context.Context, txn *kv.Txn) error) {
	t.Helper()
	ctx := context.Background()
	txn, err := db.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, fn(ctx, txn))
	require.NoError(t, txn.Commit(ctx))
}

func addRoot(t *testing.T, ix *Index, db kv.DB) {
	t.Helper()
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, "", dnindex.Entry{NDN: suffixDN, ID: dnindex.RootID})
	})
}

func TestAddLookup(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})

	id, err := ix.Lookup(ctx, nil, peopleDN)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), id)

	one, err := ix.Descendants(ctx, nil, suffixDN, dnindex.One)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, one.Slice())

	sub, err := ix.Descendants(ctx, nil, suffixDN, dnindex.Subtree)
	require.NoError(t, err)
	assert.True(t, sub.IsAll())
}

func TestLookupMatched(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})

	id, matched, err := ix.LookupMatched(ctx, nil, "cn=alice,"+peopleDN)
	assert.ErrorIs(t, err, dnindex.ErrNotFound)
	assert.Equal(t, uint32(2), id)
	assert.Equal(t, peopleDN, matched)
}

func TestSubtreeEnumerationAndHasChildren(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=alice," + peopleDN, ID: 3})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=bob," + peopleDN, ID: 4})
	})

	one, err := ix.Descendants(ctx, nil, peopleDN, dnindex.One)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{3, 4}, one.Slice())

	sub, err := ix.Descendants(ctx, nil, peopleDN, dnindex.Subtree)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint32{3, 4}, sub.Slice())

	has, err := ix.HasChildren(ctx, nil, peopleDN)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = ix.HasChildren(ctx, nil, "cn=alice,"+peopleDN)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestDelete(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=alice," + peopleDN, ID: 3})
	})

	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Delete(ctx, txn, peopleDN, "cn=alice,"+peopleDN, 3)
	})

	_, err := ix.Lookup(ctx, nil, "cn=alice,"+peopleDN)
	assert.ErrorIs(t, err, dnindex.ErrNotFound)

	one, err := ix.Descendants(ctx, nil, peopleDN, dnindex.One)
	require.NoError(t, err)
	assert.Empty(t, one.Slice())
}

// TestDeleteOrphansChildren documents that the index itself does not refuse
// a non-leaf delete: the index never enforces that precondition (it is the
// caller's job), and the deleted entry's children simply become
// unreachable from root afterward.
func TestDeleteOrphansChildren(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=alice," + peopleDN, ID: 3})
	})

	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Delete(ctx, txn, suffixDN, peopleDN, 2)
	})

	_, err := ix.Lookup(ctx, nil, peopleDN)
	assert.ErrorIs(t, err, dnindex.ErrNotFound)

	_, err = ix.Lookup(ctx, nil, "cn=alice,"+peopleDN)
	assert.ErrorIs(t, err, dnindex.ErrNotFound)
}

func TestAddConflict(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=bob," + peopleDN, ID: 4})
	})

	txn, err := db.Begin(ctx)
	require.NoError(t, err)
	err = ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=carol," + peopleDN, ID: 4})
	assert.ErrorIs(t, err, dnindex.ErrExists)
	require.NoError(t, txn.Rollback(ctx))

	id, err := ix.Lookup(ctx, nil, "cn=bob,"+peopleDN)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), id)
}

func TestModRDN(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	peopleDN := "ou=people," + suffixDN

	addRoot(t, ix, db)
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=bob," + peopleDN, ID: 4})
	})

	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.ModRDN(ctx, txn, peopleDN, "cn=bob,"+peopleDN, suffixDN, "cn=bob", 4)
	})

	id, err := ix.Lookup(ctx, nil, "cn=bob,"+suffixDN)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), id)

	_, err = ix.Lookup(ctx, nil, "cn=bob,"+peopleDN)
	assert.ErrorIs(t, err, dnindex.ErrNotFound)

	one, err := ix.Descendants(ctx, nil, peopleDN, dnindex.One)
	require.NoError(t, err)
	assert.Empty(t, one.Slice())

	dnStr, err := ix.ReconstructDN(4)
	require.NoError(t, err)
	assert.Equal(t, "cn=bob,"+suffixDN, dnStr)
}

func TestLookupMatchedEmptyDN(t *testing.T) {
	ix, _ := newTestIndex(t)
	_, _, err := ix.LookupMatched(context.Background(), nil, "")
	assert.ErrorIs(t, err, dnindex.ErrNotFound)
}

func TestReconstructDNUnknownID(t *testing.T) {
	ix, db := newTestIndex(t)
	addRoot(t, ix, db)

	_, err := ix.ReconstructDN(999)
	assert.ErrorIs(t, err, dnindex.ErrNotFound)
}

func TestRebuildFromExistingStore(t *testing.T) {
	ctx := context.Background()
	db, err := kv.Open(kv.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	suffix := dn.NewSuffix(suffixDN)
	ix, err := New(ctx, db, suffix, nil)
	require.NoError(t, err)

	peopleDN := "ou=people," + suffixDN
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, "", dnindex.Entry{NDN: suffixDN, ID: dnindex.RootID})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: peopleDN, ID: 2})
	})
	commit(t, db, func(ctx context.Context, txn *kv.Txn) error {
		return ix.Add(ctx, txn, peopleDN, dnindex.Entry{NDN: "cn=alice," + peopleDN, ID: 3})
	})

	rebuilt, err := New(ctx, db, suffix, nil)
	require.NoError(t, err)

	id, err := rebuilt.Lookup(ctx, nil, "cn=alice,"+peopleDN)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), id)

	has, err := rebuilt.HasChildren(ctx, nil, suffixDN)
	require.NoError(t, err)
	assert.True(t, has)
}

// TestConcurrentAddLookupDelete drives Add, Lookup and Delete from many
// goroutines at once. Run with -race: resolveToIdx and its callers must
// hold treeLock for every t.nodes access, or append's reallocation of the
// backing array during a concurrent applyAdd races with a concurrent read.
func TestConcurrentAddLookupDelete(t *testing.T) {
	ix, db := newTestIndex(t)
	ctx := context.Background()
	addRoot(t, ix, db)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := uint32(w*perWorker+i) + 100
				childDN := fmt.Sprintf("cn=user%d,%s", id, suffixDN)

				require.NoError(t, commitErr(db, func(ctx context.Context, txn *kv.Txn) error {
					return ix.Add(ctx, txn, suffixDN, dnindex.Entry{NDN: childDN, ID: id})
				}))

				_, err := ix.Lookup(ctx, nil, childDN)
				require.NoError(t, err)

				_, err = ix.Descendants(ctx, nil, suffixDN, dnindex.One)
				require.NoError(t, err)

				has, err := ix.HasChildren(ctx, nil, suffixDN)
				require.NoError(t, err)
				assert.True(t, has)

				require.NoError(t, commitErr(db, func(ctx context.Context, txn *kv.Txn) error {
					return ix.Delete(ctx, txn, suffixDN, childDN, id)
				}))
			}
		}(w)
	}
	wg.Wait()

	one, err := ix.Descendants(ctx, nil, suffixDN, dnindex.One)
	require.NoError(t, err)
	assert.Empty(t, one.Slice())
}

func commitErr(db kv.DB, fn func(ctx context.Context, txn *kv.Txn) error) error {
	ctx := context.Background()
	txn, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, txn); err != nil {
		return err
	}
	return txn.Commit(ctx)
}
