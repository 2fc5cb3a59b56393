package idl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertIsIdempotent(t *testing.T) {
	l := New()
	l.Insert(5)
	l.Insert(5)
	assert.Equal(t, []uint32{5}, l.Slice())
	assert.Equal(t, 1, l.Len())
}

func TestDeleteAbsentMemberIsCorrupt(t *testing.T) {
	l := New()
	l.Insert(1)
	err := l.Delete(2)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestAllSentinel(t *testing.T) {
	l := All()
	assert.True(t, l.IsAll())
	assert.True(t, l.Contains(12345))
	assert.Equal(t, -1, l.Len())
	l.Insert(7) // no-op on the sentinel
	assert.Nil(t, l.Slice())
}

func TestMarshalRoundTrip(t *testing.T) {
	l := New()
	l.Insert(3)
	l.Insert(1)
	l.Insert(2)

	buf, err := l.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, decoded.Slice())
}

func TestMarshalAllSentinelRoundTrip(t *testing.T) {
	buf, err := All().Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(buf)
	require.NoError(t, err)
	assert.True(t, decoded.IsAll())
}

func TestFirstLast(t *testing.T) {
	l := New()
	_, ok := l.First()
	assert.False(t, ok)

	l.Insert(10)
	l.Insert(3)
	l.Insert(7)

	first, ok := l.First()
	require.True(t, ok)
	assert.Equal(t, uint32(3), first)

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, uint32(10), last)
}
