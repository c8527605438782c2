package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bplang/bpc/internal/arena"
)

func TestAllocateAdvancesTop(t *testing.T) {
	a, err := arena.New(64, "test")
	require.NoError(t, err)

	off1, ok := a.Allocate(10)
	require.True(t, ok)
	require.Equal(t, 0, off1)
	require.Equal(t, 10, a.Top())

	off2, ok := a.Allocate(5)
	require.True(t, ok)
	require.Equal(t, 10, off2)
	require.Equal(t, 15, a.Top())
}

func TestAllocateFailsBeyondCapacity(t *testing.T) {
	a, err := arena.New(8, "test")
	require.NoError(t, err)

	_, ok := a.Allocate(16)
	require.False(t, ok)
	require.Equal(t, 0, a.Top(), "a failed allocation must not move top")
}

func TestAllocateRejectsNegativeLength(t *testing.T) {
	a, err := arena.New(8, "test")
	require.NoError(t, err)
	_, ok := a.Allocate(-1)
	require.False(t, ok)
}

func TestWriteAndSliceRoundTrip(t *testing.T) {
	a, err := arena.New(64, "test")
	require.NoError(t, err)

	off, ok := a.Write([]byte("hello"))
	require.True(t, ok)
	require.Equal(t, []byte("hello"), a.Slice(off, 5))
}

func TestInternNameAndStringRoundTrip(t *testing.T) {
	a, err := arena.New(64, "test")
	require.NoError(t, err)

	off, length, ok := a.InternName("my_fn")
	require.True(t, ok)
	require.Equal(t, "my_fn", a.String(off, length))
}

func TestSlicePanicsOutOfRange(t *testing.T) {
	a, err := arena.New(8, "test")
	require.NoError(t, err)
	require.Panics(t, func() { a.Slice(0, 100) })
}

func TestResetReclaimsTopNotContent(t *testing.T) {
	a, err := arena.New(64, "test")
	require.NoError(t, err)

	off, ok := a.Write([]byte("abc"))
	require.True(t, ok)
	a.Reset()
	require.Equal(t, 0, a.Top())

	// The next allocation reuses the offset; the underlying bytes are
	// still whatever was last written there until overwritten.
	off2, ok := a.Allocate(3)
	require.True(t, ok)
	require.Equal(t, off, off2)
	require.Equal(t, []byte("abc"), a.Slice(off2, 3))
}

func TestTableAppendAndGet(t *testing.T) {
	tbl := arena.NewTable[int]("ints", 2)
	idx0, ok := tbl.Append(10)
	require.True(t, ok)
	idx1, ok := tbl.Append(20)
	require.True(t, ok)
	require.Equal(t, uint32(0), idx0)
	require.Equal(t, uint32(1), idx1)
	require.Equal(t, 10, tbl.Get(idx0))
	require.Equal(t, 20, tbl.Get(idx1))
}

func TestTableAppendFailsAtCapacity(t *testing.T) {
	tbl := arena.NewTable[int]("ints", 1)
	_, ok := tbl.Append(1)
	require.True(t, ok)
	_, ok = tbl.Append(2)
	require.False(t, ok)
	require.Equal(t, 1, tbl.Len())
}

func TestTableSetOverwritesInPlace(t *testing.T) {
	tbl := arena.NewTable[string]("names", 4)
	idx, _ := tbl.Append("a")
	tbl.Set(idx, "b")
	require.Equal(t, "b", tbl.Get(idx))
}

func TestTableGetPanicsOutOfRange(t *testing.T) {
	tbl := arena.NewTable[int]("ints", 4)
	require.Panics(t, func() { tbl.Get(0) })
}

func TestTableResetEmptiesButKeepsCapacity(t *testing.T) {
	tbl := arena.NewTable[int]("ints", 4)
	tbl.Append(1)
	tbl.Append(2)
	tbl.Reset()
	require.Equal(t, 0, tbl.Len())
	require.Equal(t, 4, tbl.Cap())
	_, ok := tbl.Append(3)
	require.True(t, ok)
}
