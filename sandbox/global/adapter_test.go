package global

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsandbox/sandbox/alloc"
	"github.com/joshuapare/memsandbox/sandbox/arena"
)

func newTestAdapter(t *testing.T, opts ...Option) *Adapter {
	t.Helper()
	g := New(arena.FilledWith(0xAA), opts...)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

// TestAllocateFree tests the basic round trip through slices.
func TestAllocateFree(t *testing.T) {
	g := newTestAdapter(t)

	b := g.Allocate(10)
	require.Len(t, b, 10)
	assert.Equal(t, 10, cap(b))
	assert.Equal(t, []alloc.Block{{Addr: 1, Size: 10}}, g.Allocator().Leaks())

	g.Free(b)
	assert.Empty(t, g.Allocator().Leaks())
}

// TestAllocateZeroed tests that zeroed allocations hide earlier contents.
func TestAllocateZeroed(t *testing.T) {
	g := newTestAdapter(t)

	b := g.Allocate(8)
	copy(b, "dirtydat")
	g.Free(b)

	z := g.AllocateZeroed(8)
	assert.Equal(t, make([]byte, 8), z)
}

// TestAllocateOutOfMemory tests that failures return nil.
func TestAllocateOutOfMemory(t *testing.T) {
	g := newTestAdapter(t)

	assert.Nil(t, g.Allocate(arena.Size))
	assert.Nil(t, g.AllocateZeroed(arena.Size))
	assert.Equal(t, 2, g.Allocator().Stats().OutOfMemory)
}

// TestReallocateCopiesOnMove tests that the payload follows a moved block.
func TestReallocateCopiesOnMove(t *testing.T) {
	g := newTestAdapter(t)

	b := g.Allocate(4)
	copy(b, "abcd")
	blocker := g.Allocate(4)

	nb := g.Reallocate(8, b)
	require.Len(t, nb, 8)
	assert.Equal(t, []byte("abcd"), nb[:4])

	off, ok := g.Allocator().Arena().Offset(nb)
	require.True(t, ok)
	assert.Equal(t, 9, off)

	g.Free(blocker)
	g.Free(nb)
	assert.Empty(t, g.Allocator().Leaks())
}

// TestReallocateInPlace tests growth without a move.
func TestReallocateInPlace(t *testing.T) {
	g := newTestAdapter(t)

	b := g.Allocate(4)
	copy(b, "abcd")
	nb := g.Reallocate(16, b)
	require.Len(t, nb, 16)
	assert.Equal(t, []byte("abcd"), nb[:4])
	assert.Equal(t, 1, g.Allocator().Stats().ReallocInPlace)

	shrunk := g.Reallocate(2, nb)
	assert.Equal(t, []byte("ab"), shrunk)
	assert.Equal(t, []alloc.Block{{Addr: 1, Size: 2}}, g.Allocator().Leaks())
}

// TestReallocateOverOldBlock tests the copy when the new block overlaps the old.
func TestReallocateOverOldBlock(t *testing.T) {
	g := newTestAdapter(t)

	head := g.Allocate(100)
	b := g.Allocate(30000)
	for i := range b {
		b[i] = byte(i)
	}
	want := bytes.Clone(b)
	tail := g.Allocate(35000)
	require.NotNil(t, tail)
	g.Free(head)

	nb := g.Reallocate(30050, b)
	require.Len(t, nb, 30050)
	off, ok := g.Allocator().Arena().Offset(nb)
	require.True(t, ok)
	assert.Equal(t, 1, off)
	assert.Equal(t, want, nb[:30000])
}

// TestReallocateTooLarge tests that oversized requests fail and keep the block.
func TestReallocateTooLarge(t *testing.T) {
	g := newTestAdapter(t)
	b := g.Allocate(4)

	assert.Nil(t, g.Reallocate(math.MaxInt, b))
	assert.Equal(t, []alloc.Block{{Addr: 1, Size: 4}}, g.Allocator().Leaks())
}

// TestReallocateEmpty tests that reallocating an empty slice allocates.
func TestReallocateEmpty(t *testing.T) {
	g := newTestAdapter(t)

	b := g.Reallocate(5, nil)
	assert.Len(t, b, 5)
}

// TestForeignSlices tests that slices from other memory are refused.
func TestForeignSlices(t *testing.T) {
	g := newTestAdapter(t)
	foreign := make([]byte, 8)

	require.ErrorIs(t, g.Release(foreign), ErrForeignSlice)
	assert.Nil(t, g.Reallocate(16, foreign))
	assert.NotPanics(t, func() { g.Free(foreign) })
	assert.NoError(t, g.Release(nil))
}

// TestReleaseWrongLength tests that a resliced block is a contract violation.
func TestReleaseWrongLength(t *testing.T) {
	g := newTestAdapter(t)
	b := g.Allocate(8)

	require.ErrorIs(t, g.Release(b[:4]), alloc.ErrBadAddress)
	require.NoError(t, g.Release(b))
}

// TestCloseOnce tests that Close releases the allocator once.
func TestCloseOnce(t *testing.T) {
	g := New(arena.New())
	require.NotNil(t, g.Allocate(4))

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Nil(t, g.Allocate(4))
}

// TestWrap tests adopting an existing allocator with alignment.
func TestWrap(t *testing.T) {
	ra := alloc.NewRun(arena.New())
	g := Wrap(ra, WithAlign(16))
	defer g.Close()

	b := g.Allocate(3)
	off, ok := ra.Arena().Offset(b)
	require.True(t, ok)
	assert.Equal(t, 16, off)
}

// TestContext tests carrying the adapter in a context.
func TestContext(t *testing.T) {
	g := newTestAdapter(t)

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithAllocator(context.Background(), g)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, g, got)

	var m MemoryAllocator = got
	assert.Len(t, m.Allocate(2), 2)
}
