package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsandbox/sandbox/arena"
)

const testPoison = 0xAA

// newTestAllocator returns a RunAllocator over a poison-filled arena that is
// closed when the test ends.
func newTestAllocator(t testing.TB) *RunAllocator {
	t.Helper()
	ra := NewRun(arena.FilledWith(testPoison))
	t.Cleanup(func() { _ = ra.Close() })
	return ra
}

// mustAlloc allocates size bytes at byte granularity and checks the address.
func mustAlloc(t testing.TB, a Allocator, size int, want Addr) []byte {
	t.Helper()
	addr, b, err := a.Alloc(size, 1)
	require.NoError(t, err)
	require.Equal(t, want, addr, "alloc(%d)", size)
	require.Len(t, b, size)
	return b
}

// requireValid checks the tracker invariant.
func requireValid(t testing.TB, ra *RunAllocator) {
	t.Helper()
	require.NoError(t, ra.Tracker().Validate())
}
