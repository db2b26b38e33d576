package alloc

import (
	"fmt"

	"github.com/joshuapare/memsandbox/sandbox/arena"
)

// MustReplaceAllocator is a RunAllocator whose Realloc never resizes in place.
// Every resize allocates a new block before the old one is freed, so the
// returned address always differs from the old one. Containers that forget to
// follow a moved block show up immediately.
type MustReplaceAllocator struct {
	*RunAllocator
}

// NewMustReplace wraps ra. The wrapper and ra share state.
func NewMustReplace(ra *RunAllocator) *MustReplaceAllocator {
	return &MustReplaceAllocator{RunAllocator: ra}
}

// Realloc allocates newSize bytes, then frees the old block.
// A zero oldSize behaves as Alloc and a zero newSize as Free.
func (m *MustReplaceAllocator) Realloc(addr Addr, oldSize, newSize, align int) (Addr, []byte, error) {
	ra := m.RunAllocator
	ra.stats.ReallocCalls++
	if err := ra.checkLive("realloc", addr, oldSize); err != nil {
		return addr, nil, err
	}
	if newSize < 0 {
		return addr, nil, fmt.Errorf("realloc %d bytes: %w", newSize, ErrBadSize)
	}
	if newSize == 0 {
		if oldSize > 0 {
			ra.release(addr, oldSize)
		}
		return NullAddr, ra.arena.Slice(arena.Sentinel, 0), nil
	}

	newAddr, err := ra.place("realloc", newSize, align)
	if err != nil {
		return addr, nil, err
	}
	if oldSize > 0 {
		ra.release(addr, oldSize)
		ra.stats.ReallocMoved++
	}
	return newAddr, ra.arena.Slice(int(newAddr), newSize), nil
}

// Compile-time interface check
var _ Allocator = (*MustReplaceAllocator)(nil)
