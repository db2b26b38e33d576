package alloc

import "github.com/joshuapare/memsandbox/sandbox/arena"

// Addr is an offset into the arena.
type Addr uint32

// NullAddr is the sentinel address returned for zero-byte requests.
const NullAddr Addr = arena.Sentinel

// Allocator is the surface consumed by data-structure tests.
//
// Implementations:
//   - RunAllocator: first-fit-leftmost over the run-length tracker
//   - MustReplaceAllocator: RunAllocator whose Realloc always moves
//   - Synchronized: mutex wrapper around another Allocator
type Allocator interface {
	// Alloc reserves size bytes and returns their address and a view of them.
	// align of 0 or 1 means byte granularity.
	Alloc(size, align int) (Addr, []byte, error)

	// AllocZeroed is Alloc followed by zeroing the block.
	AllocZeroed(size, align int) (Addr, []byte, error)

	// Free releases a block. size must equal the size it was allocated with.
	Free(addr Addr, size int) error

	// Realloc resizes a block, in place when possible. The returned view covers
	// newSize bytes. When the address changes the old bytes are left where they
	// were; copying them is the caller's job.
	Realloc(addr Addr, oldSize, newSize, align int) (Addr, []byte, error)

	// Inner returns the arena bytes from offset 1 through the last allocated byte.
	Inner() []byte

	// Bytes returns a view of [addr, addr+size).
	Bytes(addr Addr, size int) []byte
}

// Block is a live allocation.
type Block struct {
	Addr Addr `json:"addr"`
	Size int  `json:"size"`
}

// Stats holds allocator counters for tests and reports.
type Stats struct {
	AllocCalls         int   `json:"alloc_calls"`
	FreeCalls          int   `json:"free_calls"`
	ReallocCalls       int   `json:"realloc_calls"`
	ReallocInPlace     int   `json:"realloc_in_place"`
	ReallocMoved       int   `json:"realloc_moved"`
	OutOfMemory        int   `json:"out_of_memory"`
	ContractViolations int   `json:"contract_violations"`
	LiveBlocks         int   `json:"live_blocks"`
	LiveBytes          int   `json:"live_bytes"`
	BytesAllocated     int64 `json:"bytes_allocated"`

	// TouchedBytes counts distinct offsets ever handed out.
	TouchedBytes int `json:"touched_bytes"`
}
