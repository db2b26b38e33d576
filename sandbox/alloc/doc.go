// Package alloc provides the deterministic sandbox allocators.
//
// # Overview
//
// Every allocator here hands out addresses from one fixed 65535-byte arena
// (package arena) and decides placement with the run-length-prefix tracker
// (package runs). Placement is deterministic: the same sequence of calls always
// yields the same addresses, which is what makes the allocators useful as a test
// harness for code that manages its own memory.
//
// # Allocator Interface
//
//   - Alloc(size, align): leftmost free run that fits, taken from its front
//   - AllocZeroed(size, align): as Alloc, then zero the block
//   - Free(addr, size): release a block; size must match the allocation
//   - Realloc(addr, old, new, align): grow in place when the following bytes are
//     free, otherwise move (payload migration is the caller's job)
//   - Inner(): arena bytes from offset 1 up to the last allocated byte
//
// # Implementations
//
// RunAllocator: the allocator proper.
//
// MustReplaceAllocator: wraps a RunAllocator; Realloc always allocates a new
// block before freeing the old one, so the address always changes. Use it to
// catch code that keeps pointers across a resize.
//
// Synchronized: a mutex around any Allocator for embedders that share one
// across goroutines. The allocators themselves take no locks.
//
// # Addresses
//
// An Addr is an offset into the arena. NullAddr (offset 0) is the sentinel
// returned for zero-byte requests; it is never allocated.
//
// # Usage Example
//
//	ra := alloc.NewRun(arena.FilledWith(0xAA))
//	defer ra.Close()
//
//	addr, buf, err := ra.Alloc(16, 1)
//	if err != nil {
//	    return err
//	}
//	copy(buf, payload)
//
//	addr, buf, err = ra.Realloc(addr, 16, 32, 1)
//	...
//	err = ra.Free(addr, 32)
//
// # Contract Checking
//
// Each allocator keeps a ledger of live blocks. Free and Realloc with an
// address/size pair that does not match a live block return ErrBadAddress and
// leave the tracker untouched; Leaks lists blocks never freed.
//
// # Logging
//
// Allocators log through log/slog. Output is discarded unless a logger is
// supplied with WithLogger or MEMSANDBOX_LOG_ALLOC is set in the environment.
//
// # Thread Safety
//
// Allocator instances are not thread-safe. Wrap them with NewSynchronized or
// serialize access externally.
package alloc
