// Package global adapts a sandbox allocator to the slice-based allocator shape
// used by libraries that accept a pluggable memory manager:
//
//	Allocate(size int) []byte
//	Reallocate(size int, b []byte) []byte
//	Free(b []byte)
//
// An Adapter owns its RunAllocator exclusively and releases it exactly once on
// Close. There is no process-wide default; pass the Adapter explicitly or carry
// it in a context with WithAllocator.
//
// Adapter takes no locks. Code that installs one where several goroutines may
// call it must serialise access itself.
package global
