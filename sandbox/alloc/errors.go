package alloc

import "errors"

var (
	// ErrOutOfMemory indicates no free run can hold the request, or the request
	// exceeds the arena's usable capacity.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadAddress indicates an address/size pair that does not name a live block.
	ErrBadAddress = errors.New("alloc: address does not name a live block")

	// ErrBadSize indicates a negative size.
	ErrBadSize = errors.New("alloc: negative size")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("alloc: alignment must be a power of two")

	// ErrClosed indicates use of an allocator after Close.
	ErrClosed = errors.New("alloc: allocator closed")
)
