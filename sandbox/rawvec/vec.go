// Package rawvec is a growable array of fixed-width elements whose storage
// comes from a sandbox allocator. It exists to exercise allocators the way a
// real container does: grow by doubling through Realloc and follow the block
// when it moves.
package rawvec

import (
	"fmt"

	"github.com/joshuapare/memsandbox/internal/buf"
	"github.com/joshuapare/memsandbox/sandbox/alloc"
)

// DefaultCapacity is the capacity of the first allocation made by Double.
const DefaultCapacity = 4

// Vec holds elemSize-byte elements in one allocator block.
type Vec struct {
	a        alloc.Allocator
	elemSize int
	align    int

	addr alloc.Addr
	cap  int
	len  int
}

// New returns an empty Vec with no storage.
// elemSize is also used as the alignment when it is a power of two.
func New(a alloc.Allocator, elemSize int) *Vec {
	align := 1
	if elemSize > 0 && elemSize&(elemSize-1) == 0 {
		align = elemSize
	}
	return &Vec{a: a, elemSize: elemSize, align: align}
}

// WithCapacity returns a Vec with room for n elements.
func WithCapacity(a alloc.Allocator, elemSize, n int) (*Vec, error) {
	v := New(a, elemSize)
	size, err := v.bytesFor(n)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		v.cap = n
		return v, nil
	}
	addr, _, err := a.Alloc(size, v.align)
	if err != nil {
		return nil, fmt.Errorf("rawvec: allocate %d elements: %w", n, err)
	}
	v.addr, v.cap = addr, n
	return v, nil
}

func (v *Vec) bytesFor(n int) (int, error) {
	size, ok := buf.MulOverflowSafe(n, v.elemSize)
	if !ok {
		return 0, fmt.Errorf("%d elements of %d bytes: %w", n, v.elemSize, ErrCapacityOverflow)
	}
	return size, nil
}

// Cap returns the number of elements the current block holds.
func (v *Vec) Cap() int { return v.cap }

// Len returns the number of pushed elements.
func (v *Vec) Len() int { return v.len }

// Addr returns the address of the current block.
func (v *Vec) Addr() alloc.Addr { return v.addr }

// Double grows the capacity to DefaultCapacity, or twice the current one.
// When the allocator moves the block, the stored elements are copied over.
func (v *Vec) Double() error {
	if v.cap == 0 {
		size, err := v.bytesFor(DefaultCapacity)
		if err != nil {
			return err
		}
		addr, _, err := v.a.Alloc(size, v.align)
		if err != nil {
			return fmt.Errorf("rawvec: allocate: %w", err)
		}
		v.addr, v.cap = addr, DefaultCapacity
		return nil
	}

	newCap, ok := buf.MulOverflowSafe(v.cap, 2)
	if !ok {
		return fmt.Errorf("double %d: %w", v.cap, ErrCapacityOverflow)
	}
	oldSize, err := v.bytesFor(v.cap)
	if err != nil {
		return err
	}
	newSize, err := v.bytesFor(newCap)
	if err != nil {
		return err
	}

	addr, nb, err := v.a.Realloc(v.addr, oldSize, newSize, v.align)
	if err != nil {
		return fmt.Errorf("rawvec: grow to %d elements: %w", newCap, err)
	}
	if addr != v.addr {
		// The allocator left the old bytes in place.
		copy(nb, v.a.Bytes(v.addr, v.len*v.elemSize))
	}
	v.addr, v.cap = addr, newCap
	return nil
}

// Push appends one element, doubling first when full.
func (v *Vec) Push(elem []byte) error {
	if len(elem) != v.elemSize {
		return fmt.Errorf("push %d bytes into %d-byte elements: %w", len(elem), v.elemSize, ErrElemSize)
	}
	if v.len == v.cap {
		if err := v.Double(); err != nil {
			return err
		}
	}
	copy(v.a.Bytes(v.addr+alloc.Addr(v.len*v.elemSize), v.elemSize), elem)
	v.len++
	return nil
}

// At returns a view of element i.
func (v *Vec) At(i int) ([]byte, error) {
	if i < 0 || i >= v.len {
		return nil, fmt.Errorf("at %d of %d: %w", i, v.len, ErrIndex)
	}
	return v.a.Bytes(v.addr+alloc.Addr(i*v.elemSize), v.elemSize), nil
}

// Release frees the block. The Vec is empty afterwards and may be reused.
func (v *Vec) Release() error {
	size, err := v.bytesFor(v.cap)
	if err != nil {
		return err
	}
	if size > 0 {
		if err := v.a.Free(v.addr, size); err != nil {
			return fmt.Errorf("rawvec: release: %w", err)
		}
	}
	v.addr, v.cap, v.len = alloc.NullAddr, 0, 0
	return nil
}
