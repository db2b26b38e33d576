// Package arena provides the fixed 65535-byte address space the sandbox allocators
// hand out memory from.
//
// Offset 0 is a permanent sentinel: it is never allocated and zero-byte requests
// resolve to it. An arena is created filled with zero or with a caller-chosen
// poison byte so tests can tell untouched memory from memory that was zeroed on
// purpose.
package arena

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/joshuapare/memsandbox/internal/buf"
	"github.com/joshuapare/memsandbox/internal/mmap"
)

const (
	// Size is the number of addressable bytes, offsets 0..Size-1.
	Size = 65535

	// MaxAlloc is the largest single allocation (offset 0 excluded).
	MaxAlloc = Size - 1

	// Sentinel is the offset returned for zero-byte requests.
	Sentinel = 0
)

// Arena owns the byte buffer. It holds no allocation state.
type Arena struct {
	buf     []byte
	fill    byte
	release func() error
}

// New returns a zero-filled arena backed by the Go heap.
func New() *Arena {
	return FilledWith(0)
}

// FilledWith returns an arena whose every byte is initialised to poison.
func FilledWith(poison byte) *Arena {
	a := &Arena{buf: make([]byte, Size), fill: poison}
	if poison != 0 {
		a.fillAll()
	}
	return a
}

// NewMapped returns an arena backed by an anonymous memory mapping, filled with poison.
// The mapping is returned to the OS by Close.
func NewMapped(poison byte) (*Arena, error) {
	data, release, err := mmap.Anon(Size)
	if err != nil {
		return nil, fmt.Errorf("arena: %w", err)
	}
	a := &Arena{buf: data, fill: poison, release: release}
	if poison != 0 {
		a.fillAll()
	}
	return a, nil
}

func (a *Arena) fillAll() {
	for i := range a.buf {
		a.buf[i] = a.fill
	}
}

// Len returns the arena size, or 0 after Close.
func (a *Arena) Len() int { return len(a.buf) }

// Poison returns the byte the arena was initially filled with.
func (a *Arena) Poison() byte { return a.fill }

// Mapped reports whether the buffer lives in an anonymous mapping rather than the Go heap.
func (a *Arena) Mapped() bool { return a.release != nil && mmap.Mapped }

// Bytes exposes the whole buffer, sentinel included.
func (a *Arena) Bytes() []byte { return a.buf }

// Slice returns a view of [off, off+n). It returns nil when the span is out of range.
func (a *Arena) Slice(off, n int) []byte {
	b, ok := buf.Slice(a.buf, off, n)
	if !ok {
		return nil
	}
	return b[:n:n]
}

// ReadAt implements io.ReaderAt over the arena.
func (a *Arena) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(a.buf)) {
		return 0, fmt.Errorf("read at %d: %w", off, ErrOutOfRange)
	}
	n := copy(p, a.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writes that do not fit entirely are refused.
func (a *Arena) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(a.buf)) {
		return 0, fmt.Errorf("write at %d: %w", off, ErrOutOfRange)
	}
	if _, err := buf.CheckSpan(len(a.buf), int(off), len(p)); err != nil {
		return 0, fmt.Errorf("write at %d: %w: %v", off, ErrOutOfRange, err)
	}
	return copy(a.buf[off:], p), nil
}

// Fill sets every byte of [off, off+n) to b.
func (a *Arena) Fill(off, n int, b byte) error {
	end, err := buf.CheckSpan(len(a.buf), off, n)
	if err != nil {
		return fmt.Errorf("fill: %w: %v", ErrOutOfRange, err)
	}
	for i := off; i < end; i++ {
		a.buf[i] = b
	}
	return nil
}

// Zero clears [off, off+n).
func (a *Arena) Zero(off, n int) error {
	end, err := buf.CheckSpan(len(a.buf), off, n)
	if err != nil {
		return fmt.Errorf("zero: %w: %v", ErrOutOfRange, err)
	}
	clear(a.buf[off:end])
	return nil
}

// Untouched reports whether every byte of [off, off+n) still holds the poison byte.
// On a zero-filled arena this cannot distinguish untouched from zeroed memory.
func (a *Arena) Untouched(off, n int) bool {
	b, ok := buf.Slice(a.buf, off, n)
	if !ok {
		return false
	}
	for _, c := range b {
		if c != a.fill {
			return false
		}
	}
	return true
}

// Uint16At reads a little-endian uint16 at off.
func (a *Arena) Uint16At(off int) (uint16, error) {
	if !buf.Has(a.buf, off, 2) {
		return 0, fmt.Errorf("u16 at %d: %w", off, ErrOutOfRange)
	}
	return buf.U16LE(a.buf[off:]), nil
}

// Uint32At reads a little-endian uint32 at off.
func (a *Arena) Uint32At(off int) (uint32, error) {
	if !buf.Has(a.buf, off, 4) {
		return 0, fmt.Errorf("u32 at %d: %w", off, ErrOutOfRange)
	}
	return buf.U32LE(a.buf[off:]), nil
}

// Uint64At reads a little-endian uint64 at off.
func (a *Arena) Uint64At(off int) (uint64, error) {
	if !buf.Has(a.buf, off, 8) {
		return 0, fmt.Errorf("u64 at %d: %w", off, ErrOutOfRange)
	}
	return buf.U64LE(a.buf[off:]), nil
}

// Offset maps a slice that views this arena back to its starting offset.
// It reports false for slices backed by other memory.
func (a *Arena) Offset(p []byte) (int, bool) {
	if len(a.buf) == 0 || cap(p) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
	ptr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	if ptr < base || ptr >= base+uintptr(len(a.buf)) {
		return 0, false
	}
	off := int(ptr - base)
	if off+len(p) > len(a.buf) {
		return 0, false
	}
	return off, true
}

// Close releases a mapped backing buffer. Heap-backed arenas just drop their buffer.
// Calling Close more than once is a no-op.
func (a *Arena) Close() error {
	if a.buf == nil {
		return nil
	}
	a.buf = nil
	if a.release != nil {
		release := a.release
		a.release = nil
		return release()
	}
	return nil
}
