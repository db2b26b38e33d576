package alloc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/joshuapare/memsandbox/sandbox/arena"
	"github.com/joshuapare/memsandbox/sandbox/runs"
	"github.com/joshuapare/memsandbox/sandbox/touched"
)

// RunAllocator binds one arena to one run-length tracker.
type RunAllocator struct {
	arena *arena.Arena
	runs  *runs.Tracker

	// live maps each allocated block's address to its size.
	live map[Addr]int

	// touched records every range ever handed out, freed or not.
	touched *touched.Tracker

	stats  Stats
	log    *slog.Logger
	closed bool
}

// NewRun creates an allocator that owns a.
func NewRun(a *arena.Arena, opts ...Option) *RunAllocator {
	o := buildOptions(opts)
	return &RunAllocator{
		arena:   a,
		runs:    runs.New(),
		live:    make(map[Addr]int),
		touched: touched.NewTracker(),
		log:     o.logger,
	}
}

// Alloc reserves size bytes from the leftmost free run able to hold them.
func (ra *RunAllocator) Alloc(size, align int) (Addr, []byte, error) {
	ra.stats.AllocCalls++
	addr, err := ra.place("alloc", size, align)
	if err != nil {
		return NullAddr, nil, err
	}
	return addr, ra.arena.Slice(int(addr), size), nil
}

// AllocZeroed is Alloc followed by zeroing the block, so leftover poison or
// bytes from an earlier owner never leak into the new one.
func (ra *RunAllocator) AllocZeroed(size, align int) (Addr, []byte, error) {
	addr, b, err := ra.Alloc(size, align)
	if err != nil {
		return NullAddr, nil, err
	}
	clear(b)
	return addr, b, nil
}

// Free releases the block at addr. size must match the allocation; freeing the
// sentinel with size 0 is a no-op.
func (ra *RunAllocator) Free(addr Addr, size int) error {
	ra.stats.FreeCalls++
	if err := ra.checkLive("free", addr, size); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	ra.release(addr, size)
	ra.log.Debug("free", "addr", addr, "size", size)
	return nil
}

// Realloc resizes the block at addr.
//
// Growth happens in place when the newSize-oldSize bytes right after the block
// are free; the address is unchanged and no bytes move. Shrinking frees the
// tail in place. Otherwise a new block is allocated first and the old one is
// released only once that succeeded. If no space exists without the old
// block, the old block is released and the search repeated; when that also
// fails the old block is restored and ErrOutOfMemory returned, so a failed
// Realloc never loses the caller's block.
func (ra *RunAllocator) Realloc(addr Addr, oldSize, newSize, align int) (Addr, []byte, error) {
	ra.stats.ReallocCalls++
	if err := ra.checkLive("realloc", addr, oldSize); err != nil {
		return addr, nil, err
	}
	if newSize < 0 {
		return addr, nil, fmt.Errorf("realloc %d bytes: %w", newSize, ErrBadSize)
	}
	if err := checkAlign(align); err != nil {
		return addr, nil, err
	}
	if newSize > arena.MaxAlloc {
		ra.outOfMemory("realloc", newSize, align)
		return addr, nil, fmt.Errorf("realloc %d -> %d bytes: %w", oldSize, newSize, ErrOutOfMemory)
	}

	if oldSize == 0 {
		newAddr, err := ra.place("realloc", newSize, align)
		if err != nil {
			return addr, nil, err
		}
		return newAddr, ra.arena.Slice(int(newAddr), newSize), nil
	}
	if newSize == 0 {
		ra.release(addr, oldSize)
		return NullAddr, ra.arena.Slice(arena.Sentinel, 0), nil
	}

	aligned := align <= 1 || int(addr)%align == 0
	if aligned {
		switch {
		case newSize == oldSize:
			return addr, ra.arena.Slice(int(addr), newSize), nil
		case newSize < oldSize:
			ra.runs.MarkFree(int(addr)+newSize, oldSize-newSize)
			ra.live[addr] = newSize
			ra.stats.LiveBytes -= oldSize - newSize
			ra.stats.ReallocInPlace++
			return addr, ra.arena.Slice(int(addr), newSize), nil
		}

		extra := newSize - oldSize
		tail := int(addr) + oldSize
		if ra.runs.RangeFree(tail, extra) {
			ra.runs.MarkAllocated(tail, extra)
			ra.live[addr] = newSize
			ra.touched.Add(tail, extra)
			ra.stats.LiveBytes += extra
			ra.stats.BytesAllocated += int64(extra)
			ra.stats.ReallocInPlace++
			ra.log.Debug("realloc in place", "addr", addr, "old_size", oldSize, "new_size", newSize)
			return addr, ra.arena.Slice(int(addr), newSize), nil
		}
	}

	newAddr, err := ra.move(addr, oldSize, newSize, align)
	if err != nil {
		return addr, nil, err
	}
	return newAddr, ra.arena.Slice(int(newAddr), newSize), nil
}

// move relocates a live block for Realloc.
func (ra *RunAllocator) move(addr Addr, oldSize, newSize, align int) (Addr, error) {
	if start, ok := ra.runs.FindAligned(newSize, align); ok {
		ra.claim(start, newSize)
		ra.release(addr, oldSize)
		ra.stats.ReallocMoved++
		ra.log.Debug("realloc moved", "from", addr, "to", start, "old_size", oldSize, "new_size", newSize)
		return Addr(start), nil
	}

	// Only room once the old block is released; the new block may overlap it.
	ra.runs.MarkFree(int(addr), oldSize)
	start, ok := ra.runs.FindAligned(newSize, align)
	if !ok {
		ra.runs.MarkAllocated(int(addr), oldSize)
		ra.outOfMemory("realloc", newSize, align)
		return addr, fmt.Errorf("realloc %d -> %d bytes: %w", oldSize, newSize, ErrOutOfMemory)
	}
	ra.forget(addr, oldSize)
	ra.claim(start, newSize)
	ra.stats.ReallocMoved++
	ra.log.Debug("realloc moved over old block", "from", addr, "to", start, "old_size", oldSize, "new_size", newSize)
	return Addr(start), nil
}

// place finds and claims a block of size bytes.
func (ra *RunAllocator) place(op string, size, align int) (Addr, error) {
	if ra.closed {
		return NullAddr, ErrClosed
	}
	if size < 0 {
		return NullAddr, fmt.Errorf("%s %d bytes: %w", op, size, ErrBadSize)
	}
	if err := checkAlign(align); err != nil {
		return NullAddr, err
	}
	if size == 0 {
		return NullAddr, nil
	}
	start, ok := ra.runs.FindAligned(size, align)
	if !ok {
		ra.outOfMemory(op, size, align)
		return NullAddr, fmt.Errorf("%s %d bytes: %w", op, size, ErrOutOfMemory)
	}
	ra.claim(start, size)
	ra.log.Debug(op, "addr", start, "size", size, "align", align)
	return Addr(start), nil
}

// claim marks [start, start+size) allocated and records it as live.
func (ra *RunAllocator) claim(start, size int) {
	ra.runs.MarkAllocated(start, size)
	ra.live[Addr(start)] = size
	ra.touched.Add(start, size)
	ra.stats.LiveBytes += size
	ra.stats.BytesAllocated += int64(size)
}

// release frees a live block.
func (ra *RunAllocator) release(addr Addr, size int) {
	ra.runs.MarkFree(int(addr), size)
	ra.forget(addr, size)
}

// forget drops a block from the ledger without touching the tracker.
func (ra *RunAllocator) forget(addr Addr, size int) {
	delete(ra.live, addr)
	ra.stats.LiveBytes -= size
}

// checkLive verifies addr/size names a live block (or the sentinel with size 0).
func (ra *RunAllocator) checkLive(op string, addr Addr, size int) error {
	if ra.closed {
		return ErrClosed
	}
	if addr == NullAddr && size == 0 {
		return nil
	}
	got, ok := ra.live[addr]
	if ok && got == size {
		return nil
	}
	ra.stats.ContractViolations++
	ra.log.Warn("caller contract violation", "op", op, "addr", addr, "size", size, "live", ok, "live_size", got)
	if !ok {
		return fmt.Errorf("%s addr %d size %d: %w", op, addr, size, ErrBadAddress)
	}
	return fmt.Errorf("%s addr %d size %d (allocated with %d): %w", op, addr, size, got, ErrBadAddress)
}

func (ra *RunAllocator) outOfMemory(op string, size, align int) {
	ra.stats.OutOfMemory++
	if ra.log.Enabled(context.Background(), slog.LevelDebug) {
		ra.log.Debug("out of memory", "op", op, "size", size, "align", align,
			"free", ra.runs.FreeBytes(), "largest", ra.runs.Largest())
	}
}

func checkAlign(align int) error {
	if align < 0 || (align > 1 && align&(align-1) != 0) {
		return fmt.Errorf("align %d: %w", align, ErrBadAlign)
	}
	return nil
}

// Inner returns the arena bytes from offset 1 through the last allocated byte.
// Bytes after it belong to the trailing free run and are omitted, so tests can
// compare written content without unrelated poison.
func (ra *RunAllocator) Inner() []byte {
	if ra.closed {
		return nil
	}
	return ra.arena.Bytes()[1:ra.runs.HighWater()]
}

// Bytes returns a view of [addr, addr+size), or nil when out of range.
func (ra *RunAllocator) Bytes(addr Addr, size int) []byte {
	if ra.closed {
		return nil
	}
	return ra.arena.Slice(int(addr), size)
}

// Arena returns the arena the allocator owns.
func (ra *RunAllocator) Arena() *arena.Arena { return ra.arena }

// Tracker returns the run-length tracker. Callers must not mutate it.
func (ra *RunAllocator) Tracker() *runs.Tracker { return ra.runs }

// Runs lists the free runs.
func (ra *RunAllocator) Runs() []runs.Run { return ra.runs.Runs() }

// Touched returns every range ever handed out, coalesced.
func (ra *RunAllocator) Touched() []touched.Range { return ra.touched.Ranges() }

// TouchedLines widens Touched to multiples of granule, e.g. 16 for hex-dump rows.
func (ra *RunAllocator) TouchedLines(granule int) []touched.Range {
	return ra.touched.Coalesce(granule)
}

// EverHandedOut reports whether addr was part of any block returned so far,
// freed or not.
func (ra *RunAllocator) EverHandedOut(addr Addr) bool {
	return ra.touched.Contains(int(addr))
}

// Leaks lists the blocks still live, by address.
func (ra *RunAllocator) Leaks() []Block {
	out := make([]Block, 0, len(ra.live))
	for addr, size := range ra.live {
		out = append(out, Block{Addr: addr, Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Stats returns a snapshot of the allocator counters.
func (ra *RunAllocator) Stats() Stats {
	s := ra.stats
	s.LiveBlocks = len(ra.live)
	s.TouchedBytes = ra.touched.Total()
	return s
}

// Close releases the arena. Live blocks are logged as leaks. Calling Close more
// than once is a no-op.
func (ra *RunAllocator) Close() error {
	if ra.closed {
		return nil
	}
	ra.closed = true
	if n := len(ra.live); n > 0 {
		ra.log.Warn("closing with live blocks", "blocks", n, "bytes", ra.stats.LiveBytes)
	}
	return ra.arena.Close()
}

// Compile-time interface check
var _ Allocator = (*RunAllocator)(nil)
