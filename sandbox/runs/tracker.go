package runs

import (
	"fmt"

	"github.com/joshuapare/memsandbox/sandbox/arena"
)

// Run is a maximal contiguous span of free offsets.
type Run struct {
	Start int `json:"start"`
	Len   int `json:"len"`
}

// End returns the last offset of the run.
func (r Run) End() int { return r.Start + r.Len - 1 }

// Tracker owns the run-length-prefix counters for one arena.
type Tracker struct {
	rl []uint16
}

// New returns a tracker for a fresh arena: offsets 1..arena.MaxAlloc form one free run.
func New() *Tracker {
	rl := make([]uint16, arena.Size)
	for i := range rl {
		rl[i] = uint16(i)
	}
	return &Tracker{rl: rl}
}

// FindRun returns the start of the leftmost free run able to hold size bytes.
// A size of 0 resolves to the sentinel offset.
func (t *Tracker) FindRun(size int) (int, bool) {
	if size == 0 {
		return arena.Sentinel, true
	}
	if size < 0 || size > arena.MaxAlloc {
		return 0, false
	}
	want := uint16(size)
	for k := 1; k < len(t.rl); k++ {
		if t.rl[k] == want {
			return k - size + 1, true
		}
	}
	return 0, false
}

// FindAligned returns the lowest offset that is a multiple of align and starts size
// free bytes. For align <= 1 it is FindRun.
func (t *Tracker) FindAligned(size, align int) (int, bool) {
	if align <= 1 || size == 0 {
		return t.FindRun(size)
	}
	if size < 0 || size > arena.MaxAlloc {
		return 0, false
	}
	for s := align; s+size <= len(t.rl); s += align {
		c := t.rl[s]
		if c == 0 {
			continue
		}
		// Both ends are in the same run only if the counters are size-1 apart.
		e := t.rl[s+size-1]
		if e != 0 && int(e)-int(c) == size-1 {
			return s, true
		}
	}
	return 0, false
}

// MarkAllocated converts [start, start+n) from free to allocated.
//
// The block must lie inside a single free run. Whatever remained of that run
// after the block is rebased so it counts from 1 again; for a block taken from
// the front of a run this is the same as subtracting rl[start+n-1] from every
// tail counter.
func (t *Tracker) MarkAllocated(start, n int) {
	if n <= 0 {
		return
	}
	end := start + n
	clear(t.rl[start:end])
	t.renumber(end)
}

// MarkFree converts [start, start+n) back to free and merges it with the free runs
// on either side. start must be >= 1.
func (t *Tracker) MarkFree(start, n int) {
	if n <= 0 {
		return
	}
	p := t.rl[start-1]
	for j := range n {
		t.rl[start+j] = p + 1 + uint16(j)
	}
	t.renumber(start + n)
}

// renumber walks the free run beginning at from (if any) and recounts it from
// the counter just before it.
func (t *Tracker) renumber(from int) {
	for i := from; i < len(t.rl) && t.rl[i] != 0; i++ {
		t.rl[i] = t.rl[i-1] + 1
	}
}

// Counter returns the raw counter at off.
func (t *Tracker) Counter(off int) uint16 { return t.rl[off] }

// IsFree reports whether off is a free, non-sentinel offset.
func (t *Tracker) IsFree(off int) bool {
	return off > arena.Sentinel && off < len(t.rl) && t.rl[off] != 0
}

// RangeFree reports whether every offset in [start, start+n) is free.
func (t *Tracker) RangeFree(start, n int) bool {
	if n == 0 {
		return true
	}
	if start <= arena.Sentinel || start >= len(t.rl) || n < 0 || n > len(t.rl)-start {
		return false
	}
	// The end counter reaches back to its run start; the span is free when that
	// start is at or before start.
	return int(t.rl[start+n-1]) >= n
}

// RangeAllocated reports whether every offset in [start, start+n) is allocated.
func (t *Tracker) RangeAllocated(start, n int) bool {
	if start <= arena.Sentinel || start >= len(t.rl) || n < 0 || n > len(t.rl)-start {
		return false
	}
	for _, c := range t.rl[start : start+n] {
		if c != 0 {
			return false
		}
	}
	return true
}

// TrailingFree returns the length of the free run touching the end of the arena.
func (t *Tracker) TrailingFree() int { return int(t.rl[len(t.rl)-1]) }

// HighWater returns the offset one past the last allocated byte; bytes at or
// beyond it have not been allocated since the trailing run formed.
func (t *Tracker) HighWater() int { return len(t.rl) - t.TrailingFree() }

// Runs lists the free runs in increasing offset order.
func (t *Tracker) Runs() []Run {
	var out []Run
	for i := 1; i < len(t.rl); i++ {
		c := t.rl[i]
		if c == 0 {
			continue
		}
		if i+1 == len(t.rl) || t.rl[i+1] == 0 {
			out = append(out, Run{Start: i - int(c) + 1, Len: int(c)})
		}
	}
	return out
}

// FreeBytes returns the number of free offsets.
func (t *Tracker) FreeBytes() int {
	n := 0
	for _, c := range t.rl[1:] {
		if c != 0 {
			n++
		}
	}
	return n
}

// Largest returns the length of the longest free run.
func (t *Tracker) Largest() int {
	var m uint16
	for _, c := range t.rl {
		m = max(m, c)
	}
	return int(m)
}

// Validate checks the run-length invariant over the whole array.
func (t *Tracker) Validate() error {
	if len(t.rl) != arena.Size {
		return fmt.Errorf("%w: length %d, want %d", ErrCorrupt, len(t.rl), arena.Size)
	}
	if t.rl[0] != 0 {
		return fmt.Errorf("%w: sentinel counter %d", ErrCorrupt, t.rl[0])
	}
	for i := 1; i < len(t.rl); i++ {
		c := t.rl[i]
		if c != 0 && c != t.rl[i-1]+1 {
			return fmt.Errorf("%w: offset %d counter %d, want %d", ErrCorrupt, i, c, t.rl[i-1]+1)
		}
	}
	return nil
}

// Clone returns an independent copy of the tracker.
func (t *Tracker) Clone() *Tracker {
	rl := make([]uint16, len(t.rl))
	copy(rl, t.rl)
	return &Tracker{rl: rl}
}
