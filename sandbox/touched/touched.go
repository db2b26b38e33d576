// Package touched records which arena ranges have ever been handed out.
//
// The allocator adds a range every time it returns memory to a caller. The
// record survives frees, so a test can tell memory that was never handed out
// apart from memory that was handed out and later released. Ranges are kept
// raw and coalesced on demand.
package touched

import "sort"

// defaultRangeCapacity is the pre-allocated capacity for recorded ranges.
const defaultRangeCapacity = 64

// Range is a span of arena offsets [Off, Off+Len).
type Range struct {
	Off int `json:"off"`
	Len int `json:"len"`
}

// End returns the exclusive end offset.
func (r Range) End() int { return r.Off + r.Len }

// Tracker accumulates handed-out ranges.
//
// NOT thread-safe. Only one goroutine should use it at a time.
type Tracker struct {
	ranges []Range
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{ranges: make([]Range, 0, defaultRangeCapacity)}
}

// Add records [off, off+length). Empty ranges are ignored.
func (t *Tracker) Add(off, length int) {
	if length <= 0 {
		return
	}
	t.ranges = append(t.ranges, Range{Off: off, Len: length})
}

// Ranges returns the recorded ranges sorted and merged where they overlap or touch.
func (t *Tracker) Ranges() []Range {
	return t.Coalesce(1)
}

// Coalesce widens every range to multiples of granule, then sorts and merges them.
// A granule of 16 groups ranges by hex-dump line.
func (t *Tracker) Coalesce(granule int) []Range {
	if len(t.ranges) == 0 {
		return nil
	}
	if granule < 1 {
		granule = 1
	}

	aligned := make([]Range, len(t.ranges))
	for i, r := range t.ranges {
		start := (r.Off / granule) * granule
		end := r.End()
		if end%granule != 0 {
			end = (end/granule + 1) * granule
		}
		aligned[i] = Range{Off: start, Len: end - start}
	}

	sort.Slice(aligned, func(i, j int) bool {
		return aligned[i].Off < aligned[j].Off
	})

	merged := make([]Range, 0, len(aligned))
	current := aligned[0]
	for _, next := range aligned[1:] {
		if next.Off <= current.End() {
			current.Len = max(current.End(), next.End()) - current.Off
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}

// Contains reports whether off was ever handed out.
func (t *Tracker) Contains(off int) bool {
	for _, r := range t.ranges {
		if off >= r.Off && off < r.End() {
			return true
		}
	}
	return false
}

// Total returns the number of distinct offsets ever handed out.
func (t *Tracker) Total() int {
	n := 0
	for _, r := range t.Ranges() {
		n += r.Len
	}
	return n
}
