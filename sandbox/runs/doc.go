// Package runs implements the free-space tracker behind the sandbox allocators.
//
// # Encoding
//
// The tracker keeps one uint16 counter per arena offset and nothing else: no
// free lists, no trees. For an offset i:
//
//	allocated:  rl[i] == 0
//	free:       rl[i] == i - lo + 1   (lo = first offset of the free run holding i)
//
// Counters climb by exactly one across a free run and restart at 1 after an
// allocated byte. Offset 0 is the arena sentinel and always reads 0, so it
// behaves like an allocated byte at the left edge.
//
//	offset:  0  1  2  3  4  5  6  7  8
//	state:   S  F  F  A  A  F  F  F  A
//	rl:      0  1  2  0  0  1  2  3  0
//
// # Placement
//
// FindRun scans for the first counter equal to the requested size. Because
// counters grow by one inside a run, that counter sits size-1 bytes after the
// start of the leftmost run that is long enough, and the block is taken from
// the front of that run (first-fit-leftmost, not best-fit). The unused tail of
// the run stays reachable by later requests.
//
// FindAligned does the same for alignments above one, checking
// rl[s+size-1] - rl[s] == size-1 at each aligned candidate s.
//
// # Bookkeeping
//
// MarkAllocated zeroes the block and renumbers the tail of the run that
// followed it. MarkFree continues the predecessor's count (or starts at 1 when
// the predecessor is allocated) and renumbers the run that follows, merging
// all three into one run.
//
// # Thread Safety
//
// A Tracker is not safe for concurrent use. Callers must synchronize access
// externally.
package runs
