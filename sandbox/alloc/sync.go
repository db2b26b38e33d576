package alloc

import "sync"

// Synchronized serialises every call to the wrapped Allocator with a mutex.
// Allocators in this package hold no locks of their own; wrap one in
// Synchronized before sharing it between goroutines.
type Synchronized struct {
	mu sync.Mutex
	a  Allocator
}

// NewSynchronized wraps a.
func NewSynchronized(a Allocator) *Synchronized {
	return &Synchronized{a: a}
}

func (s *Synchronized) Alloc(size, align int) (Addr, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size, align)
}

func (s *Synchronized) AllocZeroed(size, align int) (Addr, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocZeroed(size, align)
}

func (s *Synchronized) Free(addr Addr, size int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Free(addr, size)
}

func (s *Synchronized) Realloc(addr Addr, oldSize, newSize, align int) (Addr, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Realloc(addr, oldSize, newSize, align)
}

// Inner returns the wrapped allocator's Inner. The slice aliases the arena and
// is not protected once returned.
func (s *Synchronized) Inner() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Inner()
}

func (s *Synchronized) Bytes(addr Addr, size int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Bytes(addr, size)
}

// Do runs fn with the lock held, for multi-step sequences that must not interleave.
func (s *Synchronized) Do(fn func(a Allocator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.a)
}

// Compile-time interface check
var _ Allocator = (*Synchronized)(nil)
