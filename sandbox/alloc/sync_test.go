package alloc

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestSynchronizedConcurrent tests that many goroutines can share one
// allocator through Synchronized without corrupting it.
func TestSynchronizedConcurrent(t *testing.T) {
	ra := newTestAllocator(t)
	s := NewSynchronized(ra)

	const workers = 8
	const rounds = 200

	var g errgroup.Group
	for w := range workers {
		g.Go(func() error {
			want := bytes.Repeat([]byte{byte(w + 1)}, 16)
			for range rounds {
				addr, b, err := s.Alloc(16, 1)
				if err != nil {
					return err
				}
				copy(b, want)

				addr, b, err = s.Realloc(addr, 16, 32, 1)
				if err != nil {
					return err
				}
				// Moves leave the payload behind; only an in-place grow keeps it.
				copy(b, want)
				if !bytes.Equal(s.Bytes(addr, 16), want) {
					return fmt.Errorf("worker %d: block %d overwritten", w, addr)
				}
				if err := s.Free(addr, 32); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Empty(t, ra.Leaks())
	requireValid(t, ra)
	st := ra.Stats()
	assert.Equal(t, workers*rounds, st.AllocCalls)
	assert.Equal(t, workers*rounds, st.FreeCalls)
}

// TestSynchronizedDo tests multi-step sequences under the lock.
func TestSynchronizedDo(t *testing.T) {
	s := NewSynchronized(newTestAllocator(t))

	var first, second Addr
	err := s.Do(func(a Allocator) error {
		var err error
		if first, _, err = a.Alloc(4, 1); err != nil {
			return err
		}
		second, _, err = a.AllocZeroed(4, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, Addr(1), first)
	assert.Equal(t, Addr(5), second)
	assert.Len(t, s.Inner(), 8)
}
