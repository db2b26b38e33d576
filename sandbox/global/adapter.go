package global

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joshuapare/memsandbox/sandbox/alloc"
	"github.com/joshuapare/memsandbox/sandbox/arena"
)

// MemoryAllocator is the slice-based allocator shape.
type MemoryAllocator interface {
	Allocate(size int) []byte
	Reallocate(size int, b []byte) []byte
	Free(b []byte)
}

// Adapter exposes a RunAllocator as a MemoryAllocator.
//
// Allocate and Reallocate return nil when the arena cannot satisfy the request;
// the failure is logged and counted in the allocator's Stats.
type Adapter struct {
	ra    *alloc.RunAllocator
	align int
	log   *slog.Logger

	once     sync.Once
	closeErr error
}

// New creates an Adapter owning a fresh RunAllocator over a.
func New(a *arena.Arena, opts ...Option) *Adapter {
	o := buildOptions(opts)
	var raOpts []alloc.Option
	if o.logger != nil {
		raOpts = append(raOpts, alloc.WithLogger(o.logger))
	}
	return newAdapter(alloc.NewRun(a, raOpts...), o)
}

// Wrap takes ownership of ra. The caller must not use ra after Close.
func Wrap(ra *alloc.RunAllocator, opts ...Option) *Adapter {
	return newAdapter(ra, buildOptions(opts))
}

func newAdapter(ra *alloc.RunAllocator, o options) *Adapter {
	l := o.logger
	if l == nil {
		l = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Adapter{ra: ra, align: o.align, log: l}
}

// Allocate returns size bytes from the arena, or nil when there is no room.
func (g *Adapter) Allocate(size int) []byte {
	_, b, err := g.ra.Alloc(size, g.align)
	if err != nil {
		g.log.Debug("allocate failed", "size", size, "err", err)
		return nil
	}
	return b
}

// AllocateZeroed is Allocate with the returned bytes cleared.
func (g *Adapter) AllocateZeroed(size int) []byte {
	_, b, err := g.ra.AllocZeroed(size, g.align)
	if err != nil {
		g.log.Debug("allocate zeroed failed", "size", size, "err", err)
		return nil
	}
	return b
}

// Reallocate resizes b to size bytes. When the block moves the common prefix is
// copied to the new location. On failure it returns nil and b stays allocated.
func (g *Adapter) Reallocate(size int, b []byte) []byte {
	if len(b) == 0 {
		return g.Allocate(size)
	}
	addr, err := g.addrOf(b)
	if err != nil {
		g.log.Warn("reallocate", "size", size, "err", err)
		return nil
	}
	newAddr, nb, err := g.ra.Realloc(addr, len(b), size, g.align)
	if err != nil {
		g.log.Debug("reallocate failed", "addr", addr, "old_size", len(b), "size", size, "err", err)
		return nil
	}
	if newAddr != addr {
		// The old bytes are still intact: either the block was not released yet
		// or the new block overlaps it, which copy handles.
		copy(nb, b[:min(len(b), size)])
	}
	return nb
}

// Free releases b. Empty slices are ignored; slices this adapter did not hand
// out are logged and ignored.
func (g *Adapter) Free(b []byte) {
	if err := g.Release(b); err != nil {
		g.log.Warn("free", "size", len(b), "err", err)
	}
}

// Release is Free with the error reported.
func (g *Adapter) Release(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr, err := g.addrOf(b)
	if err != nil {
		return err
	}
	return g.ra.Free(addr, len(b))
}

func (g *Adapter) addrOf(b []byte) (alloc.Addr, error) {
	off, ok := g.ra.Arena().Offset(b)
	if !ok {
		return alloc.NullAddr, fmt.Errorf("%d-byte slice: %w", len(b), ErrForeignSlice)
	}
	return alloc.Addr(off), nil
}

// Allocator returns the owned RunAllocator for inspection.
func (g *Adapter) Allocator() *alloc.RunAllocator { return g.ra }

// Close releases the owned allocator and its arena. Only the first call does
// anything; later calls return the first call's result.
func (g *Adapter) Close() error {
	g.once.Do(func() {
		if leaks := g.ra.Leaks(); len(leaks) > 0 {
			g.log.Warn("adapter closed with live blocks", "blocks", len(leaks))
		}
		g.closeErr = g.ra.Close()
	})
	return g.closeErr
}

type ctxKey struct{}

// WithAllocator returns a copy of ctx carrying g.
func WithAllocator(ctx context.Context, g *Adapter) context.Context {
	return context.WithValue(ctx, ctxKey{}, g)
}

// FromContext returns the Adapter stored by WithAllocator.
func FromContext(ctx context.Context) (*Adapter, bool) {
	g, ok := ctx.Value(ctxKey{}).(*Adapter)
	return g, ok && g != nil
}

// Compile-time interface check
var _ MemoryAllocator = (*Adapter)(nil)
