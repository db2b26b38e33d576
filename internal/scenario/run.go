package scenario

import (
	"fmt"

	"github.com/joshuapare/memsandbox/internal/buf"
	"github.com/joshuapare/memsandbox/sandbox/alloc"
	"github.com/joshuapare/memsandbox/sandbox/arena"
	"github.com/joshuapare/memsandbox/sandbox/runs"
	"github.com/joshuapare/memsandbox/sandbox/touched"
)

// Result is the outcome of one step.
type Result struct {
	Step  int        `json:"step"`
	Op    string     `json:"op"`
	Name  string     `json:"name,omitempty"`
	Addr  alloc.Addr `json:"addr"`
	Size  int        `json:"size"`
	Moved bool       `json:"moved,omitempty"`
	Err   string     `json:"error,omitempty"`
}

// Report is the state after a run.
type Report struct {
	Name    string          `json:"name"`
	Results []Result        `json:"results"`
	Runs    []runs.Run      `json:"free_runs"`
	Leaks   []alloc.Block   `json:"leaks"`
	Touched []touched.Range `json:"touched"`
	Stats   alloc.Stats     `json:"stats"`
	Failed  int             `json:"failed"`
	Mapped  bool            `json:"mapped"`

	// TouchedLines is Touched widened to 16-byte hex-dump rows.
	TouchedLines []touched.Range `json:"touched_lines"`

	// Inner is a copy of the allocator's Inner window.
	Inner []byte `json:"-"`
}

type block struct {
	addr alloc.Addr
	size int
}

type runner struct {
	a     alloc.Allocator
	ra    *alloc.RunAllocator
	names map[string]block
}

// Run executes the scenario on a fresh arena. Step failures are recorded in the
// report; in strict mode the first one also stops the run and is returned.
func (s *Scenario) Run(opts ...alloc.Option) (*Report, error) {
	ar, err := s.newArena()
	if err != nil {
		return nil, err
	}
	ra := alloc.NewRun(ar, opts...)
	defer ra.Close()

	r := &runner{ra: ra, a: ra, names: make(map[string]block)}
	if s.Allocator == AllocatorMustReplace {
		r.a = alloc.NewMustReplace(ra)
	}

	rep := &Report{Name: s.Name}
	var runErr error
	for i, st := range s.Steps {
		res, err := r.step(st)
		res.Step, res.Op, res.Name = i, st.Op, st.Name
		if err != nil {
			res.Err = err.Error()
			rep.Failed++
		}
		rep.Results = append(rep.Results, res)
		if err != nil && s.Strict {
			runErr = fmt.Errorf("step %d (%s %s): %w", i, st.Op, st.Name, err)
			break
		}
	}

	rep.Runs = ra.Runs()
	rep.Leaks = ra.Leaks()
	rep.Touched = ra.Touched()
	rep.TouchedLines = ra.TouchedLines(16)
	rep.Mapped = ar.Mapped()
	rep.Stats = ra.Stats()
	rep.Inner = append([]byte(nil), ra.Inner()...)
	return rep, runErr
}

func (s *Scenario) newArena() (*arena.Arena, error) {
	if s.Mapped {
		return arena.NewMapped(s.Poison)
	}
	return arena.FilledWith(s.Poison), nil
}

func (r *runner) step(st Step) (Result, error) {
	switch st.Op {
	case OpAlloc, OpAllocZeroed:
		call := r.a.Alloc
		if st.Op == OpAllocZeroed {
			call = r.a.AllocZeroed
		}
		addr, _, err := call(st.Size, st.Align)
		if err != nil {
			return Result{Size: st.Size}, err
		}
		if st.Name != "" {
			r.names[st.Name] = block{addr, st.Size}
		}
		return Result{Addr: addr, Size: st.Size}, expect(st, addr)

	case OpFree:
		b, ok := r.names[st.Name]
		if !ok {
			return Result{}, ErrUnknownName
		}
		if err := r.a.Free(b.addr, b.size); err != nil {
			return Result{Addr: b.addr, Size: b.size}, err
		}
		delete(r.names, st.Name)
		return Result{Addr: b.addr, Size: b.size}, nil

	case OpRealloc:
		b, ok := r.names[st.Name]
		if !ok {
			return Result{}, ErrUnknownName
		}
		addr, nb, err := r.a.Realloc(b.addr, b.size, st.Size, st.Align)
		if err != nil {
			return Result{Addr: b.addr, Size: b.size}, err
		}
		moved := addr != b.addr
		if moved && st.Keep {
			copy(nb, r.a.Bytes(b.addr, min(b.size, st.Size)))
		}
		r.names[st.Name] = block{addr, st.Size}
		return Result{Addr: addr, Size: st.Size, Moved: moved}, expect(st, addr)

	case OpWrite:
		b, ok := r.names[st.Name]
		if !ok {
			return Result{}, ErrUnknownName
		}
		dst := r.a.Bytes(b.addr, b.size)
		if st.Fill != nil {
			for i := range dst {
				dst[i] = *st.Fill
			}
			return Result{Addr: b.addr, Size: b.size}, nil
		}
		res := Result{Addr: b.addr, Size: b.size}
		if _, err := buf.CheckSpan(b.size, st.Offset, 0); err != nil {
			return res, fmt.Errorf("%w: %v", ErrWriteBounds, err)
		}
		at := dst[st.Offset:]
		switch {
		case st.U32 != nil:
			if !buf.PutU32LE(at, *st.U32) {
				return res, fmt.Errorf("%w: u32 at %d of %d", ErrWriteBounds, st.Offset, b.size)
			}
		case st.U64 != nil:
			if !buf.PutU64LE(at, *st.U64) {
				return res, fmt.Errorf("%w: u64 at %d of %d", ErrWriteBounds, st.Offset, b.size)
			}
		default:
			if len(st.Data) > len(at) {
				return res, fmt.Errorf("%w: %d bytes at %d of %d", ErrWriteBounds, len(st.Data), st.Offset, b.size)
			}
			copy(at, st.Data)
		}
		return res, nil
	}
	return Result{}, ErrUnknownOp
}

func expect(st Step, got alloc.Addr) error {
	if st.Expect == nil || alloc.Addr(*st.Expect) == got {
		return nil
	}
	return fmt.Errorf("%w: got %d, want %d", ErrExpectation, got, *st.Expect)
}
