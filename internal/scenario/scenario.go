// Package scenario loads and runs scripted allocator sessions from YAML.
//
// A scenario names every block it allocates so later steps can free, resize
// or write to it:
//
//	name: reference
//	poison: 0xAA
//	steps:
//	  - {op: alloc, name: a, size: 10, expect: 1}
//	  - {op: alloc, name: b, size: 5, expect: 11}
//	  - {op: free, name: a}
package scenario

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Ops.
const (
	OpAlloc       = "alloc"
	OpAllocZeroed = "alloc_zeroed"
	OpFree        = "free"
	OpRealloc     = "realloc"
	OpWrite       = "write"
)

// Allocator kinds.
const (
	AllocatorRun         = "run"
	AllocatorMustReplace = "must-replace"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name string `yaml:"name"`

	// Poison is the byte the arena is filled with before the first step.
	Poison uint8 `yaml:"poison"`

	// Allocator is "run" (default) or "must-replace".
	Allocator string `yaml:"allocator"`

	// Mapped backs the arena with an anonymous memory mapping.
	Mapped bool `yaml:"mapped"`

	// Strict stops the run at the first failed step.
	Strict bool `yaml:"strict"`

	Steps []Step `yaml:"steps"`
}

// Step is one allocator call.
type Step struct {
	Op    string `yaml:"op"`
	Name  string `yaml:"name"`
	Size  int    `yaml:"size"`
	Align int    `yaml:"align"`

	// Expect, when set, is the address the step must return.
	Expect *uint32 `yaml:"expect"`

	// Keep copies the payload when a realloc moves the block.
	Keep bool `yaml:"keep"`

	// Data and Offset are used by write.
	Data   string `yaml:"data"`
	Offset int    `yaml:"offset"`

	// Fill, when set, makes write fill the whole block with one byte.
	Fill *uint8 `yaml:"fill"`

	// U32 and U64 write a little-endian integer at Offset instead of Data.
	U32 *uint32 `yaml:"u32"`
	U64 *uint64 `yaml:"u64"`
}

// Load parses a scenario and validates it. Unknown fields are rejected.
func Load(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads a scenario from path.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	defer f.Close()

	s, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Validate checks ops, allocator kind, and that every name is allocated before
// it is used and not used after it is freed.
func (s *Scenario) Validate() error {
	switch s.Allocator {
	case "", AllocatorRun, AllocatorMustReplace:
	default:
		return fmt.Errorf("%q: %w", s.Allocator, ErrUnknownAllocator)
	}

	live := make(map[string]bool)
	for i, st := range s.Steps {
		switch st.Op {
		case OpAlloc, OpAllocZeroed:
			if st.Name != "" && live[st.Name] {
				return fmt.Errorf("step %d: %s %q: name already live", i, st.Op, st.Name)
			}
			if st.Name != "" {
				live[st.Name] = true
			}
		case OpFree:
			if !live[st.Name] {
				return fmt.Errorf("step %d: free %q: %w", i, st.Name, ErrUnknownName)
			}
			delete(live, st.Name)
		case OpRealloc, OpWrite:
			if !live[st.Name] {
				return fmt.Errorf("step %d: %s %q: %w", i, st.Op, st.Name, ErrUnknownName)
			}
		default:
			return fmt.Errorf("step %d: %q: %w", i, st.Op, ErrUnknownOp)
		}
	}
	return nil
}
