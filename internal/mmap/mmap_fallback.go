//go:build !unix

// Package mmap provides anonymous memory mappings used to back arenas outside the Go heap.
package mmap

import "fmt"

// Anon allocates a heap slice when anonymous mappings are not available.
func Anon(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmap: invalid size %d", size)
	}
	return make([]byte, size), func() error { return nil }, nil
}

// Mapped reports whether Anon returns memory outside the Go heap on this platform.
const Mapped = false
