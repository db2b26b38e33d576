package rawvec

import "errors"

var (
	// ErrCapacityOverflow indicates capacity * element size does not fit in an int.
	ErrCapacityOverflow = errors.New("rawvec: capacity overflow")

	// ErrElemSize indicates a pushed element of the wrong width.
	ErrElemSize = errors.New("rawvec: element size mismatch")

	// ErrIndex indicates an index outside [0, Len).
	ErrIndex = errors.New("rawvec: index out of range")
)
