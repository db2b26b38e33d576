package global

import "errors"

// ErrForeignSlice indicates a slice that does not view the adapter's arena.
var ErrForeignSlice = errors.New("global: slice not allocated from this adapter")
