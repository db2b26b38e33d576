package arena

import "errors"

// ErrOutOfRange indicates an access outside the arena's 0..Size-1 offsets.
var ErrOutOfRange = errors.New("arena: offset out of range")
