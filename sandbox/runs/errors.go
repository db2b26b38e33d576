package runs

import "errors"

// ErrCorrupt indicates the counters no longer satisfy the run-length invariant.
var ErrCorrupt = errors.New("runs: run-length invariant violated")
