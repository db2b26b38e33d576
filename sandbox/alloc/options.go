package alloc

import (
	"io"
	"log/slog"
	"os"
)

// logAlloc enables allocation logging to stderr when MEMSANDBOX_LOG_ALLOC is set.
var logAlloc = os.Getenv("MEMSANDBOX_LOG_ALLOC") != ""

// Option configures an allocator.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger routes allocator logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = defaultLogger()
	}
	return o
}

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
