package global

import "log/slog"

// Option configures an Adapter.
type Option func(*options)

type options struct {
	logger *slog.Logger
	align  int
}

// WithLogger routes adapter and allocator logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithAlign sets the alignment used for every allocation. The default is 1.
func WithAlign(align int) Option {
	return func(o *options) {
		o.align = align
	}
}

func buildOptions(opts []Option) options {
	o := options{align: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
