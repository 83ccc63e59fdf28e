package opdl

import (
	"github.com/ssargent/ecudatalog/pkg/log"
)

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	logger      log.Logger
	strict      bool
	payloadSize int64
}

func newOptions(opts []Option) options {
	o := options{
		logger:      log.NewNoopLogger(),
		strict:      true,
		payloadSize: -1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for trailer diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrictFooter controls what happens when no end-of-stream marker is
// found in the trailer window. Strict (the default) fails with
// ErrMarkerNotFound; lenient passes the raw trailer through unchanged and
// logs a warning.
func WithStrictFooter(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithPayloadSize sets the uncompressed payload size written into the
// container header.
func WithPayloadSize(size uint32) Option {
	return func(o *options) {
		o.payloadSize = int64(size)
	}
}
