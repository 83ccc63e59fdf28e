package datalog

import (
	"github.com/ssargent/ecudatalog/pkg/diag"
	"github.com/ssargent/ecudatalog/pkg/log"
	"github.com/ssargent/ecudatalog/pkg/opdl"
)

// DefaultStoich is the gasoline stoichiometric ratio used when a header does
// not carry one.
const DefaultStoich = 14.7

// Option configures how a document is loaded and saved.
type Option func(*options)

type options struct {
	logger    log.Logger
	table     *diag.Table
	stoich    float64
	blockSize int
	transcode []opdl.Option
}

func newOptions(opts []Option) options {
	o := options{
		logger:    log.NewNoopLogger(),
		stoich:    DefaultStoich,
		blockSize: opdl.DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.table == nil {
		o.table = diag.DefaultTable()
	}
	return o
}

// WithLogger sets the logger used while loading and saving.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFaultTable decodes fault masks against table instead of the built-in
// table.
func WithFaultTable(table *diag.Table) Option {
	return func(o *options) {
		o.table = table
	}
}

// WithDefaultStoich sets the stoichiometric ratio used when the header
// stores none.
func WithDefaultStoich(ratio float64) Option {
	return func(o *options) {
		if ratio > 0 {
			o.stoich = ratio
		}
	}
}

// WithBlockSize sets the bzip2 level used for compressed saves.
func WithBlockSize(level int) Option {
	return func(o *options) {
		o.blockSize = level
	}
}

// WithTranscoderOptions passes options through to the OPDL reader and
// writer.
func WithTranscoderOptions(opts ...opdl.Option) Option {
	return func(o *options) {
		o.transcode = append(o.transcode, opts...)
	}
}

// transcoderOptions returns the OPDL options with the document logger
// applied first so an explicit WithLogger transcoder option still wins.
func (o options) transcoderOptions(extra ...opdl.Option) []opdl.Option {
	out := make([]opdl.Option, 0, len(o.transcode)+len(extra)+1)
	out = append(out, opdl.WithLogger(o.logger))
	out = append(out, o.transcode...)
	return append(out, extra...)
}
