package opdl

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/log"
)

const readChunkSize = 4096

// Reader unwraps an OPDL container into a standard bzip2 stream.
type Reader struct {
	src  io.Reader
	opts options

	started bool
	size    uint32
	err     error // sticky; io.EOF once the trailer is queued

	pending []byte // bytes ready for the caller
	out     []byte // backing store for pending
	hold    []byte // look-ahead window, at most containerTrailerSize once flushed
	chunk   []byte
}

// NewReader returns a Reader decoding the container read from r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	return &Reader{
		src:  r,
		opts: newOptions(opts),
	}
}

// PayloadSize returns the uncompressed payload size declared by the
// container header, reading the header if needed.
func (r *Reader) PayloadSize() (uint32, error) {
	r.start()
	if r.err != nil && r.err != io.EOF {
		return 0, r.err
	}
	return r.size, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.start()
	for {
		if len(r.pending) > 0 {
			n := copy(p, r.pending)
			r.pending = r.pending[n:]
			return n, nil
		}
		if r.err != nil {
			return 0, r.err
		}
		r.fill()
	}
}

// Seek always fails: the synthesized stream is forward-only.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return 0, errors.Wrap(codec.ErrUnsupported, "opdl reader cannot seek")
}

func (r *Reader) start() {
	if r.started {
		return
	}
	r.started = true

	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r.src, hdr[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = errors.Wrap(codec.ErrInvalidFormat, "truncated container header")
		}
		r.err = err
		return
	}
	size, err := decodeHeader(hdr[:])
	if err != nil {
		r.err = err
		return
	}
	r.size = size
	r.chunk = make([]byte, readChunkSize)
	r.out = append(r.out[:0], 'B', 'Z', 'h', decodeBlockSize)
	r.pending = r.out
}

func (r *Reader) fill() {
	n, err := r.src.Read(r.chunk)
	if n > 0 {
		r.hold = append(r.hold, r.chunk[:n]...)
		if excess := len(r.hold) - containerTrailerSize; excess > 0 {
			r.out = append(r.out[:0], r.hold[:excess]...)
			r.pending = r.out
			r.hold = append(r.hold[:0], r.hold[excess:]...)
		}
	}

	switch {
	case err == io.EOF:
		r.finish()
	case err != nil:
		r.err = err
	}
}

func (r *Reader) finish() {
	tail, offset, err := trailer(r.hold, containerTrailerSize, containerMarker, eosMarker)
	if err != nil {
		if !errors.Is(err, ErrMarkerNotFound) || r.opts.strict {
			r.err = err
			return
		}
		r.opts.logger.Warn("end-of-stream marker not found, passing trailer through",
			log.String("direction", "decode"), log.Int("window", len(r.hold)))
		tail = append([]byte(nil), r.hold...)
	} else {
		r.opts.logger.Debug("stream trailer realigned",
			log.String("direction", "decode"), log.Int("bit_offset", offset))
	}

	// A source may deliver its last bytes together with io.EOF, so bytes
	// released by fill are still pending here.
	out := make([]byte, 0, len(r.pending)+len(tail))
	out = append(out, r.pending...)
	r.out = append(out, tail...)
	r.pending = r.out
	r.hold = r.hold[:0]
	r.err = io.EOF
}
