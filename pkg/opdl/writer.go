package opdl

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/log"
)

const streamHeaderSize = 4

// Writer wraps a standard bzip2 stream written to it into an OPDL container.
// Close must be called to emit the container trailer.
type Writer struct {
	dst  io.Writer
	opts options

	head       []byte // stream header bytes until validated
	headerDone bool
	headerPos  int64 // destination offset of the container header, -1 if unknown
	rewrite    bool  // payload size changed after the header was written

	hold    []byte // write-behind window, at most streamTrailerSize
	written int64
	closed  bool
	err     error
}

// NewWriter returns a Writer emitting a container to w. Without
// WithPayloadSize the header carries size 0 until SetPayloadSize is called.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	return &Writer{
		dst:       w,
		opts:      newOptions(opts),
		headerPos: -1,
		hold:      make([]byte, 0, streamTrailerSize),
	}
}

// SetPayloadSize records the uncompressed payload size. If the header has
// already been written it is rewritten on Close, which requires the
// destination to be an io.WriteSeeker.
func (w *Writer) SetPayloadSize(size int64) error {
	if err := checkPayloadSize(size); err != nil {
		return err
	}
	w.opts.payloadSize = size
	if w.headerDone {
		w.rewrite = true
	}
	return nil
}

// Written returns the number of container bytes written to the destination.
func (w *Writer) Written() int64 {
	return w.written
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.Wrap(codec.ErrUnsupported, "write to closed opdl writer")
	}
	if w.err != nil {
		return 0, w.err
	}

	total := len(p)
	if !w.headerDone {
		need := streamHeaderSize - len(w.head)
		if need > len(p) {
			need = len(p)
		}
		w.head = append(w.head, p[:need]...)
		p = p[need:]
		if len(w.head) < streamHeaderSize {
			return total, nil
		}
		if err := w.writeHeader(); err != nil {
			w.err = err
			return 0, err
		}
	}

	if err := w.push(p); err != nil {
		w.err = err
		return 0, err
	}
	return total, nil
}

// Close realigns the held-back stream trailer, writes the container trailer
// and, if needed, rewrites the header's size field. It does not close the
// destination.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	if !w.headerDone {
		w.err = errors.Wrapf(codec.ErrInvalidFormat, "stream ended after %d header bytes", len(w.head))
		return w.err
	}

	tail, offset, err := trailer(w.hold, streamTrailerSize, eosMarker, containerMarker)
	if err != nil {
		if !errors.Is(err, ErrMarkerNotFound) || w.opts.strict {
			w.err = err
			return err
		}
		w.opts.logger.Warn("end-of-stream marker not found, passing trailer through",
			log.String("direction", "encode"), log.Int("window", len(w.hold)))
		tail = w.hold
	} else {
		w.opts.logger.Debug("stream trailer realigned",
			log.String("direction", "encode"), log.Int("bit_offset", offset))
	}

	if err := w.forward(tail); err != nil {
		w.err = err
		return err
	}
	w.hold = w.hold[:0]

	if w.rewrite {
		if err := w.rewriteSize(); err != nil {
			w.err = err
			return err
		}
	}
	return nil
}

func (w *Writer) writeHeader() error {
	if err := validateStreamHeader(w.head); err != nil {
		return err
	}

	size := w.opts.payloadSize
	if size < 0 {
		size = 0
	}
	if err := checkPayloadSize(size); err != nil {
		return err
	}

	if ws, ok := w.dst.(io.Seeker); ok {
		if pos, err := ws.Seek(0, io.SeekCurrent); err == nil {
			w.headerPos = pos
		}
	}

	w.headerDone = true
	return w.forward(encodeHeader(uint32(size)))
}

// push appends p to the write-behind window, forwarding whatever no longer
// fits.
func (w *Writer) push(p []byte) error {
	if len(w.hold)+len(p) <= streamTrailerSize {
		w.hold = append(w.hold, p...)
		return nil
	}

	excess := len(w.hold) + len(p) - streamTrailerSize
	if excess <= len(w.hold) {
		if err := w.forward(w.hold[:excess]); err != nil {
			return err
		}
		w.hold = append(w.hold[:0], w.hold[excess:]...)
		w.hold = append(w.hold, p...)
		return nil
	}

	if err := w.forward(w.hold); err != nil {
		return err
	}
	k := excess - len(w.hold)
	if err := w.forward(p[:k]); err != nil {
		return err
	}
	w.hold = append(w.hold[:0], p[k:]...)
	return nil
}

func (w *Writer) forward(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	n, err := w.dst.Write(b)
	w.written += int64(n)
	return err
}

func (w *Writer) rewriteSize() error {
	ws, ok := w.dst.(io.WriteSeeker)
	if !ok || w.headerPos < 0 {
		return errors.Wrap(codec.ErrUnsupported, "payload size set after header on a non-seekable destination")
	}

	var field [4]byte
	binary.BigEndian.PutUint32(field[:], uint32(w.opts.payloadSize)&MaxPayloadSize)

	end, err := ws.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := ws.Seek(w.headerPos+sizeFieldOffset, io.SeekStart); err != nil {
		return err
	}
	if _, err := ws.Write(field[:]); err != nil {
		return err
	}
	_, err = ws.Seek(end, io.SeekStart)
	return err
}
