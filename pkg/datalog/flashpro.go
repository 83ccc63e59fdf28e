package datalog

import (
	"bytes"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/diag"
	"github.com/ssargent/ecudatalog/pkg/log"
	"github.com/ssargent/ecudatalog/pkg/opdl"
)

// FlashProLog is a FlashPro datalog document.
type FlashProLog struct {
	Header codec.FlashProHeader
	Frames *Collection[*FlashProFrame]
	Footer []byte

	compressed bool
	opts       options
}

// ReadFlashPro loads a FlashPro document from r. Both plain FPDL streams and
// OPDL containers are accepted.
func ReadFlashPro(r io.Reader, opts ...Option) (*FlashProLog, error) {
	o := newOptions(opts)
	id, raw, err := readIdentifier(r)
	if err != nil {
		return nil, err
	}
	if id.Family() != codec.FamilyFlashPro {
		return nil, errors.Wrapf(codec.ErrInvalidFormat, "identifier %q is not a flashpro datalog", id.String())
	}
	if !id.Compressed() {
		return readFlashPro(raw, r, o)
	}

	// the identifier bytes belong to the container header
	dr, err := opdl.NewDecompressReader(io.MultiReader(bytes.NewReader(raw), r), o.transcoderOptions()...)
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	cr := &countingReader{r: dr}
	inner, innerRaw, err := readIdentifier(cr)
	if err != nil {
		return nil, err
	}
	if inner.String() != codec.IdentFlashPro {
		return nil, errors.Wrapf(codec.ErrInvalidFormat, "container holds %q, want %q", inner.String(), codec.IdentFlashPro)
	}
	l, err := readFlashPro(innerRaw, cr, o)
	if err != nil {
		return nil, err
	}
	l.compressed = true

	if declared := int64(dr.PayloadSize()); declared != 0 && declared != cr.n {
		o.logger.Warn("container payload size mismatch",
			log.Int64("declared", declared), log.Int64("actual", cr.n))
	}
	return l, nil
}

func readFlashPro(id []byte, r io.Reader, o options) (*FlashProLog, error) {
	hdr, err := readHeader(id, r, codec.FlashProHeaderSize, "flashpro header")
	if err != nil {
		return nil, err
	}
	h, err := codec.DecodeFlashProHeader(hdr)
	if err != nil {
		return nil, err
	}

	l := &FlashProLog{Header: *h, opts: o}
	l.Frames = newCollection[*FlashProFrame](l, capacityHint(h.FrameCount))

	size := l.frameSize()
	for i := uint32(0); i < h.FrameCount; i++ {
		buf, err := codec.ReadRecord(r, size, "flashpro frame")
		if err != nil {
			return nil, recordError(err, "frame", i, h.FrameCount)
		}
		f, err := codec.DecodeFlashProFrame(buf)
		if err != nil {
			return nil, err
		}
		l.Frames.Add(NewFlashProFrame(*f))
	}

	if l.Footer, err = io.ReadAll(r); err != nil {
		return nil, err
	}

	o.logger.Debug("flashpro datalog loaded",
		log.Uint32("serial", h.Serial),
		log.Int("frames", l.Frames.Len()),
		log.Int("footer_bytes", len(l.Footer)))
	return l, nil
}

// StoichRatio returns the header's stoichiometric ratio, or the configured
// default when the header stores none.
func (l *FlashProLog) StoichRatio() float64 {
	return codec.StoichRatio(l.Header.Stoich, l.opts.stoich)
}

// FaultTable returns the table fault masks are decoded against.
func (l *FlashProLog) FaultTable() *diag.Table {
	return l.opts.table
}

// Compressed reports whether the document was loaded from an OPDL container.
func (l *FlashProLog) Compressed() bool {
	return l.compressed
}

func (l *FlashProLog) frameSize() int {
	return recordSize(l.Header.FrameSize, codec.FlashProFrameSize)
}

// Size returns the number of bytes WriteTo writes.
func (l *FlashProLog) Size() int64 {
	return int64(codec.FlashProHeaderSize) +
		int64(l.Frames.Len())*int64(l.frameSize()) +
		int64(len(l.Footer))
}

// WriteTo writes the plain FPDL form of the document. The identifier and
// frame count are recomputed and frames are renumbered.
func (l *FlashProLog) WriteTo(w io.Writer) (int64, error) {
	l.Header.Identifier = codec.MakeIdentifier(codec.IdentFlashPro)
	l.Header.FrameCount = uint32(l.Frames.Len())

	n, err := w.Write(l.Header.Encode())
	total := int64(n)
	if err != nil {
		return total, err
	}

	fn, err := l.Frames.save(w, l.frameSize())
	total += fn
	if err != nil {
		return total, err
	}

	n, err = w.Write(l.Footer)
	total += int64(n)
	return total, err
}

// WriteCompressed writes the document as an OPDL container and returns the
// number of container bytes written.
func (l *FlashProLog) WriteCompressed(w io.Writer) (int64, error) {
	size := l.Size()
	if size > opdl.MaxPayloadSize {
		return 0, errors.Wrapf(codec.ErrUnsupported, "document is %d bytes, container limit is %d", size, opdl.MaxPayloadSize)
	}

	cw, err := opdl.NewCompressWriter(w, l.opts.blockSize,
		l.opts.transcoderOptions(opdl.WithPayloadSize(uint32(size)))...)
	if err != nil {
		return 0, err
	}
	if _, err := l.WriteTo(cw); err != nil {
		return cw.Written(), err
	}
	if err := cw.Close(); err != nil {
		return cw.Written(), err
	}
	return cw.Written(), nil
}

// Save writes the document, compressed into an OPDL container when
// compressed is set.
func (l *FlashProLog) Save(w io.Writer, compressed bool) (int64, error) {
	if compressed {
		return l.WriteCompressed(w)
	}
	return l.WriteTo(w)
}

func (l *FlashProLog) Family() codec.Family { return codec.FamilyFlashPro }
func (l *FlashProLog) Version() codec.Version { return l.Header.Version }
func (l *FlashProLog) Serial() uint32 { return l.Header.Serial }
func (l *FlashProLog) FrameCount() int { return l.Frames.Len() }
func (l *FlashProLog) CommentCount() int { return 0 }
func (l *FlashProLog) Duration() time.Duration { return l.Frames.Duration() }

// ActiveFaults returns every fault code active in at least one frame, in
// table order.
func (l *FlashProLog) ActiveFaults() []diag.FaultCode {
	union := make(diag.Mask, codec.FlashProFaultBytes)
	for _, f := range l.Frames.items {
		orMask(union, f.FaultCodes[:])
	}
	return l.opts.table.Active(union).List()
}

// Samples returns up to limit frames starting at position from. A limit of
// zero or less returns every remaining frame.
func (l *FlashProLog) Samples(from, limit int) []Sample {
	lo, hi := window(l.Frames.Len(), from, limit)
	out := make([]Sample, 0, hi-lo)
	for i := lo; i < hi; i++ {
		f := l.Frames.At(i)
		out = append(out, newSample(i, f.Time(), f.Channels, f.Switches, f.AFR(), f.Faults()))
	}
	return out
}
