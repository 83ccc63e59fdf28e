package datalog

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/diag"
	"github.com/ssargent/ecudatalog/pkg/log"
)

// KProLog is a KPro datalog document.
type KProLog struct {
	Header   codec.KProHeader
	Frames   *Collection[*KProFrame]
	Comments *Collection[*Comment]
	Footer   []byte

	opts options
}

// ReadKPro loads a KPro document from r.
func ReadKPro(r io.Reader, opts ...Option) (*KProLog, error) {
	o := newOptions(opts)
	id, raw, err := readIdentifier(r)
	if err != nil {
		return nil, err
	}
	if id.Family() != codec.FamilyKPro {
		return nil, errors.Wrapf(codec.ErrInvalidFormat, "identifier %q is not a kpro datalog", id.String())
	}

	hdr, err := readHeader(raw, r, codec.KProHeaderSize, "kpro header")
	if err != nil {
		return nil, err
	}
	h, err := codec.DecodeKProHeader(hdr)
	if err != nil {
		return nil, err
	}

	l := &KProLog{Header: *h, opts: o}
	l.Frames = newCollection[*KProFrame](l, capacityHint(h.FrameCount))
	l.Comments = newCollection[*Comment](l, capacityHint(h.CommentCount))

	size := l.frameSize()
	for i := uint32(0); i < h.FrameCount; i++ {
		buf, err := codec.ReadRecord(r, size, "kpro frame")
		if err != nil {
			return nil, recordError(err, "frame", i, h.FrameCount)
		}
		f, err := codec.DecodeKProFrame(buf)
		if err != nil {
			return nil, err
		}
		l.Frames.Add(NewKProFrame(*f))
	}

	for i := uint32(0); i < h.CommentCount; i++ {
		c, err := codec.ReadComment(r)
		if err != nil {
			return nil, recordError(err, "comment", i, h.CommentCount)
		}
		l.Comments.Add(&Comment{Comment: *c})
	}

	if l.Footer, err = io.ReadAll(r); err != nil {
		return nil, err
	}

	o.logger.Debug("kpro datalog loaded",
		log.Uint32("serial", h.Serial),
		log.Int("frames", l.Frames.Len()),
		log.Int("comments", l.Comments.Len()),
		log.Int("footer_bytes", len(l.Footer)))
	return l, nil
}

// StoichRatio returns the header's stoichiometric ratio, or the configured
// default when the header stores none.
func (l *KProLog) StoichRatio() float64 {
	return codec.StoichRatio(l.Header.Stoich, l.opts.stoich)
}

// FaultTable returns the table fault masks are decoded against.
func (l *KProLog) FaultTable() *diag.Table {
	return l.opts.table
}

func (l *KProLog) frameSize() int {
	return recordSize(l.Header.FrameSize, codec.KProFrameSize)
}

// Size returns the number of bytes WriteTo writes.
func (l *KProLog) Size() int64 {
	size := int64(codec.KProHeaderSize) +
		int64(l.Frames.Len())*int64(l.frameSize()) +
		int64(len(l.Footer))
	for _, c := range l.Comments.items {
		size += int64(c.Size())
	}
	return size
}

// WriteTo writes the document. The identifier, frame count and comment count
// are recomputed and frames are renumbered.
func (l *KProLog) WriteTo(w io.Writer) (int64, error) {
	l.Header.Identifier = codec.MakeIdentifier(codec.IdentKPro)
	l.Header.FrameCount = uint32(l.Frames.Len())
	l.Header.CommentCount = uint32(l.Comments.Len())

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

	cn, err := l.Comments.save(w, 0)
	total += cn
	if err != nil {
		return total, err
	}

	n, err = w.Write(l.Footer)
	total += int64(n)
	return total, err
}

// Save writes the document. KPro logs have no compressed form.
func (l *KProLog) Save(w io.Writer, compressed bool) (int64, error) {
	if compressed {
		return 0, errors.Wrap(codec.ErrUnsupported, "kpro datalogs cannot be compressed")
	}
	return l.WriteTo(w)
}

func (l *KProLog) Family() codec.Family { return codec.FamilyKPro }
func (l *KProLog) Version() codec.Version { return l.Header.Version }
func (l *KProLog) Serial() uint32 { return l.Header.Serial }
func (l *KProLog) FrameCount() int { return l.Frames.Len() }
func (l *KProLog) CommentCount() int { return l.Comments.Len() }
func (l *KProLog) Compressed() bool { return false }

// Duration returns the later of the last frame and last comment offsets.
func (l *KProLog) Duration() time.Duration {
	d := l.Frames.Duration()
	if c := l.Comments.Duration(); c > d {
		d = c
	}
	return d
}

// ActiveFaults returns every fault code active in at least one frame, in
// table order.
func (l *KProLog) ActiveFaults() []diag.FaultCode {
	union := make(diag.Mask, codec.KProFaultBytes)
	for _, f := range l.Frames.items {
		orMask(union, f.FaultCodes[:])
	}
	return l.opts.table.Active(union).List()
}

// Samples returns up to limit frames starting at position from. A limit of
// zero or less returns every remaining frame.
func (l *KProLog) Samples(from, limit int) []Sample {
	lo, hi := window(l.Frames.Len(), from, limit)
	out := make([]Sample, 0, hi-lo)
	for i := lo; i < hi; i++ {
		f := l.Frames.At(i)
		s := newSample(i, f.Time(), f.Channels, f.Switches, f.AFR(), f.Faults())
		s.Readiness = f.Readiness()
		out = append(out, s)
	}
	return out
}
