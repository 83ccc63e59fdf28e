package datalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/diag"
)

// Document is the family-independent view of a loaded datalog.
type Document interface {
	io.WriterTo

	Family() codec.Family
	Version() codec.Version
	Serial() uint32
	FrameCount() int
	CommentCount() int
	Duration() time.Duration
	Compressed() bool
	StoichRatio() float64

	// Size is the number of bytes WriteTo writes.
	Size() int64
	Save(w io.Writer, compressed bool) (int64, error)
	ActiveFaults() []diag.FaultCode
	Samples(from, limit int) []Sample
}

var (
	_ Document = (*FlashProLog)(nil)
	_ Document = (*KProLog)(nil)
)

// Sample is a flattened, JSON friendly view of one frame.
type Sample struct {
	Index     int              `json:"index"`
	OffsetMS  float64          `json:"offset_ms"`
	AFR       float64          `json:"afr"`
	Channels  codec.Channels   `json:"channels"`
	Switches  codec.Switches   `json:"switches"`
	Faults    []string         `json:"faults,omitempty"`
	Readiness []diag.Readiness `json:"readiness,omitempty"`
}

func newSample(i int, at time.Duration, ch codec.Channels, sw codec.Switches, afr float64, faults diag.FaultSet) Sample {
	s := Sample{
		Index:    i,
		OffsetMS: float64(at) / float64(time.Millisecond),
		AFR:      afr,
		Channels: ch,
		Switches: sw,
	}
	for it := faults.Iterator(); it.Next(); {
		s.Faults = append(s.Faults, it.Entry().DTC)
	}
	return s
}

// Read sniffs the identifier and loads a document of the matching family.
func Read(r io.Reader, opts ...Option) (Document, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(codec.IdentifierSize)
	if err != nil && !isShort(err) {
		return nil, err
	}
	id, err := codec.ParseIdentifier(peek)
	if err != nil {
		return nil, err
	}

	switch id.Family() {
	case codec.FamilyKPro:
		return ReadKPro(br, opts...)
	default:
		return ReadFlashPro(br, opts...)
	}
}

// FileError reports a file that could not be parsed as a datalog.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("not a valid datalog file for %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Open loads the datalog at path, whichever family it is.
func Open(path string, opts ...Option) (Document, error) {
	return loadFile(path, func(r io.Reader) (Document, error) {
		return Read(r, opts...)
	})
}

// LoadFlashProFile loads a FlashPro datalog, plain or compressed, from path.
func LoadFlashProFile(path string, opts ...Option) (*FlashProLog, error) {
	doc, err := loadFile(path, func(r io.Reader) (Document, error) {
		return ReadFlashPro(r, opts...)
	})
	if err != nil {
		return nil, err
	}
	return doc.(*FlashProLog), nil
}

// LoadKProFile loads a KPro datalog from path.
func LoadKProFile(path string, opts ...Option) (*KProLog, error) {
	doc, err := loadFile(path, func(r io.Reader) (Document, error) {
		return ReadKPro(r, opts...)
	})
	if err != nil {
		return nil, err
	}
	return doc.(*KProLog), nil
}

// loadFile opens path and runs read over it. Format failures are wrapped in
// a FileError; transport failures are returned as they are.
func loadFile(path string, read func(io.Reader) (Document, error)) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := read(bufio.NewReader(f))
	if err != nil {
		if errors.Is(err, codec.ErrInvalidFormat) || errors.Is(err, codec.ErrMalformedRecord) {
			return nil, &FileError{Path: path, Err: err}
		}
		return nil, err
	}
	return doc, nil
}

// readIdentifier reads exactly the identifier field and nothing more.
func readIdentifier(r io.Reader) (codec.Identifier, []byte, error) {
	raw := make([]byte, codec.IdentifierSize)
	n, err := io.ReadFull(r, raw)
	if err != nil {
		if isShort(err) {
			_, perr := codec.ParseIdentifier(raw[:n])
			return codec.Identifier{}, nil, perr
		}
		return codec.Identifier{}, nil, err
	}
	id, err := codec.ParseIdentifier(raw)
	if err != nil {
		return codec.Identifier{}, nil, err
	}
	return id, raw, nil
}

// readHeader reads the rest of a fixed header whose identifier bytes have
// already been consumed.
func readHeader(id []byte, r io.Reader, size int, what string) ([]byte, error) {
	hdr := make([]byte, size)
	copy(hdr, id)
	if _, err := io.ReadFull(r, hdr[len(id):]); err != nil {
		if isShort(err) {
			return nil, errors.Wrapf(codec.ErrMalformedRecord, "stream ended inside %s", what)
		}
		return nil, err
	}
	return hdr, nil
}

// recordError places a malformed record within the file. Transport errors
// are returned unchanged.
func recordError(err error, what string, i, count uint32) error {
	if errors.Is(err, codec.ErrMalformedRecord) {
		return errors.WithMessagef(err, "%s %d of %d", what, i, count)
	}
	return err
}

func isShort(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

// recordSize is the declared record size, or the fixed layout size when the
// header leaves it unset.
func recordSize(declared uint32, fixed int) int {
	if declared == 0 {
		return fixed
	}
	return int(declared)
}

// capacityHint bounds preallocation so a corrupt count cannot force a huge
// allocation before any record is read.
func capacityHint(count uint32) int {
	const maxHint = 1 << 16
	if count > maxHint {
		return maxHint
	}
	return int(count)
}

func orMask(dst diag.Mask, src []byte) {
	for i := range src {
		dst[i] |= src[i]
	}
}

// window clamps [from, from+limit) to [0, n).
func window(n, from, limit int) (int, int) {
	if from < 0 {
		from = 0
	}
	if from > n {
		from = n
	}
	hi := n
	if limit > 0 && from+limit < n {
		hi = from + limit
	}
	return from, hi
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
