package opdl

import (
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
)

// DefaultBlockSize is the bzip2 level used when none is configured.
const DefaultBlockSize = 5

// CompressWriter compresses plain datalog bytes with bzip2 and wraps the
// result in an OPDL container.
type CompressWriter struct {
	bz     *bzip2.Writer
	opdl   *Writer
	closed bool
}

// NewCompressWriter returns a CompressWriter writing a container to w.
// blockSize must be accepted by ValidBlockSize.
func NewCompressWriter(w io.Writer, blockSize int, opts ...Option) (*CompressWriter, error) {
	if !ValidBlockSize(blockSize) {
		return nil, errors.Wrapf(codec.ErrInvalidFormat, "block size %d outside %c..%c", blockSize, minBlockSize, maxBlockSize)
	}
	ow := NewWriter(w, opts...)
	bz, err := bzip2.NewWriter(ow, &bzip2.WriterConfig{Level: blockSize})
	if err != nil {
		return nil, err
	}
	return &CompressWriter{bz: bz, opdl: ow}, nil
}

// Write implements io.Writer.
func (c *CompressWriter) Write(p []byte) (int, error) {
	return c.bz.Write(p)
}

// SetPayloadSize forwards to Writer.SetPayloadSize.
func (c *CompressWriter) SetPayloadSize(size int64) error {
	return c.opdl.SetPayloadSize(size)
}

// Written returns the number of container bytes emitted so far.
func (c *CompressWriter) Written() int64 {
	return c.opdl.Written()
}

// Close flushes the compressor and the container trailer. The destination is
// left open.
func (c *CompressWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.bz.Close(); err != nil {
		return err
	}
	return c.opdl.Close()
}

// DecompressReader unwraps and decompresses an OPDL container.
type DecompressReader struct {
	opdl *Reader
	bz   *bzip2.Reader
}

// NewDecompressReader returns a reader of the plain datalog bytes inside the
// container read from r. The container header is read eagerly so format
// errors surface here.
func NewDecompressReader(r io.Reader, opts ...Option) (*DecompressReader, error) {
	or := NewReader(r, opts...)
	if _, err := or.PayloadSize(); err != nil {
		return nil, err
	}
	bz, err := bzip2.NewReader(or, nil)
	if err != nil {
		return nil, err
	}
	return &DecompressReader{opdl: or, bz: bz}, nil
}

// PayloadSize returns the uncompressed size declared by the container.
func (d *DecompressReader) PayloadSize() uint32 {
	size, _ := d.opdl.PayloadSize()
	return size
}

// Read implements io.Reader.
func (d *DecompressReader) Read(p []byte) (int, error) {
	return d.bz.Read(p)
}

// Close releases the decompressor. The source is left open.
func (d *DecompressReader) Close() error {
	return d.bz.Close()
}
