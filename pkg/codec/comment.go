package codec

import (
	"encoding/binary"
	"io"
	"math"
	"time"

	"github.com/pkg/errors"
)

// CommentHeaderSize is the fixed prefix of a comment record.
const CommentHeaderSize = 6

// MaxCommentLength is the longest text a comment record can carry.
const MaxCommentLength = math.MaxUint16

// Comment is a KPro time-tagged text annotation.
//
// Layout:
//
//	[Offset s float32(4)][Length(2)][Text(Length)]
type Comment struct {
	Offset float32
	Text   string
}

// Time returns the comment offset as a duration.
func (c *Comment) Time() time.Duration {
	return SecondsToDuration(c.Offset)
}

// Size returns the encoded size of the comment.
func (c *Comment) Size() int {
	return CommentHeaderSize + len(c.Text)
}

// Encode serializes the comment.
func (c *Comment) Encode() ([]byte, error) {
	if len(c.Text) > MaxCommentLength {
		return nil, errors.Wrapf(ErrMalformedRecord, "comment text is %d bytes, limit %d", len(c.Text), MaxCommentLength)
	}
	buf := make([]byte, c.Size())
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(c.Offset))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(c.Text)))
	copy(buf[CommentHeaderSize:], c.Text)
	return buf, nil
}

// DecodeComment decodes one comment from the start of data and returns the
// number of bytes consumed.
func DecodeComment(data []byte) (*Comment, int, error) {
	if len(data) < CommentHeaderSize {
		return nil, 0, malformed("comment header", CommentHeaderSize, len(data))
	}
	n := int(binary.LittleEndian.Uint16(data[4:6]))
	if len(data) < CommentHeaderSize+n {
		return nil, 0, malformed("comment", CommentHeaderSize+n, len(data))
	}
	c := &Comment{
		Offset: math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])),
		Text:   string(data[CommentHeaderSize : CommentHeaderSize+n]),
	}
	return c, CommentHeaderSize + n, nil
}

// ReadComment reads one variable-length comment from r. A stream that ends
// inside the record is a malformed record; transport errors pass through.
func ReadComment(r io.Reader) (*Comment, error) {
	var hdr [CommentHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, truncated(err, "comment header")
	}
	n := int(binary.LittleEndian.Uint16(hdr[4:6]))
	text := make([]byte, n)
	if _, err := io.ReadFull(r, text); err != nil {
		return nil, truncated(err, "comment text")
	}
	return &Comment{
		Offset: math.Float32frombits(binary.LittleEndian.Uint32(hdr[0:4])),
		Text:   string(text),
	}, nil
}

func truncated(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return errors.Wrapf(ErrMalformedRecord, "stream ended inside %s", what)
	}
	return err
}

// ReadRecord reads exactly size bytes for one fixed record.
func ReadRecord(r io.Reader, size int, what string) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, truncated(err, what)
	}
	return buf, nil
}
