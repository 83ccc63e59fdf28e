package opdl

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
)

const (
	// HeaderSize is the size of the OPDL container header.
	HeaderSize = 13

	// MaxPayloadSize is the largest payload size the header can carry.
	MaxPayloadSize = 1<<24 - 1

	sizeFieldOffset  = 8
	headerTerminator = 0x00

	// synthesized stream header block size; large enough for any payload
	decodeBlockSize = '9'

	minBlockSize = '1'
	maxBlockSize = '5'
)

var headerConstant = [4]byte{0x01, 0x00, 0x00, 0x00}

func encodeHeader(size uint32) []byte {
	hdr := make([]byte, HeaderSize)
	copy(hdr[0:4], codec.IdentCompressed)
	copy(hdr[4:8], headerConstant[:])
	binary.BigEndian.PutUint32(hdr[sizeFieldOffset:], size&MaxPayloadSize)
	hdr[12] = headerTerminator
	return hdr
}

func decodeHeader(hdr []byte) (uint32, error) {
	if string(hdr[0:4]) != codec.IdentCompressed {
		return 0, errors.Wrapf(codec.ErrInvalidFormat, "bad container magic %q", hdr[0:4])
	}
	return binary.BigEndian.Uint32(hdr[sizeFieldOffset:sizeFieldOffset+4]) & MaxPayloadSize, nil
}

// validateStreamHeader checks the leading "BZh" signature and block size of
// a bzip2 stream.
func validateStreamHeader(hdr []byte) error {
	if hdr[0] != 'B' || hdr[1] != 'Z' {
		return errors.Wrapf(codec.ErrInvalidFormat, "bad stream signature %q", hdr[0:2])
	}
	if hdr[2] != 'h' {
		return errors.Wrapf(codec.ErrInvalidFormat, "unsupported stream version %q", hdr[2])
	}
	if hdr[3] < minBlockSize || hdr[3] > maxBlockSize {
		return errors.Wrapf(codec.ErrInvalidFormat, "unsupported block size %q", hdr[3])
	}
	return nil
}

// ValidBlockSize reports whether level is a compression level the container
// accepts.
func ValidBlockSize(level int) bool {
	return level >= minBlockSize-'0' && level <= maxBlockSize-'0'
}

func checkPayloadSize(size int64) error {
	if size < 0 || size > MaxPayloadSize {
		return errors.Wrapf(codec.ErrInvalidFormat, "payload size %d exceeds container limit %d", size, MaxPayloadSize)
	}
	return nil
}
