package opdl

import (
	"bytes"
	"math/big"

	"github.com/pkg/errors"

	"github.com/ssargent/ecudatalog/pkg/codec"
)

const checksumSize = 4

var (
	// eosMarker is the bzip2 end-of-stream magic, sqrt(pi) in BCD.
	eosMarker = []byte{0x17, 0x72, 0x45, 0x38, 0x50, 0x90}

	// containerMarker is what remains of the end-of-stream magic inside an
	// OPDL body.
	containerMarker = eosMarker[:1]
)

// Window sizes: one carried byte, the marker and the checksum.
var (
	streamTrailerSize    = 1 + len(eosMarker) + checksumSize
	containerTrailerSize = 1 + len(containerMarker) + checksumSize
)

// ErrMarkerNotFound is returned by Realign when no bit offset in 0..7 puts
// the search marker on a byte boundary.
var ErrMarkerNotFound = errors.Wrap(codec.ErrInvalidFormat, "end-of-stream marker not found")

// Realign rewrites a stream trailer whose marker may start at any bit of its
// first byte. tail must be exactly one carried byte, the search marker and a
// 4-byte checksum long. It returns the rewritten trailer, with search replaced
// by replace, and the bit offset that was found.
func Realign(tail, search, replace []byte) ([]byte, int, error) {
	want := 1 + len(search) + checksumSize
	if len(tail) != want {
		return nil, 0, errors.Wrapf(codec.ErrInvalidFormat, "trailer window is %d bytes, want %d", len(tail), want)
	}

	raw := new(big.Int).SetBytes(tail)
	shifted := new(big.Int)
	aligned := make([]byte, len(tail))

	for offset := 0; offset < 8; offset++ {
		shifted.Rsh(raw, uint(offset))
		shifted.FillBytes(aligned)
		if !bytes.Equal(aligned[1:1+len(search)], search) {
			continue
		}

		out := make([]byte, 0, 1+len(replace)+checksumSize)
		out = append(out, aligned[0])
		out = append(out, replace...)
		out = append(out, aligned[len(aligned)-checksumSize:]...)

		width := uint(len(out) * 8)
		rebuilt := new(big.Int).SetBytes(out)
		rebuilt.Lsh(rebuilt, uint(offset))
		limit := new(big.Int).Lsh(big.NewInt(1), width)
		rebuilt.Mod(rebuilt, limit)
		return rebuilt.FillBytes(out), offset, nil
	}

	return nil, 8, ErrMarkerNotFound
}

// trailer realigns a held-back window. A window one byte short means the
// stream had no data before its marker; a zero carried byte is supplied and
// dropped again.
func trailer(hold []byte, size int, search, replace []byte) ([]byte, int, error) {
	switch {
	case len(hold) == size:
		return Realign(hold, search, replace)
	case len(hold) == size-1:
		padded := append([]byte{0}, hold...)
		out, offset, err := Realign(padded, search, replace)
		if err != nil {
			return nil, offset, err
		}
		if offset != 0 {
			return nil, offset, errors.Wrap(codec.ErrInvalidFormat, "misaligned marker in empty stream")
		}
		return out[1:], offset, nil
	default:
		return nil, 0, errors.Wrapf(codec.ErrInvalidFormat, "stream ended after %d trailer bytes, want %d", len(hold), size)
	}
}
