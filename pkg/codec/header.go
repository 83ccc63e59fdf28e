package codec

import (
	"encoding/binary"
)

// Header sizes.
const (
	FlashProHeaderSize = 64
	KProHeaderSize     = 64
)

// FlashProHeader is the fixed header at the start of an FPDL file.
//
// Layout:
//
//	[Identifier(6)][Version(2)][Serial(4)][FrameCount(4)][FrameSize(4)]
//	[Stoich(2)][Unknown(10)][Reserved(32)]
type FlashProHeader struct {
	Identifier Identifier
	Version    Version
	Serial     uint32
	FrameCount uint32
	FrameSize  uint32
	Stoich     uint16 // stoichiometric ratio in hundredths, 0 when unset
	Unknown    [10]byte
	Reserved   [32]byte
}

// DecodeFlashProHeader decodes the first FlashProHeaderSize bytes of data.
func DecodeFlashProHeader(data []byte) (*FlashProHeader, error) {
	if len(data) < FlashProHeaderSize {
		return nil, malformed("flashpro header", FlashProHeaderSize, len(data))
	}

	h := &FlashProHeader{}
	copy(h.Identifier[:], data[0:6])
	h.Version = Version(binary.LittleEndian.Uint16(data[6:8]))
	h.Serial = binary.LittleEndian.Uint32(data[8:12])
	h.FrameCount = binary.LittleEndian.Uint32(data[12:16])
	h.FrameSize = binary.LittleEndian.Uint32(data[16:20])
	h.Stoich = binary.LittleEndian.Uint16(data[20:22])
	copy(h.Unknown[:], data[22:32])
	copy(h.Reserved[:], data[32:64])
	return h, nil
}

// Encode serializes the header into FlashProHeaderSize bytes.
func (h *FlashProHeader) Encode() []byte {
	buf := make([]byte, FlashProHeaderSize)
	copy(buf[0:6], h.Identifier[:])
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Version))
	binary.LittleEndian.PutUint32(buf[8:12], h.Serial)
	binary.LittleEndian.PutUint32(buf[12:16], h.FrameCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.FrameSize)
	binary.LittleEndian.PutUint16(buf[20:22], h.Stoich)
	copy(buf[22:32], h.Unknown[:])
	copy(buf[32:64], h.Reserved[:])
	return buf
}

// KProHeader is the fixed header at the start of a KFLASH file.
//
// Layout:
//
//	[Identifier(6)][Version(2)][Serial(4)][FrameCount(4)][FrameSize(4)]
//	[CommentCount(4)][Stoich(2)][Unknown(6)][Reserved(32)]
type KProHeader struct {
	Identifier   Identifier
	Version      Version
	Serial       uint32
	FrameCount   uint32
	FrameSize    uint32
	CommentCount uint32
	Stoich       uint16
	Unknown      [6]byte
	Reserved     [32]byte
}

// DecodeKProHeader decodes the first KProHeaderSize bytes of data.
func DecodeKProHeader(data []byte) (*KProHeader, error) {
	if len(data) < KProHeaderSize {
		return nil, malformed("kpro header", KProHeaderSize, len(data))
	}

	h := &KProHeader{}
	copy(h.Identifier[:], data[0:6])
	h.Version = Version(binary.LittleEndian.Uint16(data[6:8]))
	h.Serial = binary.LittleEndian.Uint32(data[8:12])
	h.FrameCount = binary.LittleEndian.Uint32(data[12:16])
	h.FrameSize = binary.LittleEndian.Uint32(data[16:20])
	h.CommentCount = binary.LittleEndian.Uint32(data[20:24])
	h.Stoich = binary.LittleEndian.Uint16(data[24:26])
	copy(h.Unknown[:], data[26:32])
	copy(h.Reserved[:], data[32:64])
	return h, nil
}

// Encode serializes the header into KProHeaderSize bytes.
func (h *KProHeader) Encode() []byte {
	buf := make([]byte, KProHeaderSize)
	copy(buf[0:6], h.Identifier[:])
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Version))
	binary.LittleEndian.PutUint32(buf[8:12], h.Serial)
	binary.LittleEndian.PutUint32(buf[12:16], h.FrameCount)
	binary.LittleEndian.PutUint32(buf[16:20], h.FrameSize)
	binary.LittleEndian.PutUint32(buf[20:24], h.CommentCount)
	binary.LittleEndian.PutUint16(buf[24:26], h.Stoich)
	copy(buf[26:32], h.Unknown[:])
	copy(buf[32:64], h.Reserved[:])
	return buf
}

// StoichRatio converts a stored hundredths value, returning fallback when the
// header does not carry one.
func StoichRatio(stored uint16, fallback float64) float64 {
	if stored == 0 {
		return fallback
	}
	return float64(stored) / 100
}
