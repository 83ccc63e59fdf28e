package datalog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ssargent/ecudatalog/pkg/codec"
	"github.com/ssargent/ecudatalog/pkg/diag"
)

func testFlashProFrame(i int) codec.FlashProFrame {
	f := codec.FlashProFrame{FrameNumber: uint32(i), Offset: uint32(i * 50)}
	f.RPM = uint16(800 + i*10)
	f.VSS = uint16(i % 120)
	f.MAP = 350
	f.TPS = uint8(i % 100)
	f.Gear = uint8(i%5 + 1)
	f.ECT = int16(i - 10)
	f.IAT = -5
	f.Lambda = 32768
	f.Injector = 2500
	f.Ignition = -30
	f.STrim = -3
	f.LTrim = 2
	f.KnockLevel = uint16(i)
	f.Battery = 138
	f.CamAngle = 12
	f.Analog = [4]uint16{uint16(i), 2, 3, 4}
	f.Switches.VTEC = i%2 == 0
	f.Switches.ClosedLoop = true
	f.Unknown = [6]byte{1, 2, 3, 4, 5, byte(i)}
	return f
}

func testKProFrame(i int) codec.KProFrame {
	f := codec.KProFrame{FrameNumber: uint32(i), Offset: float32(i) * 0.25}
	f.RPM = uint16(900 + i)
	f.Lambda = 29491
	f.CamTarget = 20
	f.Analog = [4]uint16{9, 8, 7, uint16(i)}
	f.Switches.Fan = true
	f.ReadinessSupport = 0x0003
	f.ReadinessStatus = 0x0001
	f.Unknown = [4]byte{0xAA, 0xBB, 0xCC, byte(i)}
	return f
}

func testFlashProHeader(frames, size int) codec.FlashProHeader {
	h := codec.FlashProHeader{
		Identifier: codec.MakeIdentifier(codec.IdentFlashPro),
		Version:    codec.MakeVersion(1, 2, 3, 4),
		Serial:     12345,
		FrameCount: uint32(frames),
		FrameSize:  uint32(size),
	}
	for i := range h.Unknown {
		h.Unknown[i] = byte(0xF0 + i)
	}
	for i := range h.Reserved {
		h.Reserved[i] = byte(i)
	}
	return h
}

func testKProHeader(frames, comments int) codec.KProHeader {
	h := codec.KProHeader{
		Identifier:   codec.MakeIdentifier(codec.IdentKPro),
		Version:      codec.MakeVersion(4, 3, 2, 1),
		Serial:       777,
		FrameCount:   uint32(frames),
		FrameSize:    codec.KProFrameSize,
		CommentCount: uint32(comments),
		Stoich:       1470,
	}
	h.Unknown = [6]byte{6, 5, 4, 3, 2, 1}
	h.Reserved[31] = 0x5A
	return h
}

// flashProBytes encodes a plain FlashPro file.
func flashProBytes(t *testing.T, h codec.FlashProHeader, frames []codec.FlashProFrame, footer []byte) []byte {
	t.Helper()
	size := int(h.FrameSize)
	if size == 0 {
		size = codec.FlashProFrameSize
	}

	var buf bytes.Buffer
	buf.Write(h.Encode())
	for i := range frames {
		rec, err := frames[i].Encode(size)
		require.NoError(t, err)
		buf.Write(rec)
	}
	buf.Write(footer)
	return buf.Bytes()
}

// kproBytes encodes a plain KPro file.
func kproBytes(t *testing.T, h codec.KProHeader, frames []codec.KProFrame, comments []codec.Comment, footer []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(h.Encode())
	for i := range frames {
		rec, err := frames[i].Encode(int(h.FrameSize))
		require.NoError(t, err)
		buf.Write(rec)
	}
	for i := range comments {
		rec, err := comments[i].Encode()
		require.NoError(t, err)
		buf.Write(rec)
	}
	buf.Write(footer)
	return buf.Bytes()
}

// emptyFlashPro loads a document with no frames.
func emptyFlashPro(t *testing.T, opts ...Option) *FlashProLog {
	t.Helper()
	h := testFlashProHeader(0, codec.FlashProFrameSize)
	l, err := ReadFlashPro(bytes.NewReader(flashProBytes(t, h, nil, nil)), opts...)
	require.NoError(t, err)
	return l
}

func maskOf(width int, flags ...diag.Flag) []byte {
	m := make(diag.Mask, width)
	for _, f := range flags {
		m.Set(f)
	}
	return m
}

type countingSource struct {
	r    *bytes.Reader
	read int
}

func (c *countingSource) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}
