package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChannels() Channels {
	return Channels{
		RPM:         6850,
		VSS:         112,
		MAP:         1013,
		TPS:         87,
		Gear:        3,
		ECT:         88,
		IAT:         -12,
		Lambda:      28836,
		Injector:    9100,
		Ignition:    -35,
		STrim:       -4,
		LTrim:       6,
		KnockLevel:  410,
		KnockRetard: 2,
		Battery:     141,
		CamAngle:    -20,
	}
}

func TestFlashProFrame_Layout(t *testing.T) {
	f := &FlashProFrame{
		FrameNumber: 9,
		Offset:      1250,
		Channels:    sampleChannels(),
		Analog:      [4]uint16{100, 200, 300, 400},
		Switches:    Switches{VTEC: true, ClosedLoop: true},
		FaultCodes:  [FlashProFaultBytes]byte{0x24, 0x02},
		Unknown:     [6]byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02},
	}

	buf, err := f.Encode(FlashProFrameSize)
	require.NoError(t, err)
	require.Len(t, buf, FlashProFrameSize)

	assert.Equal(t, []byte{9, 0, 0, 0}, buf[0:4])
	assert.Equal(t, []byte{0xE2, 0x04, 0, 0}, buf[4:8])
	assert.Equal(t, []byte{0xC2, 0x1A}, buf[8:10], "rpm")
	assert.Equal(t, []byte{0xF4, 0xFF}, buf[18:20], "iat is signed")
	assert.Equal(t, byte(0xFC), buf[26], "short trim is signed")
	assert.Equal(t, []byte{100, 0, 200, 0}, buf[34:38])
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 1, 0}, buf[42:50])
	assert.Equal(t, []byte{0x24, 0x02, 0, 0, 0, 0, 0, 0}, buf[50:58])
	assert.Equal(t, f.Unknown[:], buf[58:64])
}

func TestFlashProFrame_RoundTrip(t *testing.T) {
	f := &FlashProFrame{
		FrameNumber: 1,
		Offset:      40,
		Channels:    sampleChannels(),
		Analog:      [4]uint16{1, 2, 3, 4},
		Switches:    Switches{AC: true, Brake: true, Clutch: true, Fan: true, MIL: true, Starter: true},
		Unknown:     [6]byte{9, 8, 7, 6, 5, 4},
	}

	buf, err := f.Encode(FlashProFrameSize)
	require.NoError(t, err)

	decoded, err := DecodeFlashProFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, f, decoded)
	assert.Equal(t, 40*time.Millisecond, decoded.Time())
}

func TestFlashProFrame_ExtraBytesPreserved(t *testing.T) {
	raw := make([]byte, FlashProFrameSize+5)
	for i := range raw {
		raw[i] = byte(i)
	}
	// switch bytes only round-trip as 0 or 1
	for i := 42; i < 50; i++ {
		raw[i] = byte(i % 2)
	}

	f, err := DecodeFlashProFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{64, 65, 66, 67, 68}, f.Extra)

	out, err := f.Encode(len(raw))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(raw, out), "declared-size record must round-trip verbatim")
}

func TestFlashProFrame_Malformed(t *testing.T) {
	_, err := DecodeFlashProFrame(make([]byte, FlashProFrameSize-1))
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = (&FlashProFrame{}).Encode(FlashProFrameSize - 1)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFlashProFrame_SwitchBytesPreserved(t *testing.T) {
	raw := make([]byte, FlashProFrameSize)
	raw[42] = 0x02
	raw[43] = 0x01
	raw[47] = 0xFF

	f, err := DecodeFlashProFrame(raw)
	require.NoError(t, err)
	assert.True(t, f.Switches.VTEC)
	assert.True(t, f.Switches.AC)
	assert.True(t, f.Switches.MIL)
	assert.False(t, f.Switches.Brake)

	buf, err := f.Encode(FlashProFrameSize)
	require.NoError(t, err)
	assert.Equal(t, raw, buf)

	f.Switches.VTEC = false
	f.Switches.Brake = true
	buf, err = f.Encode(FlashProFrameSize)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x01, 0x00, 0x00, 0xFF, 0x00, 0x00}, buf[42:50])
}

func TestKProFrame_RoundTrip(t *testing.T) {
	f := &KProFrame{
		FrameNumber:      4,
		Offset:           10.25,
		Channels:         sampleChannels(),
		CamTarget:        35,
		Analog:           [4]uint16{500, 0, 65535, 7},
		Switches:         Switches{VTEC: true, MIL: true},
		ReadinessSupport: 0x01FF,
		ReadinessStatus:  0x0003,
		Unknown:          [4]byte{0xAA, 0xBB, 0xCC, 0xDD},
	}
	f.FaultCodes[0] = 0x24
	f.FaultCodes[19] = 0x80

	buf, err := f.Encode(KProFrameSize)
	require.NoError(t, err)
	require.Len(t, buf, KProFrameSize)
	assert.Equal(t, []byte{0, 0, 0x24, 0x41}, buf[4:8], "offset is a little-endian float32")
	assert.Equal(t, byte(0x80), buf[71])
	assert.Equal(t, []byte{0xFF, 0x01, 0x03, 0x00}, buf[72:76])

	decoded, err := DecodeKProFrame(buf)
	require.NoError(t, err)
	assert.Equal(t, f, decoded)
	assert.Equal(t, 10250*time.Millisecond, decoded.Time())
}

func TestKProFrame_Malformed(t *testing.T) {
	_, err := DecodeKProFrame(make([]byte, KProFrameSize-10))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestChannels_Derived(t *testing.T) {
	c := Channels{Lambda: 32768, Battery: 138}
	assert.InDelta(t, 1.0, c.LambdaRatio(), 1e-9)
	assert.InDelta(t, 13.8, c.BatteryVolts(), 1e-9)
}
