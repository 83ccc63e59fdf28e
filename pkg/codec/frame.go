package codec

import (
	"encoding/binary"
	"math"
	"time"
)

// Fixed frame layout sizes. A header may declare a larger frame size; the
// bytes past the fixed layout are carried in Extra.
const (
	FlashProFrameSize = 64
	KProFrameSize     = 80

	channelsSize = 26
	switchesSize = 8

	FlashProFaultBytes = 8
	KProFaultBytes     = 20
)

// Channels holds the numeric sensor channels common to both recorder
// families. Values are the raw stored integers.
type Channels struct {
	RPM         uint16
	VSS         uint16 // km/h
	MAP         uint16 // 0.1 kPa
	TPS         uint8  // percent
	Gear        uint8
	ECT         int16 // °C
	IAT         int16 // °C
	Lambda      uint16 // λ·32768
	Injector    uint16 // µs
	Ignition    int16  // 0.1°
	STrim       int8
	LTrim       int8
	KnockLevel  uint16
	KnockRetard uint8
	Battery     uint8 // 0.1 V
	CamAngle    int16
}

// LambdaRatio returns the stored lambda as a ratio.
func (c Channels) LambdaRatio() float64 {
	return float64(c.Lambda) / 32768
}

// BatteryVolts returns the stored battery voltage in volts.
func (c Channels) BatteryVolts() float64 {
	return float64(c.Battery) / 10
}

func decodeChannels(b []byte) Channels {
	return Channels{
		RPM:         binary.LittleEndian.Uint16(b[0:2]),
		VSS:         binary.LittleEndian.Uint16(b[2:4]),
		MAP:         binary.LittleEndian.Uint16(b[4:6]),
		TPS:         b[6],
		Gear:        b[7],
		ECT:         int16(binary.LittleEndian.Uint16(b[8:10])),
		IAT:         int16(binary.LittleEndian.Uint16(b[10:12])),
		Lambda:      binary.LittleEndian.Uint16(b[12:14]),
		Injector:    binary.LittleEndian.Uint16(b[14:16]),
		Ignition:    int16(binary.LittleEndian.Uint16(b[16:18])),
		STrim:       int8(b[18]),
		LTrim:       int8(b[19]),
		KnockLevel:  binary.LittleEndian.Uint16(b[20:22]),
		KnockRetard: b[22],
		Battery:     b[23],
		CamAngle:    int16(binary.LittleEndian.Uint16(b[24:26])),
	}
}

func (c Channels) put(b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], c.RPM)
	binary.LittleEndian.PutUint16(b[2:4], c.VSS)
	binary.LittleEndian.PutUint16(b[4:6], c.MAP)
	b[6] = c.TPS
	b[7] = c.Gear
	binary.LittleEndian.PutUint16(b[8:10], uint16(c.ECT))
	binary.LittleEndian.PutUint16(b[10:12], uint16(c.IAT))
	binary.LittleEndian.PutUint16(b[12:14], c.Lambda)
	binary.LittleEndian.PutUint16(b[14:16], c.Injector)
	binary.LittleEndian.PutUint16(b[16:18], uint16(c.Ignition))
	b[18] = byte(c.STrim)
	b[19] = byte(c.LTrim)
	binary.LittleEndian.PutUint16(b[20:22], c.KnockLevel)
	b[22] = c.KnockRetard
	b[23] = c.Battery
	binary.LittleEndian.PutUint16(b[24:26], uint16(c.CamAngle))
}

// Switches are the one-byte boolean switch and sensor states. Any nonzero
// byte reads as true; set bytes other than 1 are kept and written back
// unchanged while the switch stays true.
type Switches struct {
	VTEC       bool
	AC         bool
	Brake      bool
	Clutch     bool
	Fan        bool
	MIL        bool
	ClosedLoop bool
	Starter    bool

	raw [switchesSize]byte // stored bytes above 1, zero otherwise
}

func decodeSwitches(b []byte) Switches {
	s := Switches{
		VTEC:       b[0] != 0,
		AC:         b[1] != 0,
		Brake:      b[2] != 0,
		Clutch:     b[3] != 0,
		Fan:        b[4] != 0,
		MIL:        b[5] != 0,
		ClosedLoop: b[6] != 0,
		Starter:    b[7] != 0,
	}
	for i, v := range b[:switchesSize] {
		if v > 1 {
			s.raw[i] = v
		}
	}
	return s
}

func (s Switches) put(b []byte) {
	for i, v := range [switchesSize]bool{s.VTEC, s.AC, s.Brake, s.Clutch, s.Fan, s.MIL, s.ClosedLoop, s.Starter} {
		switch {
		case !v:
			b[i] = 0
		case s.raw[i] != 0:
			b[i] = s.raw[i]
		default:
			b[i] = 1
		}
	}
}

func decodeAnalog(b []byte) [4]uint16 {
	var a [4]uint16
	for i := range a {
		a[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return a
}

func putAnalog(b []byte, a [4]uint16) {
	for i, v := range a {
		binary.LittleEndian.PutUint16(b[i*2:], v)
	}
}

// FlashProFrame is one FlashPro sample.
//
// Layout:
//
//	[FrameNumber(4)][Offset ms(4)][Channels(26)][Analog(8)][Switches(8)]
//	[FaultCodes(8)][Unknown(6)]
type FlashProFrame struct {
	FrameNumber uint32
	Offset      uint32 // milliseconds since the start of the log
	Channels
	Analog     [4]uint16
	Switches   Switches
	FaultCodes [FlashProFaultBytes]byte
	Unknown    [6]byte
	Extra      []byte
}

// Time returns the frame offset as a duration.
func (f *FlashProFrame) Time() time.Duration {
	return time.Duration(f.Offset) * time.Millisecond
}

// DecodeFlashProFrame decodes one declared-size frame record. Bytes past the
// fixed layout are preserved in Extra.
func DecodeFlashProFrame(data []byte) (*FlashProFrame, error) {
	if len(data) < FlashProFrameSize {
		return nil, malformed("flashpro frame", FlashProFrameSize, len(data))
	}

	f := &FlashProFrame{
		FrameNumber: binary.LittleEndian.Uint32(data[0:4]),
		Offset:      binary.LittleEndian.Uint32(data[4:8]),
		Channels:    decodeChannels(data[8:34]),
		Analog:      decodeAnalog(data[34:42]),
		Switches:    decodeSwitches(data[42:50]),
	}
	copy(f.FaultCodes[:], data[50:58])
	copy(f.Unknown[:], data[58:64])
	if len(data) > FlashProFrameSize {
		f.Extra = append([]byte(nil), data[FlashProFrameSize:]...)
	}
	return f, nil
}

// Encode serializes the frame into exactly size bytes.
func (f *FlashProFrame) Encode(size int) ([]byte, error) {
	if size < FlashProFrameSize {
		return nil, malformed("flashpro frame", FlashProFrameSize, size)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], f.FrameNumber)
	binary.LittleEndian.PutUint32(buf[4:8], f.Offset)
	f.Channels.put(buf[8:34])
	putAnalog(buf[34:42], f.Analog)
	f.Switches.put(buf[42:50])
	copy(buf[50:58], f.FaultCodes[:])
	copy(buf[58:64], f.Unknown[:])
	copy(buf[FlashProFrameSize:], f.Extra)
	return buf, nil
}

// KProFrame is one KPro sample.
//
// Layout:
//
//	[FrameNumber(4)][Offset s float32(4)][Channels(26)][CamTarget(2)][Analog(8)]
//	[Switches(8)][FaultCodes(20)][ReadinessSupport(2)][ReadinessStatus(2)][Unknown(4)]
type KProFrame struct {
	FrameNumber uint32
	Offset      float32 // seconds since the start of the log
	Channels
	CamTarget        int16
	Analog           [4]uint16
	Switches         Switches
	FaultCodes       [KProFaultBytes]byte
	ReadinessSupport uint16
	ReadinessStatus  uint16
	Unknown          [4]byte
	Extra            []byte
}

// Time returns the frame offset as a duration.
func (f *KProFrame) Time() time.Duration {
	return SecondsToDuration(f.Offset)
}

// DecodeKProFrame decodes one declared-size frame record.
func DecodeKProFrame(data []byte) (*KProFrame, error) {
	if len(data) < KProFrameSize {
		return nil, malformed("kpro frame", KProFrameSize, len(data))
	}

	f := &KProFrame{
		FrameNumber:      binary.LittleEndian.Uint32(data[0:4]),
		Offset:           math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])),
		Channels:         decodeChannels(data[8:34]),
		CamTarget:        int16(binary.LittleEndian.Uint16(data[34:36])),
		Analog:           decodeAnalog(data[36:44]),
		Switches:         decodeSwitches(data[44:52]),
		ReadinessSupport: binary.LittleEndian.Uint16(data[72:74]),
		ReadinessStatus:  binary.LittleEndian.Uint16(data[74:76]),
	}
	copy(f.FaultCodes[:], data[52:72])
	copy(f.Unknown[:], data[76:80])
	if len(data) > KProFrameSize {
		f.Extra = append([]byte(nil), data[KProFrameSize:]...)
	}
	return f, nil
}

// Encode serializes the frame into exactly size bytes.
func (f *KProFrame) Encode(size int) ([]byte, error) {
	if size < KProFrameSize {
		return nil, malformed("kpro frame", KProFrameSize, size)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], f.FrameNumber)
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(f.Offset))
	f.Channels.put(buf[8:34])
	binary.LittleEndian.PutUint16(buf[34:36], uint16(f.CamTarget))
	putAnalog(buf[36:44], f.Analog)
	f.Switches.put(buf[44:52])
	copy(buf[52:72], f.FaultCodes[:])
	binary.LittleEndian.PutUint16(buf[72:74], f.ReadinessSupport)
	binary.LittleEndian.PutUint16(buf[74:76], f.ReadinessStatus)
	copy(buf[76:80], f.Unknown[:])
	copy(buf[KProFrameSize:], f.Extra)
	return buf, nil
}

// SecondsToDuration converts a stored float32 second offset.
func SecondsToDuration(s float32) time.Duration {
	return time.Duration(math.Round(float64(s) * float64(time.Second)))
}
