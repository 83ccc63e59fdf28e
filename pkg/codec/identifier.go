package codec

import (
	"bytes"
	"fmt"
)

// IdentifierSize is the width of the ASCII type identifier that starts every
// datalog file.
const IdentifierSize = 6

// Known identifiers.
const (
	IdentFlashPro   = "FPDL"
	IdentCompressed = "OPDL"
	IdentKPro       = "KFLASH"
)

// Family names a recorder family.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyFlashPro
	FamilyKPro
)

func (f Family) String() string {
	switch f {
	case FamilyFlashPro:
		return "flashpro"
	case FamilyKPro:
		return "kpro"
	default:
		return "unknown"
	}
}

// Identifier is the fixed 6-byte, NUL padded type identifier.
type Identifier [IdentifierSize]byte

// MakeIdentifier pads s with NULs. It panics if s does not fit.
func MakeIdentifier(s string) Identifier {
	if len(s) > IdentifierSize {
		panic(fmt.Sprintf("identifier %q longer than %d bytes", s, IdentifierSize))
	}
	var id Identifier
	copy(id[:], s)
	return id
}

func (id Identifier) String() string {
	return trimIdentifier(id[:])
}

// Family classifies the identifier. Compressed containers are FlashPro.
func (id Identifier) Family() Family {
	switch id.String() {
	case IdentFlashPro, IdentCompressed:
		return FamilyFlashPro
	case IdentKPro:
		return FamilyKPro
	default:
		return FamilyUnknown
	}
}

// Compressed reports whether the identifier marks an OPDL container.
func (id Identifier) Compressed() bool {
	return id.String() == IdentCompressed
}

// ParseIdentifier validates the leading identifier bytes of a file.
func ParseIdentifier(data []byte) (Identifier, error) {
	var id Identifier
	if len(data) < IdentifierSize {
		return id, InvalidIdentifier(data)
	}
	if bytes.HasPrefix(data, []byte(IdentCompressed)) {
		// the rest of the field is the container's constant bytes
		return MakeIdentifier(IdentCompressed), nil
	}
	copy(id[:], data[:IdentifierSize])
	if id.Family() == FamilyUnknown {
		return id, InvalidIdentifier(data[:IdentifierSize])
	}
	return id, nil
}

func trimIdentifier(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Version is the packed version word: four nibbles holding
// major.minor.build.revision, major in the high nibble.
type Version uint16

// MakeVersion packs the four nibbles.
func MakeVersion(major, minor, build, revision uint8) Version {
	return Version(uint16(major&0xF)<<12 | uint16(minor&0xF)<<8 | uint16(build&0xF)<<4 | uint16(revision&0xF))
}

func (v Version) Major() uint8    { return uint8(v>>12) & 0xF }
func (v Version) Minor() uint8    { return uint8(v>>8) & 0xF }
func (v Version) Build() uint8    { return uint8(v>>4) & 0xF }
func (v Version) Revision() uint8 { return uint8(v) & 0xF }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major(), v.Minor(), v.Build(), v.Revision())
}
