// Package codec provides the fixed-layout binary records of FlashPro and KPro
// ECU datalogs.
//
// Every record is encoded and decoded by hand-written byte-offset functions;
// nothing is reflected. All numeric fields are little-endian and booleans
// occupy one byte each.
//
// # File Layout
//
//	[Header][Frame]xN[Comment]xM[Footer...EOF]
//
// Comments exist only in KPro files. The footer is opaque and copied through
// unchanged.
//
// # Identifiers
//
// Every file starts with a 6-byte NUL padded ASCII identifier:
//   - "FPDL": uncompressed FlashPro log
//   - "OPDL": FlashPro log wrapped in an OPDL container (see package opdl)
//   - "KFLASH": KPro log
//
// # Record Sizes
//
// The header declares the frame size. Decoders accept any size at least as
// large as the fixed layout; the surplus is kept in Extra and written back
// verbatim. A size smaller than the fixed layout is ErrMalformedRecord.
//
// Reserved and unknown regions are never interpreted and round-trip byte for
// byte.
//
// # Thread Safety
//
// The codec functions are pure. Decoded records are plain values owned by the
// caller.
package codec
