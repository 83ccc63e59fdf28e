// Package opdl converts between the proprietary OPDL container and a standard
// bzip2 stream without buffering the payload.
//
// # Container Format
//
//	[Magic "OPDL"(4)][Constant 01 00 00 00(4)][PayloadSize BE(4)][Terminator 00(1)][Body...]
//
// PayloadSize is the uncompressed datalog size. Only its low 24 bits are ever
// populated, so the largest payload is 16,777,215 bytes.
//
// The body is the bzip2 stream without its 4-byte "BZhN" header. The stream's
// 80-bit trailer (48-bit end-of-stream magic 0x177245385090 and the 32-bit
// combined CRC) is shortened to the magic's first byte and the CRC. The
// trailer is not byte aligned in either form; it keeps the bit alignment the
// compressor gave it.
//
// # Footer Realignment
//
// Both directions hold back the last few bytes of the stream (6 when
// decoding, 11 when encoding). At end of stream that window is read as one
// big-endian integer and shifted right by 0..7 bits until the byte after the
// first one equals the marker being searched for. The first match is the bit
// misalignment. The marker is swapped for the other form's marker, the carried
// first byte and the checksum are kept, and the result is shifted back left by
// the same amount. See Realign.
//
// # Thread Safety
//
// Reader and Writer keep mutable scratch windows and must be owned by a single
// goroutine.
package opdl
