package diag

// Flag is the bit position of a fault code inside a frame's fault mask.
type Flag uint16

// Mask is a raw little-endian fault bitmask as stored in a frame: bit 0 is
// the least significant bit of the first byte.
type Mask []byte

// Has reports whether every bit of flag is set in m, that is
// (m | flag) == m. Flags beyond the width of m are never set.
func (m Mask) Has(flag Flag) bool {
	i := int(flag / 8)
	if i >= len(m) {
		return false
	}
	bit := byte(1) << (flag % 8)
	return m[i]|bit == m[i]
}

// Set sets flag. It panics if flag is beyond the width of m.
func (m Mask) Set(flag Flag) {
	m[flag/8] |= 1 << (flag % 8)
}

// Bits returns the width of m in bits.
func (m Mask) Bits() int {
	return len(m) * 8
}
