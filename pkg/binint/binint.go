// Package binint implements the signed-magnitude 64-bit little-endian
// integer convention used throughout the patch streams: non-negative x is
// written as-is, negative x is written as its magnitude with the sign bit
// of the top byte set. This keeps small negative control-record fields
// short after entropy coding, since two's-complement negatives would
// otherwise fill the high bytes with 0xFF.
package binint

// Size is the encoded width of one integer, in bytes.
const Size = 8

// PutInt64 encodes x into buf[:8] using the signed-magnitude convention.
// It panics if len(buf) < 8.
func PutInt64(x int64, buf []byte) {
	var y uint64
	if x < 0 {
		y = uint64(-x)
	} else {
		y = uint64(x)
	}

	buf[0] = byte(y)
	y >>= 8
	buf[1] = byte(y)
	y >>= 8
	buf[2] = byte(y)
	y >>= 8
	buf[3] = byte(y)
	y >>= 8
	buf[4] = byte(y)
	y >>= 8
	buf[5] = byte(y)
	y >>= 8
	buf[6] = byte(y)
	y >>= 8
	buf[7] = byte(y)

	if x < 0 {
		buf[7] |= 0x80
	}
}

// Int64 decodes an 8-byte signed-magnitude integer from buf[:8]. It panics
// if len(buf) < 8.
func Int64(buf []byte) int64 {
	y := int64(buf[7] & 0x7f)
	y = y*256 + int64(buf[6])
	y = y*256 + int64(buf[5])
	y = y*256 + int64(buf[4])
	y = y*256 + int64(buf[3])
	y = y*256 + int64(buf[2])
	y = y*256 + int64(buf[1])
	y = y*256 + int64(buf[0])

	if buf[7]&0x80 != 0 {
		y = -y
	}
	return y
}

// Encode returns the 8-byte signed-magnitude encoding of x.
func Encode(x int64) [Size]byte {
	var buf [Size]byte
	PutInt64(x, buf[:])
	return buf
}
