package binint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvolution(t *testing.T) {
	cases := []int64{
		0, 1, -1, 255, -255, 256, -256,
		math.MaxInt64, math.MinInt64 + 1,
		1234567890, -1234567890,
	}
	for _, x := range cases {
		buf := Encode(x)
		assert.Equalf(t, x, Int64(buf[:]), "Int64(Encode(%d))", x)
	}
}

func TestSignBitLayout(t *testing.T) {
	buf := Encode(-5)
	assert.Equal(t, byte(5), buf[0], "expected magnitude in low byte")
	assert.NotZerof(t, buf[7]&0x80, "expected sign bit set in top byte, got %#x", buf[7])

	buf2 := Encode(5)
	assert.Zero(t, buf2[7]&0x80, "sign bit should be clear for positive value")
}
