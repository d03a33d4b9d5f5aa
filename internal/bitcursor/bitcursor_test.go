package bitcursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGetPutIdentity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		width := rapid.IntRange(1, 32).Draw(t, "width")
		bufLen := rapid.IntRange((width+7)/8+1, 16).Draw(t, "bufLen")
		idx := rapid.IntRange(0, bufLen*8-width).Draw(t, "idx")
		var maxVal int64 = (int64(1) << uint(width)) - 1
		value := int(rapid.Int64Range(0, maxVal).Draw(t, "value"))

		buf := make([]byte, bufLen)
		Put(buf, idx, width, value)
		got := Get(buf, idx, width)
		assert.Equal(t, value, got)
	})
}

func TestShiftComposition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		bufLen := rapid.IntRange(1, 8).Draw(t, "bufLen")
		original := rapid.SliceOfN(rapid.Byte(), bufLen, bufLen).Draw(t, "buf")
		k := rapid.IntRange(0, bufLen*8).Draw(t, "k")
		l := rapid.IntRange(0, bufLen*8).Draw(t, "l")

		composed := append([]byte(nil), original...)
		ShiftLeft(composed, k)
		ShiftLeft(composed, l)

		combined := append([]byte(nil), original...)
		ShiftLeft(combined, k+l)

		assert.Equal(t, combined, composed)
	})
}

func TestShiftLeftByteBoundary(t *testing.T) {
	buf := []byte{0xAB, 0xCD, 0xEF}
	ShiftLeft(buf, 8)
	require.Equal(t, []byte{0xCD, 0xEF, 0x00}, buf)
}

func TestShiftLeftSubByte(t *testing.T) {
	buf := []byte{0b10110000, 0x00}
	ShiftLeft(buf, 3)
	require.Equal(t, []byte{0b10000000, 0x00}, buf)
}

func TestOutOfRangeReadsZero(t *testing.T) {
	buf := []byte{0xFF}
	assert.Equal(t, 0, Get(buf, 16, 8))
}

func TestPutOrsExistingBits(t *testing.T) {
	buf := []byte{0b10000000}
	Put(buf, 1, 3, 0b101)
	assert.Equal(t, byte(0b11010000), buf[0])
}
