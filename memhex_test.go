package initseq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMemHex(t *testing.T) {
	input := strings.Join([]string{
		"// firmware image",
		"@0 deadbeef",
		"@1 0102 0304",
		"@3 abc",
		"@2 ffffffff",
		"@2 11223344",
		"not a data line",
		"@4   ",
	}, "\n")

	segments, err := DecodeMemHex(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.EqualValues(t, 0, segments[0].Addr)
	assert.Equal(t, []byte{
		0xde, 0xad, 0xbe, 0xef,
		0x01, 0x02, 0x03, 0x04,
		0x11, 0x22, 0x33, 0x44, // last line for a repeated address wins
		0x00, 0x00, 0x0a, 0xbc, // left-padded to a whole word
	}, segments[0].Data)
	assert.EqualValues(t, 16, segments[0].End())
}

func TestDecodeMemHexBaseAndGaps(t *testing.T) {
	input := "@4 11\n@0 AABBCCDD\n"
	segments, err := DecodeMemHex(strings.NewReader(input), 0x100)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, Segment{Addr: 0x100, Data: []byte{0xaa, 0xbb, 0xcc, 0xdd}}, segments[0])
	assert.Equal(t, Segment{Addr: 0x110, Data: []byte{0x00, 0x00, 0x00, 0x11}}, segments[1])

	addr, image := Image(segments)
	assert.EqualValues(t, 0x100, addr)
	require.Len(t, image, 0x14)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, image[:4])
	assert.Equal(t, make([]byte, 12), image[4:16])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x11}, image[16:])
}

func TestDecodeMemHexErrors(t *testing.T) {
	_, err := DecodeMemHex(strings.NewReader("@0 00\n@1fffffffff 00\n"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMemHex)
	assert.Contains(t, err.Error(), "line 2")

	_, err = DecodeMemHex(strings.NewReader("@8 00\n"), 0xfffffff0)
	assert.ErrorIs(t, err, ErrInvalidMemHex)

	// Longer than one word: no padding, so an odd digit count is rejected.
	_, err = DecodeMemHex(strings.NewReader("@0 00\n@1 0a0b0c0d0\n"), 0)
	assert.ErrorIs(t, err, ErrInvalidMemHex)
	assert.Contains(t, err.Error(), "line 2")

	segments, err := DecodeMemHex(strings.NewReader(""), 0)
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestDecodeMemHexWidePadding(t *testing.T) {
	segments, err := DecodeMemHex(strings.NewReader("@0 0a0b0c0d0e\n@8 0a0b 0c0d0e0f\n"), 0)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, Segment{Addr: 0, Data: []byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e}}, segments[0])
	assert.Equal(t, Segment{Addr: 0x20, Data: []byte{0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}}, segments[1])
}

func TestImage(t *testing.T) {
	addr, data := Image(nil)
	assert.Zero(t, addr)
	assert.Nil(t, data)

	addr, data = Image([]Segment{
		{Addr: 0x10, Data: []byte{1, 1, 1, 1}},
		{Addr: 0x12, Data: []byte{9}},
	})
	assert.EqualValues(t, 0x10, addr)
	assert.Equal(t, []byte{1, 1, 9, 1}, data)
}
