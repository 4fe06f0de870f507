package initseq

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/exp/constraints"
)

// Order is the byte order of every multi-byte field in an init sequence.
var Order binary.ByteOrder = binary.LittleEndian

// Discard skips n bytes of r. It returns io.EOF if r ends first.
func Discard(r io.Reader, n int64) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	if n < 0 {
		return 0, ErrDiscardNegative
	}
	return io.CopyN(io.Discard, r, n)
}

// Roundup rounds n up to the nearest multiple of align.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// CheckBufferNotZeros verifies that every byte of buf is zero.
func CheckBufferNotZeros(buf []byte) error {
	for i, b := range buf {
		if b != 0 {
			return fmt.Errorf("%w: found non-zero byte 0x%02x at offset %d", ErrTrailingData, b, i)
		}
	}
	return nil
}

// hexPreview renders at most n bytes of b as space separated hex.
func hexPreview(b []byte, n int) string {
	if len(b) <= n {
		return fmt.Sprintf("% x", b)
	}
	return fmt.Sprintf("% x ...", b[:n])
}
