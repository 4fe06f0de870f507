package initseq

import (
	"fmt"
	"io"
)

// sizedWriterTo is an encoder that knows its exact encoded size.
type sizedWriterTo interface {
	Size() int
	io.WriterTo
}

// MarshalBinaryGeneric encodes v into a new slice of exactly v.Size() bytes.
func MarshalBinaryGeneric[T sizedWriterTo](v T) ([]byte, error) {
	buf := make([]byte, v.Size())
	n, err := MarshalToGeneric(v, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// MarshalToGeneric encodes v into the front of p. It returns
// io.ErrShortWrite if p is smaller than v.Size(), and ErrTruncatedData if v
// writes fewer bytes than it announced.
func MarshalToGeneric[T sizedWriterTo](v T, p []byte) (int, error) {
	size := v.Size()
	if len(p) < size {
		return 0, io.ErrShortWrite
	}
	w := NewBytesWriter(p[:size:size])
	n, err := v.WriteTo(w)
	if err != nil {
		return int(n), err
	}
	if n != int64(size) {
		return int(n), fmt.Errorf("%w: encoded %d of %d bytes", ErrTruncatedData, n, size)
	}
	return int(n), nil
}

// UnmarshalBinaryGeneric decodes data with v.ReadFrom. The whole slice must
// be consumed.
func UnmarshalBinaryGeneric[T io.ReaderFrom](v T, data []byte) error {
	r := NewBytesReader(data)
	if _, err := v.ReadFrom(r); err != nil {
		return err
	}
	if rest := r.Remaining(); rest > 0 {
		return fmt.Errorf("%w: %d bytes after the encoded value", ErrTrailingData, rest)
	}
	return nil
}
