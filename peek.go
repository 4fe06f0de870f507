package initseq

import "io"

// PeekableReader lets a caller inspect the head of a stream, such as a
// compression magic, and then read the stream from its first byte.
type PeekableReader struct {
	R io.Reader
	B []byte // peeked and not yet read
}

// PeekReader wraps r, or returns it unchanged if it already is a PeekableReader.
func PeekReader(r io.Reader) *PeekableReader {
	if pr, ok := r.(*PeekableReader); ok {
		return pr
	}
	return &PeekableReader{R: r}
}

// Peek returns the next n bytes without consuming them. If the stream ends
// first it returns what there is along with io.EOF.
func (r *PeekableReader) Peek(n int) ([]byte, error) {
	have := len(r.B)
	if have >= n {
		return r.B[:n], nil
	}
	buf := make([]byte, n)
	copy(buf, r.B)
	read, err := io.ReadFull(r.R, buf[have:])
	r.B = buf[:have+read]
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return r.B, err
}

func (r *PeekableReader) Read(p []byte) (int, error) {
	if len(r.B) == 0 {
		return r.R.Read(p)
	}
	n := copy(p, r.B)
	r.B = r.B[n:]
	return n, nil
}

// Close closes the underlying reader when it is an io.Closer.
func (r *PeekableReader) Close() error {
	if c, ok := r.R.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
