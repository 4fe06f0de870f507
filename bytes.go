package initseq

import "io"

// BytesReader reads an in-memory sequence in place. N is the offset of the
// next unread byte, which is also the offset of the next record once a
// record has been consumed.
type BytesReader struct {
	B []byte
	N int
}

// NewBytesReader returns a reader positioned at the start of b.
func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

func (r *BytesReader) Read(p []byte) (int, error) {
	if r.Remaining() == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.B[r.N:])
	r.N += n
	return n, nil
}

func (r *BytesReader) ReadByte() (byte, error) {
	if r.Remaining() == 0 {
		return 0, io.EOF
	}
	r.N++
	return r.B[r.N-1], nil
}

// WriteTo writes the unread bytes to w.
func (r *BytesReader) WriteTo(w io.Writer) (int64, error) {
	rest := r.B[r.N:]
	if len(rest) == 0 {
		return 0, nil
	}
	n, err := w.Write(rest)
	if n < 0 || n > len(rest) {
		return 0, ErrInvalidWrite
	}
	r.N += n
	return int64(n), err
}

func (r *BytesReader) Close() error { return nil }

// Offset returns the number of bytes consumed.
func (r *BytesReader) Offset() int { return r.N }

// Remaining returns the number of unread bytes.
func (r *BytesReader) Remaining() int { return max(len(r.B)-r.N, 0) }

// Size returns the length of the whole slice.
func (r *BytesReader) Size() int { return len(r.B) }

// BytesWriter fills a fixed slice and never grows it. A write that does not
// fit stores what it can and fails with io.ErrShortWrite, which is how an
// encoder that announced the wrong Size is caught.
type BytesWriter struct {
	B []byte
	N int
}

// NewBytesWriter returns a writer over the full capacity of p.
func NewBytesWriter(p []byte) *BytesWriter {
	return &BytesWriter{B: p[:cap(p)]}
}

func (w *BytesWriter) Write(p []byte) (int, error) {
	n := copy(w.B[w.N:], p)
	w.N += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (w *BytesWriter) WriteString(s string) (int, error) {
	n := copy(w.B[w.N:], s)
	w.N += n
	if n < len(s) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (w *BytesWriter) WriteByte(c byte) error {
	if w.N == len(w.B) {
		return io.ErrShortWrite
	}
	w.B[w.N] = c
	w.N++
	return nil
}

// ReadFrom copies r until EOF. It fails with io.ErrShortWrite if r still
// has data once the slice is full.
func (w *BytesWriter) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		if w.N == len(w.B) {
			var probe [1]byte
			if n, _ := r.Read(probe[:]); n > 0 {
				return total, io.ErrShortWrite
			}
			return total, nil
		}
		n, err := r.Read(w.B[w.N:])
		if n < 0 {
			return total, ErrInvalidRead
		}
		w.N += n
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (w *BytesWriter) Close() error { return nil }
func (w *BytesWriter) Flush() error { return nil }

// Size returns the capacity of the destination slice.
func (w *BytesWriter) Size() int { return len(w.B) }

// Len returns the number of bytes written.
func (w *BytesWriter) Len() int { return w.N }

// Bytes returns the written part of the slice.
func (w *BytesWriter) Bytes() []byte { return w.B[:w.N] }
