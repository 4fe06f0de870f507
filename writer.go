package initseq

import (
	"bufio"
	"bytes"
	"io"
)

// WriterPro is the destination a Writer pushes to.
type WriterPro interface {
	io.Writer
	io.ByteWriter
	io.StringWriter
	io.ReaderFrom
	io.Closer
	Size() int
	Flush() error
}

// Writer encodes record fields. Like Reader it latches the first error and
// turns every later write into a no-op, so a record is written field by
// field and checked once with Result.
type Writer struct {
	w     WriterPro
	count int64
	err   error
	depth int // nesting level; only depth 0 flushes
}

var _ WriterPro = (*Writer)(nil)

// NewWriter wraps w. In-memory destinations are written in place; anything
// else gets a bufio.Writer that Result flushes. A Writer built on another
// Writer, a WriterPro or a caller's *bufio.Writer leaves flushing to its
// owner, which lets Sequence hand one buffer to every Record it writes.
func NewWriter(w io.Writer) (*Writer, error) {
	if w == nil {
		return nil, ErrNilIO
	}

	switch dst := w.(type) {
	case *Writer:
		return &Writer{w: dst.w, depth: dst.depth + 1}, nil
	case *BytesWriter:
		return &Writer{w: dst}, nil
	case *bytes.Buffer:
		return &Writer{w: &bytesBufferWriterAdapter{dst}}, nil
	case *bufio.Writer:
		return &Writer{w: &bufioWriterAdapter{dst}, depth: 1}, nil
	case WriterPro:
		return &Writer{w: dst, depth: 1}, nil
	default:
		return &Writer{w: &bufioWriterAdapter{bufio.NewWriter(w)}}, nil
	}
}

func (w *Writer) Close() error { return w.w.Close() }
func (w *Writer) Size() int    { return w.w.Size() }

// Count returns the number of bytes accepted by this Writer.
func (w *Writer) Count() int64 { return w.count }

func (w *Writer) Err() error { return w.err }

func (w *Writer) latch(err error) {
	if w.err == nil && err != nil {
		w.err = err
	}
}

// Result flushes and returns the byte count and the latched error.
func (w *Writer) Result() (int64, error) {
	w.Flush()
	return w.count, w.err
}

// Flush pushes buffered bytes to the destination. Nested writers do not
// flush; their owner does.
func (w *Writer) Flush() error {
	if w.depth > 0 || w.err != nil {
		return w.err
	}
	w.latch(w.w.Flush())
	return w.err
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.err != nil || len(p) == 0 {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	w.count += int64(n)
	w.latch(err)
	return n, w.err
}

func (w *Writer) WriteString(s string) (int, error) {
	if w.err != nil || s == "" {
		return 0, w.err
	}
	n, err := w.w.WriteString(s)
	w.count += int64(n)
	w.latch(err)
	return n, w.err
}

func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	if w.err != nil || r == nil {
		return 0, w.err
	}
	n, err := w.w.ReadFrom(r)
	w.count += n
	w.latch(err)
	return n, w.err
}

func (w *Writer) WriteByte(b byte) error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.WriteByte(b); err != nil {
		w.err = err
		return err
	}
	w.count++
	return nil
}

// WriteFrom writes the encoding of v, typically a Record or a Fixed header.
func (w *Writer) WriteFrom(v io.WriterTo) {
	if w.err != nil || v == nil {
		return
	}
	n, err := v.WriteTo(w.w)
	w.count += n
	w.latch(err)
}

func (w *Writer) WriteBytes(p []byte) { _, _ = w.Write(p) }

func (w *Writer) WriteUint8(v uint8) { _ = w.WriteByte(v) }

func (w *Writer) WriteUint32(v uint32) {
	var buf [4]byte
	Order.PutUint32(buf[:], v)
	w.WriteBytes(buf[:])
}

// WriteHeader writes a record's tag and body length.
func (w *Writer) WriteHeader(kind Kind, length uint32) {
	w.WriteUint8(uint8(kind))
	w.WriteUint32(length)
}
