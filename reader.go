package initseq

import (
	"bufio"
	"bytes"
	"io"
)

// ReaderPro is the source a Reader pulls from.
type ReaderPro interface {
	io.Reader
	io.ByteReader
	io.WriterTo
	io.Closer
	Size() int
}

// Reader decodes record fields from a stream. The first error is latched:
// every later read is a no-op, so a whole header can be read before Err is
// checked once.
type Reader struct {
	r     ReaderPro
	count int64
	err   error
}

var _ ReaderPro = (*Reader)(nil)

// NewReader wraps r. In-memory sources are read in place and a *bufio.Reader
// is used as is; anything else gets a bufio.Reader. Wrapping a *Reader
// shares its source, so a nested Reader can decode one record and leave the
// stream positioned at the next.
func NewReader(r io.Reader) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}

	switch src := r.(type) {
	case *Reader:
		return &Reader{r: src.r}, nil
	case *BytesReader:
		return &Reader{r: src}, nil
	case *bytes.Reader:
		return &Reader{r: &bytesReaderAdapter{src}}, nil
	case *bytes.Buffer:
		return &Reader{r: &bytesBufferReaderAdapter{src}}, nil
	case *bufio.Reader:
		return &Reader{r: &bufioReaderAdapter{src}}, nil
	default:
		return &Reader{r: &bufioReaderAdapter{bufio.NewReader(r)}}, nil
	}
}

// newUnbufferedReader is NewReader without the bufio fallback: a source that
// is not already buffered or in memory is read exactly as far as each field
// needs, so the caller can keep reading it afterwards.
func newUnbufferedReader(r io.Reader) (*Reader, error) {
	switch r.(type) {
	case nil:
		return nil, ErrNilIO
	case *Reader, *BytesReader, *bytes.Reader, *bytes.Buffer, *bufio.Reader:
		return NewReader(r)
	default:
		return &Reader{r: &plainReaderAdapter{r}}, nil
	}
}

func (r *Reader) Close() error { return r.r.Close() }
func (r *Reader) Size() int    { return r.r.Size() }

// Count returns the number of bytes consumed through this Reader.
func (r *Reader) Count() int64 { return r.count }

func (r *Reader) Err() error { return r.err }

// IsEOF reports whether the stream ended cleanly, before any partial field.
func (r *Reader) IsEOF() bool { return r.err == io.EOF }

// Result returns the byte count and the latched error.
func (r *Reader) Result() (int64, error) { return r.count, r.err }

func (r *Reader) latch(err error) {
	if r.err == nil && err != nil {
		r.err = err
	}
}

// latchPartial records a failure inside a field. Running out of input there
// is never a clean end of stream.
func (r *Reader) latchPartial(err error) {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	r.err = err
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	n, err := r.r.Read(p)
	r.count += int64(n)
	r.latch(err)
	return n, r.err
}

func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	if w == nil {
		r.latch(ErrWriteToNil)
		return 0, r.err
	}
	n, err := r.r.WriteTo(w)
	r.count += n
	r.latch(err)
	return n, r.err
}

func (r *Reader) ReadByte() (byte, error) {
	if r.err != nil {
		return 0, r.err
	}
	b, err := r.r.ReadByte()
	if err != nil {
		r.err = err
		return 0, err
	}
	r.count++
	return b, nil
}

// ReadBytesTo fills dest completely.
func (r *Reader) ReadBytesTo(dest []byte) {
	if r.err != nil || len(dest) == 0 {
		return
	}
	if _, err := io.ReadFull(r, dest); err != nil {
		r.latchPartial(err)
	}
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) []byte {
	if r.err != nil || n <= 0 {
		return nil
	}
	buf := make([]byte, n)
	r.ReadBytesTo(buf)
	if r.err != nil {
		return nil
	}
	return buf
}

// Skip discards exactly n bytes.
func (r *Reader) Skip(n int64) {
	if r.err != nil || n <= 0 {
		return
	}
	if _, err := Discard(r, n); err != nil {
		r.latchPartial(err)
	}
}

func (r *Reader) ReadUint8(dest *uint8) {
	if b, err := r.ReadByte(); err == nil {
		*dest = b
	}
}

func (r *Reader) ReadUint32(dest *uint32) {
	var buf [4]byte
	r.ReadBytesTo(buf[:])
	if r.err == nil {
		*dest = Order.Uint32(buf[:])
	}
}

// ReadHeader reads a record's tag and body length. The tag is returned even
// when the length is cut short, so errors can name the record. A stream
// that ends before the tag latches io.EOF, one that ends inside the header
// io.ErrUnexpectedEOF.
func (r *Reader) ReadHeader() (kind Kind, length uint32) {
	var tag uint8
	r.ReadUint8(&tag)
	r.ReadUint32(&length)
	return Kind(tag), length
}
