package initseq

import (
	"bufio"
	"bytes"
	"io"
)

type (
	bytesReaderAdapter       struct{ *bytes.Reader }
	bytesBufferReaderAdapter struct{ *bytes.Buffer }
	bytesBufferWriterAdapter struct{ *bytes.Buffer }
	bufioReaderAdapter       struct{ *bufio.Reader }
	bufioWriterAdapter       struct{ *bufio.Writer }
	plainReaderAdapter       struct{ io.Reader }
)

func (r *bytesReaderAdapter) Close() error       { return nil }
func (r *bufioReaderAdapter) Close() error       { return nil }
func (w *bufioWriterAdapter) Close() error       { return nil }
func (r *bytesBufferReaderAdapter) Close() error { return nil }
func (w *bytesBufferWriterAdapter) Close() error { return nil }
func (w *bytesBufferWriterAdapter) Flush() error { return nil }
func (w *bytesBufferWriterAdapter) Size() int    { return w.Available() }
func (r *bytesBufferReaderAdapter) Size() int    { return r.Len() }
func (r *bytesReaderAdapter) Size() int          { return int(r.Reader.Size()) }

// plainReaderAdapter never reads past what its caller asks for.
func (r *plainReaderAdapter) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r.Reader, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *plainReaderAdapter) WriteTo(w io.Writer) (int64, error) { return io.Copy(w, r.Reader) }
func (r *plainReaderAdapter) Close() error                       { return nil }
func (r *plainReaderAdapter) Size() int                          { return 0 }
