package initseq

import (
	"errors"
	"fmt"
)

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with an nil interface
	ErrNilIO = errors.New("initseq: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrWriteToNil indicates a WriteTo operation was attempted on a nil io.Writer.
	ErrWriteToNil = errors.New("initseq: WriteTo called with a nil io.Writer")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("initseq: writer returned invalid count from Write")

	// ErrInvalidRead indicates that an io.Reader returned an invalid (negative or outbound) count from Read.
	ErrInvalidRead = errors.New("initseq: reader returned invalid count from Read")

	// ErrDiscardNegative indicates a Discard operation was attempted with a negative byte count.
	ErrDiscardNegative = errors.New("initseq: cannot discard negative number of bytes")

	// ErrTrailingData indicates bytes left over after a complete value: non-zero
	// padding after a fixed-size part, or transfer data beyond its declared size.
	ErrTrailingData = errors.New("initseq: trailing data")

	// ErrTruncatedData indicates that a record header or body extends past the end
	// of the buffer, or that a placeholder declaration is too short to hold its
	// size and address trailer.
	ErrTruncatedData = errors.New("initseq: truncated data")

	// ErrRecordTooLarge indicates a record body longer than Options.MaxBodyLen.
	ErrRecordTooLarge = errors.New("initseq: record body too large")

	// ErrEmptyName indicates a placeholder declaration without a name.
	ErrEmptyName = errors.New("initseq: placeholder declaration has an empty name")

	// ErrUnknownKind indicates a tag byte that does not map to an emittable record kind.
	ErrUnknownKind = errors.New("initseq: unknown record kind")

	// ErrNotFound indicates a placeholder name absent from the catalog.
	ErrNotFound = errors.New("initseq: placeholder not found")

	// ErrSizeMismatch indicates a payload whose length differs from the declared size.
	ErrSizeMismatch = errors.New("initseq: payload size mismatch")

	// ErrInvalidMemHex indicates a malformed line in a memory hex dump.
	ErrInvalidMemHex = errors.New("initseq: invalid memory hex")

	// ErrUnfilled indicates emission was requested while a placeholder has no payload.
	ErrUnfilled = errors.New("initseq: placeholder not filled")
)

// RecordError reports a failure tied to a position in the input stream.
type RecordError struct {
	Offset int  // offset of the record's tag byte
	Tag    byte // tag byte of the offending record
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%v (tag 0x%02x at offset %d)", e.Err, e.Tag, e.Offset)
}

func (e *RecordError) Unwrap() error { return e.Err }

// PlaceholderError reports a failure tied to a named placeholder.
type PlaceholderError struct {
	Name string
	Err  error
}

func (e *PlaceholderError) Error() string {
	return fmt.Sprintf("%v (placeholder %q)", e.Err, e.Name)
}

func (e *PlaceholderError) Unwrap() error { return e.Err }
