// Package initseq transcodes device initialization sequences.
//
// An init sequence is a flat concatenation of records framed as
//
//	tag:1 | length:4 (little-endian) | body:length
//
// Placeholder declarations name a block of resident data that is only known
// at deploy time. A Transcoder catalogs those declarations, accepts a payload
// for each of them and emits a new sequence in which every declaration is
// replaced by a transfer-write record carrying its payload.
package initseq

import (
	"encoding"
	"io"
)

// Sizer reports the encoded size of a value, so buffers can be allocated
// exactly once.
type Sizer interface {
	Size() int
}

// Marshaler encodes a value into a new slice, a caller's slice or a stream.
type Marshaler interface {
	encoding.BinaryMarshaler
	io.WriterTo

	// MarshalTo encodes into the front of buf and fails with
	// io.ErrShortWrite if buf is smaller than Size.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler decodes a value from a slice or a stream.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler
	io.ReaderFrom
}

// Codec is implemented by Record, Sequence and the fixed-size record parts.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}
