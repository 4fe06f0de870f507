package initseq

import (
	"encoding/binary"
	"io"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// placeholderTrailer ends every placeholder declaration body, after the name.
type placeholderTrailer struct {
	Size uint32
	Addr uint32
}

// transferHeader starts every transfer-write body, before the data.
type transferHeader struct {
	Addr uint32
	Size uint32
}

const (
	placeholderTrailerLen = 8
	transferHeaderLen     = 8
)

// sizeCache memoizes binary.Size per payload type; it is read on every
// record encoded, possibly from many goroutines.
var sizeCache = xsync.NewMap[reflect.Type, int]()

// Fixed is a Codec for a struct of fixed-size fields in the package byte
// Order. Payload must not contain slices, strings or maps.
type Fixed[Payload any] struct {
	Payload Payload
}

var _ Codec = (*Fixed[transferHeader])(nil)

func (c *Fixed[Payload]) Size() int {
	typ := reflect.TypeFor[Payload]()
	if size, ok := sizeCache.Load(typ); ok {
		return size
	}
	size := binary.Size(&c.Payload)
	sizeCache.Store(typ, size)
	return size
}

func (c *Fixed[Payload]) MarshalBinary() ([]byte, error) {
	buf := make([]byte, c.Size())
	if _, err := c.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// MarshalTo encodes into the front of p, failing with io.ErrShortWrite if
// p is too small.
func (c *Fixed[Payload]) MarshalTo(p []byte) (int, error) {
	n, err := binary.Encode(p, Order, &c.Payload)
	if err != nil {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// UnmarshalBinary decodes the front of data. Anything after the payload
// must be zero padding.
func (c *Fixed[Payload]) UnmarshalBinary(data []byte) error {
	n, err := binary.Decode(data, Order, &c.Payload)
	if err != nil {
		return ErrTruncatedData
	}
	return CheckBufferNotZeros(data[n:])
}

func (c *Fixed[Payload]) ReadFrom(r io.Reader) (int64, error) {
	if err := binary.Read(r, Order, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}

func (c *Fixed[Payload]) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, Order, &c.Payload); err != nil {
		return 0, err
	}
	return int64(c.Size()), nil
}
