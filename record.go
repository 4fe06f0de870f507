package initseq

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Kind is the tag byte that starts every record.
type Kind uint8

const (
	// KindDirectWrite is a register write copied through unchanged.
	KindDirectWrite Kind = 0x01
	// KindPlaceholder declares named resident data: name || size || address.
	KindPlaceholder Kind = 0x02
	// KindLegacyBinary is reserved. It parses, but it is never emitted.
	KindLegacyBinary Kind = 0x03
	// KindTransferWrite carries a block of data: address || size || data.
	KindTransferWrite Kind = 0x04
)

// HeaderLen is the tag byte plus the 4-byte body length.
const HeaderLen = 5

func (k Kind) String() string {
	switch k {
	case KindDirectWrite:
		return "direct-write"
	case KindPlaceholder:
		return "placeholder"
	case KindLegacyBinary:
		return "legacy-binary"
	case KindTransferWrite:
		return "transfer-write"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

// Known reports whether k is one of the four defined record kinds.
func (k Kind) Known() bool {
	return k >= KindDirectWrite && k <= KindTransferWrite
}

// Record is one framed record: tag, little-endian body length and body.
type Record struct {
	Kind Kind
	Body []byte
}

var _ Codec = (*Record)(nil)

// Size returns the encoded size of the record, header included.
func (r *Record) Size() int { return HeaderLen + len(r.Body) }

// WriteTo writes the framed record to writer.
func (r *Record) WriteTo(writer io.Writer) (int64, error) {
	w, err := NewWriter(writer)
	if err != nil {
		return 0, err
	}
	w.WriteHeader(r.Kind, uint32(len(r.Body)))
	w.WriteBytes(r.Body)
	return w.Result()
}

// ReadFrom reads exactly one framed record and nothing past it, so calls can
// be repeated on the same stream. It returns io.EOF only when the stream ends
// cleanly before the tag byte; a record cut short anywhere else is reported
// as ErrTruncatedData.
func (r *Record) ReadFrom(reader io.Reader) (int64, error) {
	rd, err := newUnbufferedReader(reader)
	if err != nil {
		return 0, err
	}

	kind, length := rd.ReadHeader()
	if rd.IsEOF() {
		return 0, io.EOF
	}
	if err := rd.Err(); err != nil {
		return rd.Count(), truncated(err, "record header")
	}

	// The body buffer grows with the data actually present, so a corrupt
	// length cannot force a huge allocation up front.
	var body bytes.Buffer
	if _, err := io.CopyN(&body, rd, int64(length)); err != nil {
		return rd.Count(), truncated(err, fmt.Sprintf("%s body of %d bytes", kind, length))
	}

	r.Kind = kind
	r.Body = body.Bytes()
	return rd.Count(), nil
}

func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedData, what)
	}
	return err
}

// --- Boilerplate implementations ---

func (r *Record) MarshalBinary() ([]byte, error) {
	return MarshalBinaryGeneric(r)
}

func (r *Record) UnmarshalBinary(data []byte) error {
	return UnmarshalBinaryGeneric(r, data)
}

func (r *Record) MarshalTo(buf []byte) (int, error) {
	return MarshalToGeneric(r, buf)
}

// --- Typed bodies ---

// DirectWrite builds a register write record: address || value.
func DirectWrite(addr, value uint32) Record {
	body := make([]byte, 8)
	Order.PutUint32(body[0:4], addr)
	Order.PutUint32(body[4:8], value)
	return Record{Kind: KindDirectWrite, Body: body}
}

// ParseDirectWrite decodes an 8-byte register write body.
// Direct-write bodies are otherwise opaque, so ok is false for any other length.
func ParseDirectWrite(body []byte) (addr, value uint32, ok bool) {
	if len(body) != 8 {
		return 0, 0, false
	}
	return Order.Uint32(body[0:4]), Order.Uint32(body[4:8]), true
}

// Placeholder is the body of a placeholder declaration.
type Placeholder struct {
	Name string // raw name bytes, compared exactly
	Size uint32 // payload size in bytes
	Addr uint32 // destination address, opaque
}

// Record encodes p as a placeholder declaration record.
func (p Placeholder) Record() Record {
	body := make([]byte, len(p.Name)+placeholderTrailerLen)
	n := copy(body, p.Name)
	trailer := Fixed[placeholderTrailer]{placeholderTrailer{Size: p.Size, Addr: p.Addr}}
	_, _ = trailer.MarshalTo(body[n:])
	return Record{Kind: KindPlaceholder, Body: body}
}

// ParsePlaceholder decodes a placeholder declaration body. The name is
// everything before the fixed 8-byte size and address trailer.
func ParsePlaceholder(body []byte) (Placeholder, error) {
	if len(body) < placeholderTrailerLen {
		return Placeholder{}, fmt.Errorf("%w: placeholder body of %d bytes cannot hold its %d-byte trailer",
			ErrTruncatedData, len(body), placeholderTrailerLen)
	}
	nameLen := len(body) - placeholderTrailerLen
	if nameLen == 0 {
		return Placeholder{}, ErrEmptyName
	}

	var trailer Fixed[placeholderTrailer]
	if err := trailer.UnmarshalBinary(body[nameLen:]); err != nil {
		return Placeholder{}, err
	}
	return Placeholder{
		Name: string(body[:nameLen]),
		Size: trailer.Payload.Size,
		Addr: trailer.Payload.Addr,
	}, nil
}

// Transfer is the body of a transfer-write record.
type Transfer struct {
	Addr uint32
	Data []byte
}

// Record encodes t as a transfer-write record.
func (t Transfer) Record() Record {
	body := make([]byte, transferHeaderLen+len(t.Data))
	header := Fixed[transferHeader]{transferHeader{Addr: t.Addr, Size: uint32(len(t.Data))}}
	_, _ = header.MarshalTo(body)
	copy(body[transferHeaderLen:], t.Data)
	return Record{Kind: KindTransferWrite, Body: body}
}

// ParseTransfer decodes a transfer-write body. The size field must match
// the number of data bytes that follow it.
func ParseTransfer(body []byte) (Transfer, error) {
	if len(body) < transferHeaderLen {
		return Transfer{}, fmt.Errorf("%w: transfer body of %d bytes cannot hold its %d-byte header",
			ErrTruncatedData, len(body), transferHeaderLen)
	}
	var header Fixed[transferHeader]
	if err := header.UnmarshalBinary(body[:transferHeaderLen]); err != nil {
		return Transfer{}, err
	}
	data := body[transferHeaderLen:]
	switch size := header.Payload.Size; {
	case uint64(size) > uint64(len(data)):
		return Transfer{}, fmt.Errorf("%w: transfer declares %d data bytes, body holds %d", ErrTruncatedData, size, len(data))
	case uint64(size) < uint64(len(data)):
		return Transfer{}, fmt.Errorf("%w: transfer declares %d data bytes, body holds %d", ErrTrailingData, size, len(data))
	}
	return Transfer{Addr: header.Payload.Addr, Data: data}, nil
}
