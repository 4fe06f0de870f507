package initseq

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
)

// Options tunes how a Transcoder parses its input.
type Options struct {
	// RejectLegacy fails construction on a legacy-binary record. By default
	// such records parse and only fail when the sequence is emitted.
	RejectLegacy bool

	// MaxBodyLen bounds the body length of any single record. Zero means no
	// bound beyond the size of the input.
	MaxBodyLen uint32
}

// span locates one input record.
type span struct {
	offset int    // offset of the tag byte
	kind   Kind   // tag
	body   []byte // view into Transcoder.data
	name   string // placeholder name, declarations only
}

// Transcoder owns one init sequence and the catalog of placeholders it
// declares. It is not safe for concurrent use.
type Transcoder struct {
	data    []byte
	records []span
	catalog *catalog
	options Options
}

// New parses data with default options. The caller may reuse data afterwards.
func New(data []byte) (*Transcoder, error) {
	return NewWithOptions(data, nil)
}

// NewWithOptions parses data in a single pass and catalogs every
// placeholder declaration it contains.
func NewWithOptions(data []byte, options *Options) (*Transcoder, error) {
	if options == nil {
		options = &Options{}
	}
	t := &Transcoder{
		data:    bytes.Clone(data),
		catalog: newCatalog(),
		options: *options,
	}
	if err := t.parse(); err != nil {
		return nil, err
	}
	Logger().Debug("parsed init sequence",
		zap.Int("bytes", len(t.data)),
		zap.Int("records", len(t.records)),
		zap.Int("placeholders", t.catalog.len()),
	)
	return t, nil
}

// ReadTranscoder reads r to the end and parses the result.
func ReadTranscoder(r io.Reader, options *Options) (*Transcoder, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(data, options)
}

func (t *Transcoder) parse() error {
	br := NewBytesReader(t.data)
	r, _ := NewReader(br)
	for br.Remaining() > 0 {
		offset := br.Offset()

		kind, length := r.ReadHeader()
		tag := uint8(kind)
		if r.Err() != nil {
			return &RecordError{Offset: offset, Tag: tag, Err: fmt.Errorf(
				"%w: record header needs %d bytes, %d remain", ErrTruncatedData, HeaderLen, len(t.data)-offset)}
		}

		if !kind.Known() || (kind == KindLegacyBinary && t.options.RejectLegacy) {
			return &RecordError{Offset: offset, Tag: tag, Err: ErrUnknownKind}
		}
		if t.options.MaxBodyLen > 0 && length > t.options.MaxBodyLen {
			return &RecordError{Offset: offset, Tag: tag, Err: fmt.Errorf(
				"%w: %d bytes exceeds limit of %d", ErrRecordTooLarge, length, t.options.MaxBodyLen)}
		}

		start := br.Offset()
		if uint64(length) > uint64(br.Remaining()) {
			return &RecordError{Offset: offset, Tag: tag, Err: fmt.Errorf(
				"%w: body of %d bytes, %d remain", ErrTruncatedData, length, len(t.data)-start)}
		}
		s := span{offset: offset, kind: kind, body: t.data[start : start+int(length)]}
		br.N += int(length)

		if kind == KindPlaceholder {
			p, err := ParsePlaceholder(s.body)
			if err != nil {
				return &RecordError{Offset: offset, Tag: tag, Err: err}
			}
			// The emitted transfer-write length field is size+8 and must fit in 32 bits.
			if p.Size > math.MaxUint32-transferHeaderLen {
				return &RecordError{Offset: offset, Tag: tag, Err: fmt.Errorf(
					"%w: placeholder %q declares %d bytes", ErrRecordTooLarge, p.Name, p.Size)}
			}
			s.name = p.Name
			if t.catalog.declare(p) {
				Logger().Debug("placeholder redeclared, later declaration wins",
					zap.String("name", p.Name),
					zap.Int("offset", offset),
					zap.Uint32("size", p.Size),
					zap.Uint32("addr", p.Addr),
				)
			}
		}
		t.records = append(t.records, s)
	}
	return r.Err()
}

// Inject stores payload for the named placeholder. The payload is copied and
// must be exactly the declared size. Injecting again replaces the payload.
func (t *Transcoder) Inject(name string, payload []byte) error {
	e, ok := t.catalog.get(name)
	if !ok {
		return &PlaceholderError{Name: name, Err: ErrNotFound}
	}
	if uint64(len(payload)) != uint64(e.decl.Size) {
		return &PlaceholderError{Name: name, Err: fmt.Errorf(
			"%w: declared %d bytes, got %d", ErrSizeMismatch, e.decl.Size, len(payload))}
	}
	e.payload = bytes.Clone(payload)
	e.filled = true
	Logger().Debug("injected placeholder payload", zap.String("name", name), zap.Int("size", len(payload)))
	return nil
}

// InjectFrom reads the named placeholder's payload from r. It consumes
// exactly the declared size; a short stream is a size mismatch.
func (t *Transcoder) InjectFrom(name string, r io.Reader) error {
	e, ok := t.catalog.get(name)
	if !ok {
		return &PlaceholderError{Name: name, Err: ErrNotFound}
	}
	var payload bytes.Buffer
	n, err := io.CopyN(&payload, r, int64(e.decl.Size))
	if err == io.EOF {
		return &PlaceholderError{Name: name, Err: fmt.Errorf(
			"%w: declared %d bytes, stream ended after %d", ErrSizeMismatch, e.decl.Size, n)}
	}
	if err != nil {
		return err
	}
	return t.Inject(name, payload.Bytes())
}

// Len returns the number of cataloged placeholders.
func (t *Transcoder) Len() int { return t.catalog.len() }

// Has reports whether name is declared.
func (t *Transcoder) Has(name string) bool {
	_, ok := t.catalog.get(name)
	return ok
}

// Lookup returns a snapshot of the named placeholder.
func (t *Transcoder) Lookup(name string) (Declaration, error) {
	e, ok := t.catalog.get(name)
	if !ok {
		return Declaration{}, &PlaceholderError{Name: name, Err: ErrNotFound}
	}
	return e.snapshot(), nil
}

// Placeholders returns a snapshot of the catalog in declaration order.
func (t *Transcoder) Placeholders() []Declaration {
	out := make([]Declaration, 0, t.catalog.len())
	for _, e := range t.catalog.ordered {
		out = append(out, e.snapshot())
	}
	return out
}

// Records returns the number of records in the input sequence.
func (t *Transcoder) Records() int { return len(t.records) }

// Size returns the length of the emitted sequence. It is only meaningful
// once every placeholder is filled.
func (t *Transcoder) Size() int {
	total := 0
	for _, s := range t.records {
		if s.kind == KindPlaceholder {
			e, _ := t.catalog.get(s.name)
			total += HeaderLen + transferHeaderLen + int(e.decl.Size)
			continue
		}
		total += HeaderLen + len(s.body)
	}
	return total
}

// validate checks everything that could stop emission, so a failing emit
// never writes a partial sequence.
func (t *Transcoder) validate() error {
	if e, ok := t.catalog.firstUnfilled(); ok {
		return &PlaceholderError{Name: e.decl.Name, Err: ErrUnfilled}
	}
	for _, s := range t.records {
		switch s.kind {
		case KindDirectWrite, KindPlaceholder, KindTransferWrite:
		default:
			return &RecordError{Offset: s.offset, Tag: uint8(s.kind), Err: ErrUnknownKind}
		}
	}
	return nil
}

// WriteTo writes the emitted sequence to writer: direct-write and
// transfer-write records verbatim, every placeholder declaration replaced
// by a transfer-write carrying its payload. A sequence that cannot be
// emitted, because of an unfilled placeholder or a legacy record, writes
// nothing.
func (t *Transcoder) WriteTo(writer io.Writer) (int64, error) {
	if err := t.validate(); err != nil {
		return 0, err
	}
	w, err := NewWriter(writer)
	if err != nil {
		return 0, err
	}

	for _, s := range t.records {
		if s.kind != KindPlaceholder {
			w.WriteHeader(s.kind, uint32(len(s.body)))
			w.WriteBytes(s.body)
			continue
		}
		e, _ := t.catalog.get(s.name)
		w.WriteHeader(KindTransferWrite, e.decl.Size+transferHeaderLen)
		w.WriteFrom(&Fixed[transferHeader]{transferHeader{Addr: e.decl.Addr, Size: e.decl.Size}})
		w.WriteBytes(e.payload)
	}

	n, err := w.Result()
	if err == nil {
		Logger().Debug("emitted init sequence", zap.Int64("bytes", n), zap.Int("records", len(t.records)))
	}
	return n, err
}

// Emit returns the emitted sequence. It does not change the transcoder and
// returns identical bytes on every call until a payload is re-injected.
func (t *Transcoder) Emit() ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	return MarshalBinaryGeneric(t)
}
