package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"go.uber.org/zap"

	"github.com/oy3o/initseq"
)

// Format selects how a payload file is interpreted.
type Format string

const (
	// FormatRaw uses the file bytes as the payload.
	FormatRaw Format = "raw"
	// FormatMemHex decodes an "@ADDR DATA" memory dump and flattens it into
	// one image, gaps zero-filled.
	FormatMemHex Format = "memhex"
)

func (f Format) validate() error {
	switch f {
	case "", FormatRaw, FormatMemHex:
		return nil
	default:
		return fmt.Errorf("unknown format %q", string(f))
	}
}

// Compression names the container a payload file is stored in.
type Compression string

const (
	CompressionAuto Compression = "auto" // detected from the frame magic
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"  // LZ4 frame format
	CompressionZstd Compression = "zstd" // zstd frames
)

var (
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

func (c Compression) validate() error {
	switch c {
	case "", CompressionAuto, CompressionNone, CompressionLZ4, CompressionZstd:
		return nil
	default:
		return fmt.Errorf("unknown compression %q", string(c))
	}
}

// Payload is the source of one placeholder's data.
type Payload struct {
	// Name is the placeholder name as declared in the init sequence.
	Name string `yaml:"name" toml:"name" json:"name"`

	// File holds the payload, relative to the manifest.
	File string `yaml:"file" toml:"file" json:"file"`

	// Format is raw (default) or memhex.
	Format Format `yaml:"format,omitempty" toml:"format" json:"format,omitempty"`

	// Base is the byte address of word 0 in a memhex file.
	Base uint32 `yaml:"base,omitempty" toml:"base" json:"base,omitempty"`

	// Compression is auto (default), none, lz4 or zstd.
	Compression Compression `yaml:"compression,omitempty" toml:"compression" json:"compression,omitempty"`
}

type decoderCloser struct {
	io.Reader
	close func() error
}

func (d decoderCloser) Close() error { return d.close() }

// detect picks a compression from the first bytes of r.
func detect(r *initseq.PeekableReader) Compression {
	magic, _ := r.Peek(4)
	switch {
	case bytes.Equal(magic, lz4Magic):
		return CompressionLZ4
	case bytes.Equal(magic, zstdMagic):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// open returns the decompressed contents of path.
func (p *Payload) open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	source := initseq.PeekReader(f)

	compression := p.Compression
	if compression == "" || compression == CompressionAuto {
		compression = detect(source)
	}
	switch compression {
	case CompressionLZ4:
		return decoderCloser{Reader: lz4.NewReader(source), close: source.Close}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(source)
		if err != nil {
			source.Close()
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return decoderCloser{Reader: decoder, close: func() error {
			decoder.Close()
			return source.Close()
		}}, nil
	default:
		return source, nil
	}
}

// Read returns the payload bytes. Raw payloads are read up to limit bytes,
// enough for the caller to notice a file larger than expected.
func (p *Payload) Read(path string, limit int64) ([]byte, error) {
	rc, err := p.open(path)
	if err != nil {
		return nil, fmt.Errorf("payload %q: %w", p.Name, err)
	}
	defer rc.Close()

	if p.Format == FormatMemHex {
		segments, err := initseq.DecodeMemHex(rc, p.Base)
		if err != nil {
			return nil, fmt.Errorf("payload %q: %w", p.Name, err)
		}
		addr, image := initseq.Image(segments)
		initseq.Logger().Debug("decoded memory image",
			zap.String("name", p.Name),
			zap.Int("segments", len(segments)),
			zap.Uint32("addr", addr),
			zap.Int("bytes", len(image)),
		)
		return image, nil
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rc, limit)); err != nil {
		return nil, fmt.Errorf("payload %q: %w", p.Name, err)
	}
	return buf.Bytes(), nil
}

// Apply injects every payload of m into t. Each payload must name a declared
// placeholder and match its declared size.
func (m *Manifest) Apply(t *initseq.Transcoder) error {
	for i := range m.Payloads {
		p := &m.Payloads[i]
		decl, err := t.Lookup(p.Name)
		if err != nil {
			return err
		}
		// One byte past the declared size is enough to report an oversized file.
		data, err := p.Read(m.Resolve(p.File), int64(decl.Size)+1)
		if err != nil {
			return err
		}
		if err := t.Inject(p.Name, data); err != nil {
			return err
		}
	}
	return nil
}
