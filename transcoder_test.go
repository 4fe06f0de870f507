package initseq

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Fixtures ---

// sampleSequence is written byte by byte so it does not depend on Builder.
var sampleSequence = []byte{
	// direct-write: addr 0x1000, value 0x12345678
	0x01, 0x08, 0x00, 0x00, 0x00,
	0x00, 0x10, 0x00, 0x00,
	0x78, 0x56, 0x34, 0x12,
	// placeholder "test_vrd": size 16, addr 0x2000
	0x02, 0x10, 0x00, 0x00, 0x00,
	't', 'e', 's', 't', '_', 'v', 'r', 'd',
	0x10, 0x00, 0x00, 0x00,
	0x00, 0x20, 0x00, 0x00,
	// transfer-write: addr 0x3000, 4 bytes
	0x04, 0x0c, 0x00, 0x00, 0x00,
	0x00, 0x30, 0x00, 0x00,
	0x04, 0x00, 0x00, 0x00,
	0xaa, 0xbb, 0xcc, 0xdd,
}

func counting(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

// --- Transcoder Test Suite ---

type TranscoderTestSuite struct {
	suite.Suite
	t *Transcoder
}

// SetupTest runs before each test in the suite, ensuring a clean state.
func (s *TranscoderTestSuite) SetupTest() {
	var err error
	s.t, err = New(sampleSequence)
	s.Require().NoError(err)
}

func (s *TranscoderTestSuite) TestCatalog() {
	s.Assert().Equal(1, s.t.Len())
	s.Assert().Equal(3, s.t.Records())
	s.Assert().True(s.t.Has("test_vrd"))
	s.Assert().False(s.t.Has("test"))

	decl, err := s.t.Lookup("test_vrd")
	s.Require().NoError(err)
	s.Assert().Equal(Placeholder{Name: "test_vrd", Size: 16, Addr: 0x2000}, decl.Placeholder)
	s.Assert().False(decl.Filled)
	s.Assert().Nil(decl.Payload)

	_, err = s.t.Lookup("missing")
	s.Assert().ErrorIs(err, ErrNotFound)
	var perr *PlaceholderError
	s.Require().ErrorAs(err, &perr)
	s.Assert().Equal("missing", perr.Name)
}

func (s *TranscoderTestSuite) TestEmitSubstitutesPlaceholder() {
	s.Require().NoError(s.t.Inject("test_vrd", counting(16)))

	out, err := s.t.Emit()
	s.Require().NoError(err)

	expected := []byte{
		0x01, 0x08, 0x00, 0x00, 0x00,
		0x00, 0x10, 0x00, 0x00,
		0x78, 0x56, 0x34, 0x12,
		// transfer-write replacing the declaration
		0x04, 0x18, 0x00, 0x00, 0x00,
		0x00, 0x20, 0x00, 0x00,
		0x10, 0x00, 0x00, 0x00,
		0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
		// transfer-write passed through
		0x04, 0x0c, 0x00, 0x00, 0x00,
		0x00, 0x30, 0x00, 0x00,
		0x04, 0x00, 0x00, 0x00,
		0xaa, 0xbb, 0xcc, 0xdd,
	}
	s.Assert().Equal(expected, out)
	s.Assert().Equal(len(expected), s.t.Size())
	s.Assert().False(bytes.Contains(out, []byte("test_vrd")), "declaration bytes must not survive")

	seq, err := DecodeSequence(out)
	s.Require().NoError(err)
	s.Require().Equal(3, seq.Len())
	s.Assert().Equal(KindDirectWrite, seq.Records[0].Kind)
	s.Assert().Equal(KindTransferWrite, seq.Records[1].Kind)
	s.Assert().Equal(KindTransferWrite, seq.Records[2].Kind)

	transfer, err := ParseTransfer(seq.Records[1].Body)
	s.Require().NoError(err)
	s.Assert().EqualValues(0x2000, transfer.Addr)
	s.Assert().Equal(counting(16), transfer.Data)
}

func (s *TranscoderTestSuite) TestEmitIsIdempotent() {
	s.Require().NoError(s.t.Inject("test_vrd", counting(16)))

	first, err := s.t.Emit()
	s.Require().NoError(err)
	second, err := s.t.Emit()
	s.Require().NoError(err)
	s.Assert().Equal(first, second)

	var buf bytes.Buffer
	n, err := s.t.WriteTo(&buf)
	s.Require().NoError(err)
	s.Assert().EqualValues(len(first), n)
	s.Assert().Equal(first, buf.Bytes())
}

func (s *TranscoderTestSuite) TestSizeMismatch() {
	err := s.t.Inject("test_vrd", counting(15))
	s.Require().Error(err)
	s.Assert().ErrorIs(err, ErrSizeMismatch)
	s.Assert().Contains(err.Error(), "declared 16 bytes, got 15")

	decl, err := s.t.Lookup("test_vrd")
	s.Require().NoError(err)
	s.Assert().False(decl.Filled, "a rejected payload must leave the entry unfilled")

	s.Assert().ErrorIs(s.t.Inject("test_vrd", counting(17)), ErrSizeMismatch)
}

func (s *TranscoderTestSuite) TestInjectUnknownName() {
	err := s.t.Inject("nope", counting(16))
	s.Assert().ErrorIs(err, ErrNotFound)
	s.Assert().Contains(err.Error(), `"nope"`)
}

func (s *TranscoderTestSuite) TestUnfilled() {
	out, err := s.t.Emit()
	s.Require().Error(err)
	s.Assert().Nil(out)
	s.Assert().ErrorIs(err, ErrUnfilled)

	var perr *PlaceholderError
	s.Require().ErrorAs(err, &perr)
	s.Assert().Equal("test_vrd", perr.Name)

	var buf bytes.Buffer
	n, err := s.t.WriteTo(&buf)
	s.Assert().ErrorIs(err, ErrUnfilled)
	s.Assert().Zero(n)
	s.Assert().Zero(buf.Len(), "no partial output")
}

func (s *TranscoderTestSuite) TestReinjectReplacesPayload() {
	s.Require().NoError(s.t.Inject("test_vrd", counting(16)))
	first, err := s.t.Emit()
	s.Require().NoError(err)

	replacement := bytes.Repeat([]byte{0xee}, 16)
	s.Require().NoError(s.t.Inject("test_vrd", replacement))
	second, err := s.t.Emit()
	s.Require().NoError(err)

	s.Assert().NotEqual(first, second)
	s.Assert().True(bytes.Contains(second, replacement))
	decl, _ := s.t.Lookup("test_vrd")
	s.Assert().True(decl.Filled)
	s.Assert().Equal(replacement, decl.Payload)
}

func (s *TranscoderTestSuite) TestPayloadIsCopied() {
	payload := counting(16)
	s.Require().NoError(s.t.Inject("test_vrd", payload))
	payload[0] = 0xff

	decl, _ := s.t.Lookup("test_vrd")
	s.Assert().EqualValues(0, decl.Payload[0])

	// Snapshots do not alias the catalog either.
	decl.Payload[1] = 0xff
	again, _ := s.t.Lookup("test_vrd")
	s.Assert().EqualValues(1, again.Payload[1])
}

func (s *TranscoderTestSuite) TestInjectFrom() {
	src := bytes.NewReader(append(counting(16), 0x99))
	s.Require().NoError(s.t.InjectFrom("test_vrd", src))
	s.Assert().Equal(1, src.Len(), "exactly the declared size is consumed")

	decl, _ := s.t.Lookup("test_vrd")
	s.Assert().Equal(counting(16), decl.Payload)

	err := s.t.InjectFrom("test_vrd", bytes.NewReader(counting(3)))
	s.Assert().ErrorIs(err, ErrSizeMismatch)
	s.Assert().Contains(err.Error(), "stream ended after 3")

	s.Assert().ErrorIs(s.t.InjectFrom("nope", bytes.NewReader(nil)), ErrNotFound)
}

// TestTranscoder runs the TranscoderTestSuite.
func TestTranscoder(t *testing.T) {
	suite.Run(t, new(TranscoderTestSuite))
}

// --- Standalone Transcoder Tests ---

func TestPassthrough(t *testing.T) {
	var b Builder
	b.DirectWrite(0x10, 1).
		Transfer(0x20, []byte{1, 2, 3}).
		Raw(KindDirectWrite, []byte{9, 9, 9}). // direct-write bodies are opaque
		Transfer(0x30, nil).
		DirectWrite(0x40, 0xffffffff)
	input := b.Bytes()

	tr, err := New(input)
	require.NoError(t, err)
	assert.Zero(t, tr.Len())

	out, err := tr.Emit()
	require.NoError(t, err)
	assert.Equal(t, input, out)
}

func TestLargeBodiesKeepRecordOffsets(t *testing.T) {
	const bodyLen = 1 << 20
	var b Builder
	b.Transfer(0x20, counting(bodyLen)).
		Placeholder("fw", 4, 0x1000).
		Raw(KindDirectWrite, counting(bodyLen))
	input := b.Bytes()

	tr, err := New(input)
	require.NoError(t, err)
	assert.Equal(t, 3, tr.Records())
	decl, err := tr.Lookup("fw")
	require.NoError(t, err)
	assert.EqualValues(t, 4, decl.Size)

	require.NoError(t, tr.Inject("fw", []byte{1, 2, 3, 4}))
	out, err := tr.Emit()
	require.NoError(t, err)
	assert.Equal(t, input[:HeaderLen+transferHeaderLen+bodyLen], out[:HeaderLen+transferHeaderLen+bodyLen])
	assert.Equal(t, input[len(input)-HeaderLen-bodyLen:], out[len(out)-HeaderLen-bodyLen:])

	// A header cut short after the large records is reported at its own offset.
	_, err = New(append(bytes.Clone(input), 0x01, 0x02))
	var rerr *RecordError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, len(input), rerr.Offset)
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestEmptyInput(t *testing.T) {
	tr, err := New(nil)
	require.NoError(t, err)
	assert.Zero(t, tr.Len())
	assert.Zero(t, tr.Records())

	out, err := tr.Emit()
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestInputIsCopied(t *testing.T) {
	input := bytes.Clone(sampleSequence)
	tr, err := New(input)
	require.NoError(t, err)
	clear(input)

	require.NoError(t, tr.Inject("test_vrd", counting(16)))
	out, err := tr.Emit()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x08, 0x00, 0x00, 0x00}, out[:5])
}

func TestDuplicateNameLastWins(t *testing.T) {
	var b Builder
	b.Placeholder("vrd", 4, 0x1000).
		DirectWrite(0x5000, 7).
		Placeholder("vrd", 2, 0x2000)

	tr, err := New(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Len())

	decl, err := tr.Lookup("vrd")
	require.NoError(t, err)
	assert.EqualValues(t, 2, decl.Size)
	assert.EqualValues(t, 0x2000, decl.Addr)

	assert.ErrorIs(t, tr.Inject("vrd", []byte{1, 2, 3, 4}), ErrSizeMismatch)
	require.NoError(t, tr.Inject("vrd", []byte{0xab, 0xcd}))

	out, err := tr.Emit()
	require.NoError(t, err)

	// Both declarations become transfers of the surviving declaration.
	var want Builder
	want.Transfer(0x2000, []byte{0xab, 0xcd}).
		DirectWrite(0x5000, 7).
		Transfer(0x2000, []byte{0xab, 0xcd})
	assert.Equal(t, want.Bytes(), out)
}

func TestFirstUnfilledFollowsDeclarationOrder(t *testing.T) {
	var b Builder
	b.Placeholder("zeta", 1, 0).
		Placeholder("alpha", 1, 0).
		Placeholder("mid", 1, 0)

	tr, err := New(b.Bytes())
	require.NoError(t, err)

	names := []string{}
	for _, decl := range tr.Placeholders() {
		names = append(names, decl.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)

	require.NoError(t, tr.Inject("zeta", []byte{1}))
	_, err = tr.Emit()
	var perr *PlaceholderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "alpha", perr.Name)
}

func TestZeroSizePlaceholder(t *testing.T) {
	var b Builder
	b.Placeholder("empty", 0, 0x4000)

	tr, err := New(b.Bytes())
	require.NoError(t, err)
	require.NoError(t, tr.Inject("empty", nil))

	out, err := tr.Emit()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x04, 0x08, 0x00, 0x00, 0x00,
		0x00, 0x40, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}, out)
}

func TestNamesAreRawBytes(t *testing.T) {
	name := "vrd\x00\xff"
	var b Builder
	b.Placeholder(name, 1, 0).Placeholder("vrd", 1, 0)

	tr, err := New(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())
	assert.True(t, tr.Has(name))
	assert.False(t, tr.Has("VRD"))
}

func TestParseErrors(t *testing.T) {
	t.Run("TruncatedHeader", func(t *testing.T) {
		input := append(bytes.Clone(sampleSequence), 0x01, 0x08, 0x00)
		_, err := New(input)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTruncatedData)

		var rerr *RecordError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, len(sampleSequence), rerr.Offset)
	})

	t.Run("BodyPastEnd", func(t *testing.T) {
		input := bytes.Clone(sampleSequence[:len(sampleSequence)-1])
		_, err := New(input)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTruncatedData)
		assert.Contains(t, err.Error(), "body of 12 bytes, 11 remain")
	})

	t.Run("HugeLength", func(t *testing.T) {
		_, err := New([]byte{0x01, 0xff, 0xff, 0xff, 0xff, 0x00})
		assert.ErrorIs(t, err, ErrTruncatedData)
	})

	t.Run("ShortDeclaration", func(t *testing.T) {
		var b Builder
		b.Raw(KindPlaceholder, []byte{1, 2, 3, 4, 5, 6, 7})
		_, err := New(b.Bytes())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTruncatedData)

		var rerr *RecordError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, byte(KindPlaceholder), rerr.Tag)
	})

	t.Run("EmptyName", func(t *testing.T) {
		var b Builder
		b.Raw(KindPlaceholder, make([]byte, 8))
		_, err := New(b.Bytes())
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("UnknownTag", func(t *testing.T) {
		var b Builder
		b.DirectWrite(0, 0).Raw(Kind(0x07), []byte{1})
		_, err := New(b.Bytes())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownKind)

		var rerr *RecordError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, byte(0x07), rerr.Tag)
		assert.Equal(t, 13, rerr.Offset)
		assert.Contains(t, err.Error(), "tag 0x07")
	})

	t.Run("MaxBodyLen", func(t *testing.T) {
		_, err := NewWithOptions(sampleSequence, &Options{MaxBodyLen: 15})
		assert.ErrorIs(t, err, ErrRecordTooLarge)

		_, err = NewWithOptions(sampleSequence, &Options{MaxBodyLen: 16})
		assert.NoError(t, err)
	})

	t.Run("OversizedDeclaration", func(t *testing.T) {
		var b Builder
		b.Placeholder("big", 0xfffffffc, 0)
		_, err := New(b.Bytes())
		assert.ErrorIs(t, err, ErrRecordTooLarge)
		assert.Contains(t, err.Error(), `placeholder "big" declares 4294967292 bytes`)

		// The largest size whose transfer-write length still fits in 32 bits.
		var edge Builder
		edge.Placeholder("edge", 0xfffffff7, 0)
		tr, err := New(edge.Bytes())
		require.NoError(t, err)
		assert.Equal(t, 1, tr.Len())
	})
}

func TestLegacyBinary(t *testing.T) {
	var b Builder
	b.DirectWrite(0x10, 1).Legacy([]byte{0xde, 0xad}).Placeholder("vrd", 1, 0)
	input := b.Bytes()

	t.Run("RejectedAtEmit", func(t *testing.T) {
		tr, err := New(input)
		require.NoError(t, err, "legacy records parse by default")
		assert.Equal(t, 1, tr.Len(), "placeholders after a legacy record are still cataloged")
		require.NoError(t, tr.Inject("vrd", []byte{1}))

		var buf bytes.Buffer
		_, err = tr.WriteTo(&buf)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownKind)
		assert.Zero(t, buf.Len())

		var rerr *RecordError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, byte(KindLegacyBinary), rerr.Tag)
		assert.Equal(t, 13, rerr.Offset)
	})

	t.Run("RejectedAtParse", func(t *testing.T) {
		_, err := NewWithOptions(input, &Options{RejectLegacy: true})
		assert.ErrorIs(t, err, ErrUnknownKind)
	})
}

func TestReadTranscoder(t *testing.T) {
	tr, err := ReadTranscoder(strings.NewReader(string(sampleSequence)), nil)
	require.NoError(t, err)
	assert.True(t, tr.Has("test_vrd"))

	_, err = ReadTranscoder(iotestErrReader{}, nil)
	assert.Error(t, err)
}

type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) { return 0, errors.New("source unavailable") }

func TestErrorMessages(t *testing.T) {
	err := (&PlaceholderError{Name: "vrd", Err: ErrUnfilled}).Error()
	assert.Equal(t, `initseq: placeholder not filled (placeholder "vrd")`, err)

	err = (&RecordError{Offset: 42, Tag: 0x03, Err: ErrUnknownKind}).Error()
	assert.Equal(t, "initseq: unknown record kind (tag 0x03 at offset 42)", err)
}
