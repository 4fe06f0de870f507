package initseq

// Builder assembles an init sequence record by record.
//
//	var b initseq.Builder
//	b.DirectWrite(0x1000, 0x12345678).
//		Placeholder("vrd", 16, 0x2000).
//		Transfer(0x3000, []byte{0xAA, 0xBB, 0xCC, 0xDD})
//	data := b.Bytes()
type Builder struct {
	seq Sequence
}

// DirectWrite appends a register write of value to addr.
func (b *Builder) DirectWrite(addr, value uint32) *Builder {
	b.seq.Append(DirectWrite(addr, value))
	return b
}

// Placeholder appends a declaration for size bytes of resident data bound for addr.
func (b *Builder) Placeholder(name string, size, addr uint32) *Builder {
	b.seq.Append(Placeholder{Name: name, Size: size, Addr: addr}.Record())
	return b
}

// Transfer appends a transfer-write of data to addr.
func (b *Builder) Transfer(addr uint32, data []byte) *Builder {
	b.seq.Append(Transfer{Addr: addr, Data: data}.Record())
	return b
}

// Legacy appends a legacy-binary record with an opaque body.
func (b *Builder) Legacy(body []byte) *Builder {
	b.seq.Append(Record{Kind: KindLegacyBinary, Body: body})
	return b
}

// Raw appends an arbitrary record, including ones with unknown tags.
func (b *Builder) Raw(kind Kind, body []byte) *Builder {
	b.seq.Append(Record{Kind: kind, Body: body})
	return b
}

// Sequence returns the records appended so far.
func (b *Builder) Sequence() *Sequence {
	return &Sequence{Records: append([]Record(nil), b.seq.Records...)}
}

// Bytes encodes the records appended so far.
func (b *Builder) Bytes() []byte {
	// Encoding into a buffer of exactly Size() bytes cannot fail.
	data, _ := b.seq.MarshalBinary()
	return data
}
