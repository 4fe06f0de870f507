package initseq

import (
	"fmt"
	"io"
)

// dumpPreviewLen caps the hex preview of opaque bodies and transfer data.
const dumpPreviewLen = 16

// Dump writes one line per record of data to w: index, offset, kind, body
// length and whatever fields the kind defines. Records are listed up to the
// first one that cannot be framed, whose error is returned.
func Dump(w io.Writer, data []byte) error {
	r := NewBytesReader(data)
	for i := 0; ; i++ {
		offset := r.Offset()
		var record Record
		if _, err := record.ReadFrom(r); err != nil {
			if err == io.EOF {
				return nil
			}
			return &RecordError{Offset: offset, Tag: tagAt(data, offset), Err: err}
		}

		if _, err := fmt.Fprintf(w, "#%-3d @0x%08x  %-15s len=%-6d %s\n",
			i, offset, record.Kind, len(record.Body), describe(record)); err != nil {
			return err
		}
	}
}

func tagAt(data []byte, offset int) byte {
	if offset < len(data) {
		return data[offset]
	}
	return 0
}

func describe(record Record) string {
	switch record.Kind {
	case KindDirectWrite:
		if addr, value, ok := ParseDirectWrite(record.Body); ok {
			return fmt.Sprintf("addr=0x%08x value=0x%08x", addr, value)
		}
	case KindPlaceholder:
		p, err := ParsePlaceholder(record.Body)
		if err != nil {
			return fmt.Sprintf("malformed: %v", err)
		}
		return fmt.Sprintf("name=%q size=%d addr=0x%08x", p.Name, p.Size, p.Addr)
	case KindTransferWrite:
		t, err := ParseTransfer(record.Body)
		if err != nil {
			return fmt.Sprintf("malformed: %v", err)
		}
		return fmt.Sprintf("addr=0x%08x size=%d data=%s", t.Addr, len(t.Data), hexPreview(t.Data, dumpPreviewLen))
	}
	return "body=" + hexPreview(record.Body, dumpPreviewLen)
}
