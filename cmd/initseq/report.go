package main

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/oy3o/initseq"
)

// catalogReport is the CBOR document written by --catalog.
type catalogReport struct {
	Input        string              `cbor:"input"`
	Records      int                 `cbor:"records"`
	Placeholders []placeholderReport `cbor:"placeholders"`
}

type placeholderReport struct {
	Name   string `cbor:"name"`
	Size   uint32 `cbor:"size"`
	Addr   uint32 `cbor:"addr"`
	Filled bool   `cbor:"filled"`
	// Digest is the BLAKE3-256 of the payload, present once filled.
	Digest []byte `cbor:"digest,omitempty"`
}

// encMode uses Core Deterministic Encoding so identical catalogs produce
// identical reports.
var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("initseq: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}()

func buildCatalogReport(input string, t *initseq.Transcoder) catalogReport {
	report := catalogReport{Input: input, Records: t.Records()}
	for _, decl := range t.Placeholders() {
		entry := placeholderReport{
			Name:   decl.Name,
			Size:   decl.Size,
			Addr:   decl.Addr,
			Filled: decl.Filled,
		}
		if decl.Filled {
			digest := initseq.Sum(decl.Payload)
			entry.Digest = digest[:]
		}
		report.Placeholders = append(report.Placeholders, entry)
	}
	return report
}

func writeCatalogReport(path, input string, t *initseq.Transcoder) error {
	data, err := encMode.Marshal(buildCatalogReport(input, t))
	if err != nil {
		return fmt.Errorf("encoding catalog report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
