package initseq

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// memHexLine matches "@<word address> <hex data>". Anything else is ignored.
var memHexLine = regexp.MustCompile(`^@([0-9A-Fa-f]+)\s+([0-9A-Fa-f\s]+)`)

// Segment is a contiguous run of bytes at a byte address.
type Segment struct {
	Addr uint32
	Data []byte
}

// End returns the address one past the last byte of the segment.
func (s Segment) End() uint64 { return uint64(s.Addr) + uint64(len(s.Data)) }

// DecodeMemHex reads a memory dump in the "@ADDR DATA" format produced by
// firmware toolchains. ADDR is a hex word address; the byte address is
// base + ADDR*4. DATA is hex with optional inner whitespace. Eight digits or
// fewer are left-padded with zeros to one 32-bit word; longer data is decoded
// byte for byte and must have an even number of digits. A repeated address
// keeps the last line. Segments are returned sorted by address with
// contiguous runs merged.
func DecodeMemHex(r io.Reader, base uint32) ([]Segment, error) {
	words := make(map[uint32][]byte)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		m := memHexLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		word, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: address %q: %v", ErrInvalidMemHex, lineNo, m[1], err)
		}
		addr := uint64(base) + word*4
		if word > math.MaxUint32 || addr > math.MaxUint32 {
			return nil, fmt.Errorf("%w: line %d: address 0x%s out of range", ErrInvalidMemHex, lineNo, m[1])
		}

		digits := strings.Join(strings.Fields(m[2]), "")
		if digits == "" {
			continue
		}
		// A single word is zero-extended; longer runs are decoded as is.
		if len(digits) <= 8 {
			digits = strings.Repeat("0", Roundup(len(digits), 8)-len(digits)) + digits
		}
		data, err := hex.DecodeString(digits)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidMemHex, lineNo, err)
		}
		words[uint32(addr)] = data
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return mergeSegments(words), nil
}

func mergeSegments(words map[uint32][]byte) []Segment {
	addrs := make([]uint32, 0, len(words))
	for addr := range words {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)

	var segments []Segment
	for _, addr := range addrs {
		if n := len(segments); n > 0 && segments[n-1].End() == uint64(addr) {
			segments[n-1].Data = append(segments[n-1].Data, words[addr]...)
			continue
		}
		segments = append(segments, Segment{Addr: addr, Data: slices.Clone(words[addr])})
	}
	return segments
}

// Image flattens segments into one buffer starting at the lowest address.
// Gaps are zero-filled; where segments overlap, later ones win.
func Image(segments []Segment) (addr uint32, data []byte) {
	if len(segments) == 0 {
		return 0, nil
	}
	low, high := uint64(math.MaxUint32), uint64(0)
	for _, s := range segments {
		low = min(low, uint64(s.Addr))
		high = max(high, s.End())
	}
	data = make([]byte, high-low)
	for _, s := range segments {
		copy(data[uint64(s.Addr)-low:], s.Data)
	}
	return uint32(low), data
}
