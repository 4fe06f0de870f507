package initseq

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is a BLAKE3-256 hash.
type Digest [32]byte

// Sum hashes data, typically an encoded sequence or a payload.
func Sum(data []byte) Digest {
	return blake3.Sum256(data)
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
