// Package hasher holds the byte-level helpers shared by the
// fingerprinting code: xxHash64 content addressing for exact
// duplicates, MSB-first bit packing with hex rendering, and Hamming
// distance between hex fingerprints.
package hasher

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to the given length. The scan index uses 16 hex chars
// (64 bits) to detect byte-identical files.
func ContentHash(data []byte, hexLen int) string {
	return truncHex(xxhash.Sum64(data), hexLen)
}

func truncHex(v uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
