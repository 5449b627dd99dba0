package hasher

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrHashLengthMismatch is returned when comparing fingerprints of
	// different lengths.
	ErrHashLengthMismatch = errors.New("hash length mismatch")

	// ErrInvalidHex is returned for fingerprints containing characters
	// outside [0-9a-fA-F].
	ErrInvalidHex = errors.New("invalid hex fingerprint")
)

// PackBits packs bits most-significant-bit first: bits[0] lands in bit
// 7 of byte 0. A trailing partial byte is zero-padded.
func PackBits(bs []bool) []byte {
	out := make([]byte, (len(bs)+7)/8)
	for i, b := range bs {
		if b {
			out[i>>3] |= 0x80 >> (i & 7)
		}
	}
	return out
}

// EncodeBits renders bits as lowercase hex, one character per nibble,
// ceil(len(bs)/4) characters long. The padding nibble of a packed byte
// is dropped when the bit count ends inside the first half of a byte.
func EncodeBits(bs []bool) string {
	s := hex.EncodeToString(PackBits(bs))
	return s[:(len(bs)+3)/4]
}

// HexLen returns the length of EncodeBits output for n bits.
func HexLen(n int) int {
	return (n + 3) / 4
}

// Distance returns the Hamming distance between two hex fingerprints of
// equal length. Case is ignored.
func Distance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d chars", ErrHashLengthMismatch, len(a), len(b))
	}
	d := 0
	for i := 0; i < len(a); i++ {
		x, ok := nibble(a[i])
		y, ok2 := nibble(b[i])
		if !ok || !ok2 {
			return 0, fmt.Errorf("%w: position %d", ErrInvalidHex, i)
		}
		d += bits.OnesCount8(x ^ y)
	}
	return d, nil
}

// Fingerprint is a hex fingerprint decoded once for repeated
// comparison, packed 16 nibbles per word.
type Fingerprint struct {
	words  []uint64
	hexLen int
}

// ParseFingerprint decodes a hex fingerprint. Case is ignored.
func ParseFingerprint(s string) (Fingerprint, error) {
	f := Fingerprint{words: make([]uint64, (len(s)+15)/16), hexLen: len(s)}
	for i := 0; i < len(s); i++ {
		x, ok := nibble(s[i])
		if !ok {
			return Fingerprint{}, fmt.Errorf("%w: position %d", ErrInvalidHex, i)
		}
		f.words[i/16] |= uint64(x) << (60 - 4*(i%16))
	}
	return f, nil
}

// Len returns the number of hex characters the fingerprint was parsed from.
func (f Fingerprint) Len() int { return f.hexLen }

// Distance returns the Hamming distance to o. Both must come from hex
// strings of the same length.
func (f Fingerprint) Distance(o Fingerprint) (int, error) {
	if f.hexLen != o.hexLen {
		return 0, fmt.Errorf("%w: %d vs %d chars", ErrHashLengthMismatch, f.hexLen, o.hexLen)
	}
	d := 0
	for i, w := range f.words {
		d += bits.OnesCount64(w ^ o.words[i])
	}
	return d, nil
}

func nibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
