// Package phash computes DCT-based perceptual hashes of RGBA pixel
// buffers.
//
// Pipeline, with every convention fixed so fingerprints stay comparable
// across calls and versions:
//
//  1. Rec. 601 luma at source resolution (alpha ignored).
//  2. Lanczos-3 resample of the luma plane to N×N, N = hashSize·4.
//  3. Orthonormal 2-D DCT-II; keep the top-left hashSize×hashSize block.
//  4. Drop the DC coefficient [0][0]. Threshold the remaining
//     hashSize²−1 coefficients, row-major, against their median:
//     bit = coefficient > median.
//  5. Pack MSB-first and render as lowercase hex,
//     ceil((hashSize²−1)/4) characters.
//
// Near-duplicate images produce fingerprints with a small Hamming
// distance (see hasher.Distance); unrelated images land near half the
// bit count.
package phash

import (
	"fmt"
	"slices"

	"github.com/AnyUserName/imgprint/internal/hasher"
	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/AnyUserName/imgprint/internal/resample"
)

const (
	// DefaultHashSize yields 255-bit fingerprints, 64 hex characters.
	DefaultHashSize = 16

	// HighFreqFactor is the ratio of the working grid to the hash grid.
	HighFreqFactor = 4

	// MinHashSize is the smallest grid with at least one AC coefficient.
	MinHashSize = 2

	// MaxHashSize bounds the working grid at 256×256.
	MaxHashSize = 64
)

// CheckHashSize returns raster.ErrInvalidHashSize for sizes outside
// [MinHashSize, MaxHashSize].
func CheckHashSize(hashSize int) error {
	if hashSize < MinHashSize || hashSize > MaxHashSize {
		return fmt.Errorf("%w: %d (want %d..%d)",
			raster.ErrInvalidHashSize, hashSize, MinHashSize, MaxHashSize)
	}
	return nil
}

// BitLen is the number of fingerprint bits for hashSize.
func BitLen(hashSize int) int {
	return hashSize*hashSize - 1
}

// HexLen is the length of the hex fingerprint for hashSize.
func HexLen(hashSize int) int {
	return hasher.HexLen(BitLen(hashSize))
}

// Hash returns the perceptual hash of a width×height RGBA buffer.
func Hash(pix []byte, width, height, hashSize int) (string, error) {
	if err := raster.Validate(pix, width, height); err != nil {
		return "", err
	}
	if err := CheckHashSize(hashSize); err != nil {
		return "", err
	}

	n := hashSize * HighFreqFactor
	grid, err := resample.ResizeLuma(pix, width, height, n, n)
	if err != nil {
		return "", fmt.Errorf("downscale: %w", err)
	}

	ac := lowFrequencies(lowDCT(grid, n, hashSize), hashSize)
	return hasher.EncodeBits(threshold(ac)), nil
}

// HashDefault is Hash with DefaultHashSize.
func HashDefault(pix []byte, width, height int) (string, error) {
	return Hash(pix, width, height, DefaultHashSize)
}

// lowFrequencies flattens a k×k coefficient block row-major, skipping DC.
func lowFrequencies(block []float64, k int) []float64 {
	return block[1 : k*k]
}

func threshold(ac []float64) []bool {
	m := median(ac)
	out := make([]bool, len(ac))
	for i, v := range ac {
		out[i] = v > m
	}
	return out
}

func median(vals []float64) float64 {
	s := slices.Clone(vals)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
