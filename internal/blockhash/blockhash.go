// Package blockhash computes block mean value hashes: the image is
// resampled to a fixed 256×256 grid, split into bits×bits blocks, and
// each block's summed brightness is compared against the median of its
// horizontal band.
package blockhash

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/AnyUserName/imgprint/internal/hasher"
	"github.com/AnyUserName/imgprint/internal/raster"
	"github.com/AnyUserName/imgprint/internal/resample"
)

// Method selects how pixels are assigned to blocks.
type Method int

const (
	// MethodEven uses integer block sizes; trailing pixels that do not
	// fill a block are ignored.
	MethodEven Method = 1
	// MethodFractional splits pixels that straddle a block boundary
	// between the neighbouring blocks.
	MethodFractional Method = 2
)

const (
	// DefaultBits gives a 256-bit hash.
	DefaultBits = 16

	workSize = 256
	bands    = 4
	// Fully transparent pixels count as white.
	transparentValue = 765
)

// ErrInvalidMethod is returned for a Method other than 1 or 2.
var ErrInvalidMethod = errors.New("invalid blockhash method")

// CheckBits validates a block count.
func CheckBits(bits int) error {
	if bits < 4 || bits > workSize || bits%2 != 0 {
		return fmt.Errorf("%w: blockhash bits %d (want even, 4..%d)",
			raster.ErrInvalidHashSize, bits, workSize)
	}
	return nil
}

// Hash returns the bits×bits block mean value hash of a width×height
// RGBA buffer as bits²/4 hex characters.
func Hash(pix []byte, width, height, bits int, method Method) (string, error) {
	if err := raster.Validate(pix, width, height); err != nil {
		return "", err
	}
	if err := CheckBits(bits); err != nil {
		return "", err
	}
	if method != MethodEven && method != MethodFractional {
		return "", fmt.Errorf("%w: %d", ErrInvalidMethod, method)
	}

	work, err := resample.Resize(pix, width, height, workSize, workSize)
	if err != nil {
		return "", fmt.Errorf("resample: %w", err)
	}

	var blocks []float64
	var perBlock float64
	if method == MethodEven || workSize%bits == 0 {
		blocks, perBlock = evenBlocks(work, workSize, workSize, bits)
	} else {
		blocks, perBlock = fractionalBlocks(work, workSize, workSize, bits)
	}
	return hasher.EncodeBits(toBits(blocks, perBlock)), nil
}

func pixelValue(pix []byte, off int) float64 {
	if pix[off+3] == 0 {
		return transparentValue
	}
	return float64(pix[off]) + float64(pix[off+1]) + float64(pix[off+2])
}

func evenBlocks(pix []byte, w, h, bits int) ([]float64, float64) {
	bw, bh := w/bits, h/bits
	blocks := make([]float64, bits*bits)
	for by := 0; by < bits; by++ {
		for bx := 0; bx < bits; bx++ {
			var total float64
			for iy := 0; iy < bh; iy++ {
				off := ((by*bh+iy)*w + bx*bw) * raster.BytesPerPixel
				for ix := 0; ix < bw; ix++ {
					total += pixelValue(pix, off)
					off += raster.BytesPerPixel
				}
			}
			blocks[by*bits+bx] = total
		}
	}
	return blocks, float64(bw * bh)
}

// span locates pixel i along an axis of fractional block size bs: the
// two blocks it contributes to and the weight of the first.
func span(i, size, bits int, bs float64) (lo, hi int, wLo float64) {
	mod := math.Mod(float64(i+1), bs)
	frac := mod - math.Floor(mod)
	lo = int(float64(i) / bs)
	hi = lo
	// Boundary falls inside this pixel unless the integral part is
	// non-zero or this is the last pixel.
	if mod-frac == 0 && i+1 != size {
		hi = min(int(math.Ceil(float64(i)/bs)), bits-1)
	}
	return lo, hi, 1 - frac
}

func fractionalBlocks(pix []byte, w, h, bits int) ([]float64, float64) {
	bw := float64(w) / float64(bits)
	bh := float64(h) / float64(bits)
	blocks := make([]float64, bits*bits)

	for y := 0; y < h; y++ {
		top, bottom, wTop := span(y, h, bits, bh)
		wBottom := 1 - wTop
		for x := 0; x < w; x++ {
			left, right, wLeft := span(x, w, bits, bw)
			wRight := 1 - wLeft
			v := pixelValue(pix, (y*w+x)*raster.BytesPerPixel)

			blocks[top*bits+left] += v * wTop * wLeft
			blocks[top*bits+right] += v * wTop * wRight
			blocks[bottom*bits+left] += v * wBottom * wLeft
			blocks[bottom*bits+right] += v * wBottom * wRight
		}
	}
	return blocks, bw * bh
}

// toBits thresholds each horizontal band against its own median. When
// a block ties the median (images dominated by pure black or white) the
// bit follows which half of the value range the median sits in.
func toBits(blocks []float64, perBlock float64) []bool {
	half := perBlock * 256 * 3 / 2
	bandSize := len(blocks) / bands
	out := make([]bool, len(blocks))
	for b := 0; b < bands; b++ {
		band := blocks[b*bandSize : (b+1)*bandSize]
		m := median(band)
		for i, v := range band {
			out[b*bandSize+i] = v > m || (math.Abs(v-m) < 1 && m > half)
		}
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
