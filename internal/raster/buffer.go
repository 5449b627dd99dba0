// Package raster defines the pixel buffer boundary shared by the
// resampler and the hashers: validation of (pixels, width, height)
// triples, the error taxonomy, luminance conversion, and conversion
// from and to image.Image for the CLI layer.
//
// A pixel buffer is a row-major RGBA byte slice, one byte per channel,
// no padding, exactly width*height*4 bytes long. Alpha is not
// premultiplied.
package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// BytesPerPixel is the channel count of a pixel buffer.
const BytesPerPixel = 4

// Rec. 601 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// CheckDimensions returns ErrInvalidDimensions if any of dims is not positive.
func CheckDimensions(dims ...int) error {
	for _, d := range dims {
		if d <= 0 {
			return fmt.Errorf("%w: %v", ErrInvalidDimensions, dims)
		}
	}
	return nil
}

// Validate checks that pix is a well-formed width×height pixel buffer.
// Dimensions are checked before the buffer length.
func Validate(pix []byte, width, height int) error {
	if err := CheckDimensions(width, height); err != nil {
		return err
	}
	// width*height*4 would overflow int; no slice can be that long.
	if height > math.MaxInt/BytesPerPixel/width {
		return fmt.Errorf("%w: %dx%d exceeds addressable size, got %d bytes",
			ErrDimensionMismatch, width, height, len(pix))
	}
	if want := width * height * BytesPerPixel; len(pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d",
			ErrDimensionMismatch, width, height, want, len(pix))
	}
	return nil
}

// LumaRow writes the Rec.601 luma of each pixel in row to dst, in
// [0, 255]. Alpha is ignored. dst must hold len(row)/4 samples.
func LumaRow(row []byte, dst []float64) {
	for i, off := 0, 0; off+BytesPerPixel <= len(row); i, off = i+1, off+BytesPerPixel {
		dst[i] = lumaR*float64(row[off]) +
			lumaG*float64(row[off+1]) +
			lumaB*float64(row[off+2])
	}
}

// FromImage flattens any image.Image into a non-premultiplied pixel
// buffer. The returned slice is owned by the caller.
func FromImage(img image.Image) (pix []byte, width, height int) {
	// Clone always allocates a fresh NRGBA with a tight stride.
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return nrgba.Pix, b.Dx(), b.Dy()
}

// ToImage wraps a copy of pix as an *image.NRGBA.
func ToImage(pix []byte, width, height int) (*image.NRGBA, error) {
	if err := Validate(pix, width, height); err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	copy(img.Pix, pix)
	return img, nil
}
