// Package resample rescales raster data with a separable Lanczos-3
// filter.
//
// Resize operates on RGBA pixel buffers and treats all four channels as
// independent scalar fields; nothing is premultiplied by alpha.
// ResizePlane applies the same filter to a single float channel and is
// what the hashers use for their working grids.
//
// Both functions are pure: they never retain or modify their input and
// always return freshly allocated output. Samples outside the source
// are clamped to the nearest edge.
package resample

import (
	"fmt"
	"math"

	"github.com/AnyUserName/imgprint/internal/raster"
)

// Resize rescales a width×height RGBA buffer to newWidth×newHeight.
//
// It fails with raster.ErrInvalidDimensions if any dimension is not
// positive and with raster.ErrDimensionMismatch if len(pix) is not
// width*height*4. Output bytes are rounded to nearest and clamped to
// [0, 255] since Lanczos lobes overshoot at sharp edges.
func Resize(pix []byte, width, height, newWidth, newHeight int) ([]byte, error) {
	if err := checkTarget(width, height, newWidth, newHeight, raster.BytesPerPixel); err != nil {
		return nil, err
	}
	if err := raster.Validate(pix, width, height); err != nil {
		return nil, err
	}

	stride := width * raster.BytesPerPixel
	acc := convolve(func(y int, buf []float64) []float64 {
		for i, v := range pix[y*stride : (y+1)*stride] {
			buf[i] = float64(v)
		}
		return buf
	}, width, height, raster.BytesPerPixel, newWidth, newHeight)

	out := make([]byte, len(acc))
	for i, v := range acc {
		out[i] = toByte(v)
	}
	return out, nil
}

// ResizeLuma converts a width×height RGBA buffer to luma and rescales
// it to a newWidth×newHeight plane in one go. Luma is computed a row at
// a time, so no full-resolution plane is ever held. Values are neither
// rounded nor clamped.
func ResizeLuma(pix []byte, width, height, newWidth, newHeight int) ([]float64, error) {
	if err := checkTarget(width, height, newWidth, newHeight, 1); err != nil {
		return nil, err
	}
	if err := raster.Validate(pix, width, height); err != nil {
		return nil, err
	}

	stride := width * raster.BytesPerPixel
	return convolve(func(y int, buf []float64) []float64 {
		raster.LumaRow(pix[y*stride:(y+1)*stride], buf)
		return buf
	}, width, height, 1, newWidth, newHeight), nil
}

// ResizePlane rescales a single-channel width×height plane to
// newWidth×newHeight. Values are neither rounded nor clamped.
func ResizePlane(src []float64, width, height, newWidth, newHeight int) ([]float64, error) {
	if err := checkTarget(width, height, newWidth, newHeight, 1); err != nil {
		return nil, err
	}
	if height > math.MaxInt/width || len(src) != width*height {
		return nil, fmt.Errorf("%w: %dx%d plane, got %d samples",
			raster.ErrDimensionMismatch, width, height, len(src))
	}
	return convolve(func(y int, _ []float64) []float64 {
		return src[y*width : (y+1)*width]
	}, width, height, 1, newWidth, newHeight), nil
}

func checkTarget(width, height, newWidth, newHeight, channels int) error {
	if err := raster.CheckDimensions(width, height, newWidth, newHeight); err != nil {
		return err
	}
	if newHeight > math.MaxInt/channels/newWidth {
		return fmt.Errorf("%w: %dx%d output is not addressable",
			raster.ErrInvalidDimensions, newWidth, newHeight)
	}
	return nil
}

// rowReader returns source row y as w*ch interleaved samples. It may
// fill and return buf or return a slice it already owns; the result is
// only read until the next call.
type rowReader func(y int, buf []float64) []float64

// convolve streams the source one row at a time: each row is filtered
// horizontally to nw samples and then scattered into every output row
// whose vertical taps reference it. Only the nw×nh result and two row
// buffers are allocated, whatever the source size. ch is the number of
// interleaved channels per sample.
func convolve(read rowReader, w, h, ch, nw, nh int) []float64 {
	xs := axisWeights(w, nw)
	ys := scatterTaps(axisWeights(h, nh), h)

	stride := nw * ch
	dst := make([]float64, stride*nh)
	buf := make([]float64, w*ch)
	row := make([]float64, stride)

	for y, uses := range ys {
		if len(uses) == 0 {
			continue
		}
		in := read(y, buf)

		clear(row)
		for x, taps := range xs {
			d := row[x*ch : (x+1)*ch]
			for _, t := range taps {
				s := in[t.index*ch : (t.index+1)*ch]
				for c := range d {
					d[c] += t.weight * s[c]
				}
			}
		}

		for _, u := range uses {
			out := dst[u.index*stride : (u.index+1)*stride]
			for i := range out {
				out[i] += u.weight * row[i]
			}
		}
	}
	return dst
}

// scatterTaps inverts per-destination taps into per-source lists: entry
// u of the result holds {destination, weight} for every destination
// that reads source sample u. Destinations stay in ascending order, so
// each output accumulates its taps in the same order as a gather would.
func scatterTaps(taps [][]tap, srcSize int) [][]tap {
	out := make([][]tap, srcSize)
	for v, ts := range taps {
		for _, t := range ts {
			out[t.index] = append(out[t.index], tap{index: v, weight: t.weight})
		}
	}
	return out
}

func toByte(v float64) byte {
	v = math.Round(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v)
}
