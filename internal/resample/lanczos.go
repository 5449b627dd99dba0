package resample

import "math"

// Support is the Lanczos window radius a. The kernel is
// sinc(x)·sinc(x/a) on |x| < a and zero elsewhere.
const Support = 3.0

// Weights with magnitude below epsilon are treated as zero so that
// an identity resize reproduces its input exactly.
const epsilon = 1e-9

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	x *= math.Pi
	return math.Sin(x) / x
}

// kernel evaluates the Lanczos-3 window at x.
func kernel(x float64) float64 {
	x = math.Abs(x)
	if x >= Support {
		return 0
	}
	w := sinc(x) * sinc(x/Support)
	if w > -epsilon && w < epsilon {
		return 0
	}
	return w
}

// tap is one source sample contributing to a destination sample.
type tap struct {
	index  int
	weight float64
}

// axisWeights precomputes the normalised taps for every destination
// sample along one axis. Destination sample v is centred on source
// coordinate (v+0.5)·scale−0.5. When shrinking, the kernel is widened
// by the scale factor so it also acts as the low-pass filter.
// Out-of-range taps are clamped to the nearest edge sample and merged.
func axisWeights(srcSize, dstSize int) [][]tap {
	scale := float64(srcSize) / float64(dstSize)
	stretch := math.Max(scale, 1)
	radius := Support * stretch

	out := make([][]tap, dstSize)
	for v := range out {
		center := (float64(v)+0.5)*scale - 0.5
		lo := int(math.Ceil(center - radius))
		hi := int(math.Floor(center + radius))

		taps := make([]tap, 0, hi-lo+1)
		var sum float64
		for u := lo; u <= hi; u++ {
			w := kernel((float64(u) - center) / stretch)
			if w == 0 {
				continue
			}
			idx := clampIndex(u, srcSize)
			// Clamped taps are contiguous at either edge.
			if n := len(taps); n > 0 && taps[n-1].index == idx {
				taps[n-1].weight += w
			} else {
				taps = append(taps, tap{index: idx, weight: w})
			}
			sum += w
		}

		if sum == 0 {
			// Unreachable for a=3, the centre tap alone is non-zero.
			taps = append(taps[:0], tap{index: clampIndex(int(math.Round(center)), srcSize), weight: 1})
		} else {
			for i := range taps {
				taps[i].weight /= sum
			}
		}
		out[v] = taps
	}
	return out
}

func clampIndex(i, size int) int {
	switch {
	case i < 0:
		return 0
	case i >= size:
		return size - 1
	}
	return i
}
