package phash

import "math"

// cosineBasis returns the orthonormal DCT-II basis for length n,
// restricted to the first k frequencies: basis[f*n+i] is
// s(f)·cos(π·f·(2i+1)/(2n)) with s(0)=√(1/n), s(f>0)=√(2/n).
// Built per call; nothing is cached between hashes.
func cosineBasis(n, k int) []float64 {
	basis := make([]float64, k*n)
	s0 := math.Sqrt(1 / float64(n))
	sk := math.Sqrt(2 / float64(n))
	for f := 0; f < k; f++ {
		scale := sk
		if f == 0 {
			scale = s0
		}
		for i := 0; i < n; i++ {
			basis[f*n+i] = scale * math.Cos(math.Pi*float64(f)*float64(2*i+1)/float64(2*n))
		}
	}
	return basis
}

// DCT2D computes the orthonormal 2-D DCT-II of an n×n row-major grid:
// a 1-D transform over every row, then over every column of the
// result. The returned coefficient matrix is n×n, row-major, with the
// DC term at index 0 and frequencies increasing rightward and downward.
func DCT2D(grid []float64, n int) []float64 {
	return lowDCT(grid, n, n)
}

// lowDCT evaluates only the top-left k×k block of DCT2D(grid, n).
// Each output coefficient is the same sum DCT2D computes; the higher
// frequencies are simply never formed.
func lowDCT(grid []float64, n, k int) []float64 {
	basis := cosineBasis(n, k)

	// Rows: n rows × k frequencies.
	rows := make([]float64, n*k)
	for y := 0; y < n; y++ {
		in := grid[y*n : (y+1)*n]
		out := rows[y*k : (y+1)*k]
		for f := range out {
			b := basis[f*n : (f+1)*n]
			var s float64
			for i, v := range in {
				s += v * b[i]
			}
			out[f] = s
		}
	}

	// Columns: k frequencies × k columns.
	out := make([]float64, k*k)
	for f := 0; f < k; f++ {
		b := basis[f*n : (f+1)*n]
		for x := 0; x < k; x++ {
			var s float64
			for y := 0; y < n; y++ {
				s += rows[y*k+x] * b[y]
			}
			out[f*k+x] = s
		}
	}
	return out
}
