package raster

import "errors"

// Input validation failures. Callers match them with errors.Is; the
// returned errors wrap these sentinels with the offending values.
var (
	// ErrInvalidDimensions reports a zero or negative width or height.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrDimensionMismatch reports a pixel buffer whose length disagrees
	// with width*height*4.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidHashSize reports a hash grid too small to produce a
	// usable fingerprint, or too large to compute in bounded work.
	ErrInvalidHashSize = errors.New("invalid hash size")
)
